package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/logger"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/eon-protocol/snarkagg"
	"github.com/eon-protocol/snarkagg/circuits/sample"
	"github.com/eon-protocol/snarkagg/internal/store"
)

var sampleFlags struct {
	Circuit string
	Count   int
	Out     string
	Keys    string
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a verifying key and sample records for a demo circuit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Logger()
		var circuit frontend.Circuit
		var assign func(i uint64) frontend.Circuit
		switch sampleFlags.Circuit {
		case "product":
			circuit = &sample.Product{}
			assign = func(i uint64) frontend.Circuit { return sample.NewProduct(i+1, i+2, i+3) }
		case "preimage":
			circuit = &sample.Preimage{}
			assign = func(i uint64) frontend.Circuit { return sample.NewPreimage(i) }
		default:
			return fmt.Errorf("unknown circuit %q", sampleFlags.Circuit)
		}
		srs, err := loadSRS()
		if err != nil {
			return err
		}
		var pk snarkagg.Pk
		if err := pk.Compile(circuit, srs); err != nil {
			return err
		}
		keys := sampleFlags.Keys
		if keys == "" {
			keys = sampleFlags.Out
		}
		for _, dir := range []string{sampleFlags.Out, keys} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := store.WriteKey(store.KeyPath(keys, pk.Vk()), pk.Vk()); err != nil {
			return err
		}
		log.Info().Str("circuit", sampleFlags.Circuit).Str("key", pk.Vk().ID().String()).Msg("key written")

		bar := progressbar.Default(int64(sampleFlags.Count), "proving")
		for i := 0; i < sampleFlags.Count; i++ {
			publics, proof, err := pk.Prove(assign(uint64(i)))
			if err != nil {
				return err
			}
			record, err := snarkagg.NewRecord(pk.Vk(), publics, proof)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("%s-%04d%s", sampleFlags.Circuit, i, store.RecordExt)
			if err := store.WriteRecord(filepath.Join(sampleFlags.Out, name), record); err != nil {
				return err
			}
			bar.Add(1)
		}
		return bar.Finish()
	},
}

func init() {
	sampleCmd.Flags().StringVar(&sampleFlags.Circuit, "circuit", "product", "sample circuit: product|preimage")
	sampleCmd.Flags().IntVarP(&sampleFlags.Count, "count", "n", 4, "number of records")
	sampleCmd.Flags().StringVarP(&sampleFlags.Out, "out", "o", "records", "output directory for records")
	sampleCmd.Flags().StringVar(&sampleFlags.Keys, "keys", "", "output directory for the key (default: --out)")
}
