package main

import (
	"fmt"
	"time"

	"github.com/consensys/gnark/logger"
	"github.com/spf13/cobra"

	"github.com/eon-protocol/snarkagg"
	"github.com/eon-protocol/snarkagg/circuits/attest"
	"github.com/eon-protocol/snarkagg/circuits/recursion"
	"github.com/eon-protocol/snarkagg/internal/store"
)

var aggregateFlags struct {
	Keys      string
	Recursive bool
	Backend   string
	Out       string
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <dir>",
	Short: "Aggregate the records of a directory into one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Logger()
		ring, err := store.LoadKeyRing(aggregateFlags.Keys)
		if err != nil {
			return err
		}
		paths, err := store.Discover(args[0], aggregateFlags.Recursive)
		if err != nil {
			return err
		}
		batch, err := store.ReadBatch(paths)
		if err != nil {
			return err
		}
		srs, err := loadSRS()
		if err != nil {
			return err
		}
		var backend snarkagg.AggregationBackend
		switch aggregateFlags.Backend {
		case "recursion":
			backend = recursion.NewBackend(srs)
		case "attest":
			log.Warn().Msg("attestation aggregates are not verified in-circuit and cannot be aggregated recursively")
			backend = attest.NewBackend(srs, snarkagg.NewVerifier(snarkagg.WithWorkers(cfg.Workers)))
		default:
			return fmt.Errorf("unknown backend %q", aggregateFlags.Backend)
		}
		agg, err := snarkagg.NewAggregator(ring, backend, snarkagg.WithProvingKeyCache(cfg.PkCache))
		if err != nil {
			return err
		}

		layout := make([]snarkagg.KeyID, len(batch))
		for i := range batch {
			layout[i] = batch[i].KeyID
		}
		start := time.Now()
		key, err := agg.Prepare(layout)
		if err != nil {
			return err
		}
		log.Info().Str("key", key.ID().String()).Dur("took", time.Since(start)).Msg("aggregation circuit ready")

		start = time.Now()
		record, err := agg.Aggregate(batch, key)
		if err != nil {
			return err
		}
		log.Info().Int("records", len(batch)).Str("family", key.Family.String()).Dur("took", time.Since(start)).Msg("aggregated")

		if err := store.WriteKey(store.KeyPath(aggregateFlags.Keys, key), key); err != nil {
			return err
		}
		if err := store.WriteRecord(aggregateFlags.Out, record); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", aggregateFlags.Out, record.KeyID)
		return nil
	},
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateFlags.Keys, "keys", ".", "directory of verifying keys; the aggregation key is written there")
	aggregateCmd.Flags().BoolVarP(&aggregateFlags.Recursive, "recursive", "r", false, "descend into subdirectories")
	aggregateCmd.Flags().StringVar(&aggregateFlags.Backend, "backend", "recursion", "aggregation backend: recursion|attest")
	aggregateCmd.Flags().StringVarP(&aggregateFlags.Out, "out", "o", "aggregate.proof", "output record")
}
