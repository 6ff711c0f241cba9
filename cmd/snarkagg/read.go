package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eon-protocol/snarkagg/internal/store"
)

var readFlags struct {
	Keys string
}

var readCmd = &cobra.Command{
	Use:   "read <record>",
	Short: "Decode and print a proof record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		record, err := store.ReadRecord(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "key:     %s\n", record.KeyID)
		fmt.Fprintf(out, "publics: %d\n", len(record.PublicInputs))
		for i := range record.PublicInputs {
			fmt.Fprintf(out, "  [%d] %s\n", i, record.PublicInputs[i].String())
		}
		proof, err := record.Proof()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "proof:   %d bytes, %d commitments\n", len(record.ProofBytes), len(proof.BSB))
		if readFlags.Keys == "" {
			return nil
		}
		ring, err := store.LoadKeyRing(readFlags.Keys)
		if err != nil {
			return err
		}
		key, err := ring.Resolve(record.KeyID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "family:  %s\n", key.Family)
		fmt.Fprintf(out, "domain:  2^%d\n", key.SZ)
		for i, id := range key.Layout {
			fmt.Fprintf(out, "  slot %d: %s\n", i, id)
		}
		return nil
	},
}

func init() {
	readCmd.Flags().StringVar(&readFlags.Keys, "keys", "", "directory of verifying keys")
}
