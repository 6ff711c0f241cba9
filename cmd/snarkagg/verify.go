package main

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark/logger"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/eon-protocol/snarkagg"
	"github.com/eon-protocol/snarkagg/internal/store"
)

var verifyFlags struct {
	Keys      string
	Recursive bool
	Reference bool
}

var errInvalidRecords = errors.New("some records did not verify")

var verifyCmd = &cobra.Command{
	Use:   "verify <record|dir>",
	Short: "Verify one record or every record of a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Logger()
		ring, err := store.LoadKeyRing(verifyFlags.Keys)
		if err != nil {
			return err
		}
		paths, err := store.Discover(args[0], verifyFlags.Recursive)
		if err != nil {
			return err
		}
		batch, err := store.ReadBatch(paths)
		if err != nil {
			return err
		}
		opts := []snarkagg.Option{snarkagg.WithWorkers(cfg.Workers)}
		if verifyFlags.Reference {
			opts = append(opts, snarkagg.WithCommitmentScheme(snarkagg.ReferenceKZG{}), snarkagg.WithPairingEngine(snarkagg.ReferenceKZG{}))
		}
		verifier := snarkagg.NewVerifier(opts...)
		log.Info().Int("records", len(batch)).Int("keys", ring.Len()).Msg("verifying")

		bar := progressbar.Default(int64(len(batch)), "verifying")
		chunk := max(cfg.Workers, 1) * 4
		reports := make([]snarkagg.VerificationReport, 0, len(batch))
		for start := 0; start < len(batch); start += chunk {
			end := min(start+chunk, len(batch))
			r, err := verifier.VerifyBatch(cmd.Context(), batch[start:end], ring)
			if err != nil {
				return err
			}
			reports = append(reports, r...)
			bar.Add(end - start)
		}
		bar.Finish()

		failed := 0
		for i, r := range reports {
			line := fmt.Sprintf("%s\t%s", paths[i], r)
			// attestations are only as good as whoever proved them
			if key, err := ring.Resolve(batch[i].KeyID); err == nil && key.Family == snarkagg.FamilyAttestation {
				line += "\t" + key.Family.String()
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			if !r.Valid {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%w: %d of %d", errInvalidRecords, failed, len(reports))
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyFlags.Keys, "keys", ".", "directory of verifying keys")
	verifyCmd.Flags().BoolVarP(&verifyFlags.Recursive, "recursive", "r", false, "descend into subdirectories")
	verifyCmd.Flags().BoolVar(&verifyFlags.Reference, "reference", false, "use the reference commitment scheme and pairing")
}
