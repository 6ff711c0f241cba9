package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eon-protocol/snarkagg"
)

var srsFlags struct {
	Lagrange int
}

var srsCmd = &cobra.Command{
	Use:   "srs",
	Short: "Fetch or check the cached SRS and print Lagrange digests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srs, err := loadSRS()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "points: %d\n", srs.Size())
		limit := min(srsFlags.Lagrange, srs.Size())
		for i := 0; (1 << i) <= limit; i++ {
			_, lk, err := srs.ProvingKeys(1, 1<<i)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "sha256(SRS.LK.%d.BIN) = %s\n", i, snarkagg.G1Digest(lk.G1))
		}
		return nil
	},
}

func init() {
	srsCmd.Flags().IntVar(&srsFlags.Lagrange, "lagrange", 0, "print digests of the Lagrange forms up to this size")
}
