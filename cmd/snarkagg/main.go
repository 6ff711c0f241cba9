package main

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/eon-protocol/snarkagg"
	"github.com/eon-protocol/snarkagg/config"
)

type GlobalFlags struct {
	ConfigFile string
	LogLevel   string
	Quiet      bool
	UnsafeTau  int64
	UnsafeSize uint64
}

var (
	globalFlags GlobalFlags
	cfg         *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "snarkagg",
	Short:         "Verify and aggregate PLONK proofs over BLS12-381",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if globalFlags.ConfigFile != "" {
			if cfg, err = config.ReadFile(globalFlags.ConfigFile); err != nil {
				return fmt.Errorf("read config: %w", err)
			}
		} else {
			cfg = config.NewDefaultConfig()
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = globalFlags.LogLevel
		}
		if globalFlags.Quiet {
			logger.Set(zerolog.New(io.Discard))
			return nil
		}
		level, err := cfg.LogLevel()
		if err != nil {
			return err
		}
		logger.Set(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).Level(level).With().Timestamp().Logger())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigFile, "config", "", "TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "info", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "disable logging")
	rootCmd.PersistentFlags().Int64Var(&globalFlags.UnsafeTau, "unsafe-tau", 0, "use a locally generated SRS with this secret (development only)")
	rootCmd.PersistentFlags().Uint64Var(&globalFlags.UnsafeSize, "unsafe-size", 1<<20+3, "number of points of the unsafe SRS")

	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(srsCmd)
}

func loadSRS() (*snarkagg.SRS, error) {
	if globalFlags.UnsafeTau != 0 {
		log := logger.Logger()
		log.Warn().Uint64("size", globalFlags.UnsafeSize).Msg("using an unsafe srs")
		return snarkagg.NewUnsafeSRS(globalFlags.UnsafeSize, big.NewInt(globalFlags.UnsafeTau))
	}
	return snarkagg.LoadSRS(cfg.SRSConfig())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if class := snarkagg.Classify(err); class != snarkagg.ClassUnknown {
			fmt.Fprintf(os.Stderr, "class: %s\n", class)
		}
		os.Exit(1)
	}
}
