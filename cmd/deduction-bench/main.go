// Command deduction-bench runs the solver tiers offline: tournaments between
// tiers and single-turn decisions for a saved game state.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel string
	policy   string
}

var rootCmd = &cobra.Command{
	Use:   "deduction-bench",
	Short: "Benchmark and inspect the keyword deduction solver",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		lvl, err := zerolog.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
			Level(lvl).With().Timestamp().Logger()
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.policy, "policy", "", "YAML file with solver limits and policy overrides")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(solveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
