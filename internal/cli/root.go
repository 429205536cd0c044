// Package cli wires the fuzzcheck driver, config, and corpus storage behind
// a cobra command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fuzzcheck",
	Short: "A coverage-guided fuzzer over a weighted input pool",
	Long: `fuzzcheck runs target code against mutated byte-slice inputs,
keeping a pool of the inputs that each contribute unique coverage and
sampling from it in proportion to how rare that coverage is.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a TOML config file (overlaid on defaults)")
}

// Execute runs the root command, returning any error for main to report.
func Execute() error {
	return rootCmd.Execute()
}
