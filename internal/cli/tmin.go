package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/covguard/fuzzcheck/internal/config"
	"github.com/covguard/fuzzcheck/internal/driver"
)

var tminCmd = &cobra.Command{
	Use:   "tmin --input-file FILE -- TARGET [ARGS...]",
	Short: "Shrink a crashing input to a smaller one that still crashes TARGET and reproduces every feature of the original",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTmin,
}

func init() {
	rootCmd.AddCommand(tminCmd)
	tminCmd.Flags().String("input-file", "", "crashing input to shrink")
	tminCmd.Flags().Float64("max-cplx", 256, "maximum input complexity")
	tminCmd.Flags().String("artifacts", "artifacts", "directory to write the minified input to")
	tminCmd.Flags().Bool("no-artifacts", false, "don't write the minified input to disk")
	_ = tminCmd.MarkFlagRequired("input-file")
}

func runTmin(cmd *cobra.Command, args []string) error {
	inputFile, _ := cmd.Flags().GetString("input-file")
	maxCplx, _ := cmd.Flags().GetFloat64("max-cplx")
	noArtifacts, _ := cmd.Flags().GetBool("no-artifacts")
	artifacts, _ := cmd.Flags().GetString("artifacts")

	data, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	target := runSubprocessTarget(args[0], args[1:])
	minified, err := driver.Minify(target, data, maxCplx, cfg.Fuzz.RNGSeed, 100)
	if err != nil {
		return fmt.Errorf("minify: %w", err)
	}

	fmt.Fprintf(os.Stdout, "minified %d bytes -> %d bytes\n", len(data), len(minified))

	if noArtifacts {
		return nil
	}
	if err := os.MkdirAll(artifacts, 0o755); err != nil {
		return fmt.Errorf("create artifacts directory: %w", err)
	}
	outPath := artifacts + "/minified"
	if err := os.WriteFile(outPath, minified, 0o644); err != nil {
		return fmt.Errorf("write minified input: %w", err)
	}
	fmt.Fprintf(os.Stdout, "wrote %s\n", outPath)
	return nil
}
