package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/covguard/fuzzcheck/internal/config"
	"github.com/covguard/fuzzcheck/internal/corpusdb"
	"github.com/covguard/fuzzcheck/internal/driver"
)

var cminCmd = &cobra.Command{
	Use:   "cmin -- TARGET [ARGS...]",
	Short: "Replay the input corpus and keep only what the admission policy retains",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCmin,
}

func init() {
	rootCmd.AddCommand(cminCmd)
	cminCmd.Flags().Float64("max-cplx", 256, "maximum input complexity")
	cminCmd.Flags().String("in-corpus", "fuzz-corpus", "directory of inputs to minimize")
	cminCmd.Flags().String("out-corpus", "fuzz-corpus", "directory to write the minimized corpus to")
	cminCmd.Flags().Int("corpus-size", 10, "target number of inputs kept in the pool")
}

func runCmin(cmd *cobra.Command, args []string) error {
	maxCplx, _ := cmd.Flags().GetFloat64("max-cplx")
	corpusSize, _ := cmd.Flags().GetInt("corpus-size")
	inCorpus, _ := cmd.Flags().GetString("in-corpus")
	outCorpus, _ := cmd.Flags().GetString("out-corpus")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(inCorpus)
	if err != nil {
		return fmt.Errorf("read input corpus %s: %w", inCorpus, err)
	}
	var corpus [][]byte
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(inCorpus + "/" + e.Name())
		if err != nil {
			return fmt.Errorf("read seed %s: %w", e.Name(), err)
		}
		corpus = append(corpus, data)
	}

	target := runSubprocessTarget(args[0], args[1:])
	kept, err := driver.MinifyCorpus(target, corpus, driver.Options{
		MaxComplexity: maxCplx,
		CorpusSize:    corpusSize,
		RNGSeed:       cfg.Fuzz.RNGSeed,
	})
	if err != nil {
		return fmt.Errorf("cmin: %w", err)
	}

	store, err := corpusdb.NewStore(outCorpus)
	if err != nil {
		return err
	}
	for _, value := range kept {
		if _, err := store.Write(value); err != nil {
			return fmt.Errorf("write minimized input: %w", err)
		}
	}

	fmt.Fprintf(os.Stdout, "corpus minimized: %d -> %d inputs\n", len(corpus), len(kept))
	return nil
}
