package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/covguard/fuzzcheck/internal/config"
	"github.com/covguard/fuzzcheck/internal/corpusdb"
	"github.com/covguard/fuzzcheck/internal/driver"
)

// addCommonFlags registers the full flag set of the fuzz subcommand. tmin,
// cmin and read declare their own smaller flag sets; read takes only
// input-file.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-iter", 0, "maximum number of fuzzing iterations (0 = unbounded)")
	cmd.Flags().Float64("max-cplx", 256, "maximum input complexity")
	cmd.Flags().String("input-file", "", "single input file (read, or a tmin seed)")
	cmd.Flags().String("in-corpus", "fuzz-corpus", "directory of seed inputs")
	cmd.Flags().Bool("no-in-corpus", false, "disable reading from the input corpus")
	cmd.Flags().String("out-corpus", "fuzz-corpus", "directory to persist kept inputs")
	cmd.Flags().Bool("no-out-corpus", false, "disable writing to the output corpus")
	cmd.Flags().String("artifacts", "artifacts", "directory to persist crashing inputs")
	cmd.Flags().Bool("no-artifacts", false, "disable persisting crashing inputs")
	cmd.Flags().Int("corpus-size", 10, "target number of inputs kept in the pool")
}

// resolvedOptions builds driver.Options from the loaded config and a
// subcommand's flags, opening corpus storage unless disabled, and returns
// the options together with the opened store and index (nil when not
// opened).
func resolvedOptions(cmd *cobra.Command) (driver.Options, *corpusdb.Store, *corpusdb.DB, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return driver.Options{}, nil, nil, fmt.Errorf("load config: %w", err)
	}

	maxIter, _ := cmd.Flags().GetInt("max-iter")
	maxCplx, _ := cmd.Flags().GetFloat64("max-cplx")
	corpusSize, _ := cmd.Flags().GetInt("corpus-size")
	noOutCorpus, _ := cmd.Flags().GetBool("no-out-corpus")
	noArtifacts, _ := cmd.Flags().GetBool("no-artifacts")
	outCorpus, _ := cmd.Flags().GetString("out-corpus")

	if maxIter != 0 {
		cfg.Fuzz.MaxIterations = maxIter
	}
	if maxCplx != 0 {
		cfg.Fuzz.MaxComplexity = maxCplx
	}
	if corpusSize != 0 {
		cfg.Fuzz.CorpusSize = corpusSize
	}

	opts := driver.Options{
		MaxIterations: cfg.Fuzz.MaxIterations,
		MaxComplexity: cfg.Fuzz.MaxComplexity,
		CorpusSize:    cfg.Fuzz.CorpusSize,
		RNGSeed:       cfg.Fuzz.RNGSeed,
	}

	var store *corpusdb.Store
	var index *corpusdb.DB
	if !noOutCorpus {
		store, err = corpusdb.NewStore(outCorpus)
		if err != nil {
			return driver.Options{}, nil, nil, err
		}
		opts.Store = store

		if !noArtifacts {
			index, err = corpusdb.Open(cfg.Corpus.DBPath)
			if err != nil {
				return driver.Options{}, nil, nil, err
			}
			opts.Index = index
		}
	}

	return opts, store, index, nil
}

// loadSeeds reads every regular file under dir, skipping it entirely when
// disabled or the directory is absent.
func loadSeeds(cmd *cobra.Command) ([][]byte, error) {
	noInCorpus, _ := cmd.Flags().GetBool("no-in-corpus")
	if noInCorpus {
		return nil, nil
	}
	inCorpus, _ := cmd.Flags().GetString("in-corpus")

	entries, err := os.ReadDir(inCorpus)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed corpus %s: %w", inCorpus, err)
	}

	var seeds [][]byte
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(inCorpus + "/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", e.Name(), err)
		}
		seeds = append(seeds, data)
	}
	return seeds, nil
}

// runSubprocessTarget builds a driver.Target that feeds input on stdin to
// an external command, treating a nonzero exit (or a signal) as a crash.
func runSubprocessTarget(command string, args []string) driver.Target {
	return func(input []byte) (bool, error) {
		c := exec.Command(command, args...)
		c.Stdin = bytes.NewReader(input)
		err := c.Run()
		if err == nil {
			return false, nil
		}
		if _, ok := err.(*exec.ExitError); ok {
			return true, nil
		}
		return false, err
	}
}
