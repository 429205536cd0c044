package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func newFlagTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	addCommonFlags(cmd)
	return cmd
}

func TestAddCommonFlagsDefaults(t *testing.T) {
	cmd := newFlagTestCommand()

	maxCplx, err := cmd.Flags().GetFloat64("max-cplx")
	if err != nil || maxCplx != 256 {
		t.Fatalf("max-cplx = %v, %v, want 256, nil", maxCplx, err)
	}
	corpusSize, err := cmd.Flags().GetInt("corpus-size")
	if err != nil || corpusSize != 10 {
		t.Fatalf("corpus-size = %v, %v, want 10, nil", corpusSize, err)
	}
	inCorpus, err := cmd.Flags().GetString("in-corpus")
	if err != nil || inCorpus != "fuzz-corpus" {
		t.Fatalf("in-corpus = %v, %v, want fuzz-corpus, nil", inCorpus, err)
	}
}

func TestLoadSeedsReadsRegularFilesOnly(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), []byte("one"), 0o644); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b"), []byte("two"), 0o644); err != nil {
		t.Fatalf("write b: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir sub: %v", err)
	}

	cmd := newFlagTestCommand()
	if err := cmd.Flags().Set("in-corpus", dir); err != nil {
		t.Fatalf("set in-corpus: %v", err)
	}

	seeds, err := loadSeeds(cmd)
	if err != nil {
		t.Fatalf("loadSeeds: %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("len(seeds) = %d, want 2", len(seeds))
	}
}

func TestLoadSeedsDisabledReturnsNil(t *testing.T) {
	cmd := newFlagTestCommand()
	if err := cmd.Flags().Set("no-in-corpus", "true"); err != nil {
		t.Fatalf("set no-in-corpus: %v", err)
	}

	seeds, err := loadSeeds(cmd)
	if err != nil {
		t.Fatalf("loadSeeds: %v", err)
	}
	if seeds != nil {
		t.Fatalf("seeds = %v, want nil", seeds)
	}
}

func TestLoadSeedsMissingDirReturnsNilNoError(t *testing.T) {
	cmd := newFlagTestCommand()
	if err := cmd.Flags().Set("in-corpus", filepath.Join(t.TempDir(), "does-not-exist")); err != nil {
		t.Fatalf("set in-corpus: %v", err)
	}

	seeds, err := loadSeeds(cmd)
	if err != nil {
		t.Fatalf("loadSeeds: %v", err)
	}
	if seeds != nil {
		t.Fatalf("seeds = %v, want nil", seeds)
	}
}

func TestRunSubprocessTargetReportsNonzeroExitAsCrash(t *testing.T) {
	target := runSubprocessTarget("sh", []string{"-c", "exit 1"})

	crashed, err := target([]byte("input"))
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if !crashed {
		t.Fatal("crashed = false, want true for nonzero exit")
	}
}

func TestRunSubprocessTargetReportsCleanExitAsNoCrash(t *testing.T) {
	target := runSubprocessTarget("sh", []string{"-c", "cat >/dev/null"})

	crashed, err := target([]byte("input"))
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if crashed {
		t.Fatal("crashed = true, want false for a zero exit")
	}
}
