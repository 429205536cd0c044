package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Fuzz.MaxComplexity != 256 {
		t.Errorf("Fuzz.MaxComplexity = %v, want 256", cfg.Fuzz.MaxComplexity)
	}
	if cfg.Fuzz.CorpusSize != 10 {
		t.Errorf("Fuzz.CorpusSize = %d, want 10", cfg.Fuzz.CorpusSize)
	}
	if cfg.Corpus.InDir != "fuzz-corpus" || cfg.Corpus.OutDir != "fuzz-corpus" {
		t.Errorf("Corpus dirs = %+v, want fuzz-corpus/fuzz-corpus", cfg.Corpus)
	}
	if cfg.Corpus.ArtifactsDir != "artifacts" {
		t.Errorf("Corpus.ArtifactsDir = %q, want artifacts", cfg.Corpus.ArtifactsDir)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(missing) = %+v, want Default()", cfg)
	}
}

func TestLoadOverlaysDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fuzzcheck.toml")
	contents := `
[fuzz]
max_complexity = 64.0

[server]
enabled = true
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fuzz.MaxComplexity != 64.0 {
		t.Errorf("Fuzz.MaxComplexity = %v, want 64.0", cfg.Fuzz.MaxComplexity)
	}
	if cfg.Fuzz.CorpusSize != 10 {
		t.Errorf("Fuzz.CorpusSize = %d, want untouched default 10", cfg.Fuzz.CorpusSize)
	}
	if !cfg.Server.Enabled {
		t.Error("Server.Enabled should be overlaid to true")
	}
}
