// Package config loads fuzzcheck's TOML configuration file, following the
// nested-section-plus-Default() convention the rest of the codebase's
// daemon config uses.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is fuzzcheck's on-disk configuration.
type Config struct {
	Fuzz   FuzzConfig   `toml:"fuzz"`
	Corpus CorpusConfig `toml:"corpus"`
	Server ServerConfig `toml:"server"`
}

// FuzzConfig controls the fuzz loop and the pool it drives.
type FuzzConfig struct {
	MaxIterations int     `toml:"max_iterations"` // 0 means unbounded
	MaxComplexity float64 `toml:"max_complexity"`
	CorpusSize    int     `toml:"corpus_size"`
	RNGSeed       uint64  `toml:"rng_seed"`
}

// CorpusConfig names the on-disk locations the driver reads from and
// writes to.
type CorpusConfig struct {
	InDir        string `toml:"in_dir"`
	OutDir       string `toml:"out_dir"`
	ArtifactsDir string `toml:"artifacts_dir"`
	DBPath       string `toml:"db_path"`
}

// ServerConfig controls the optional status HTTP server.
type ServerConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// Default returns the configuration the CLI uses when no config file is
// given, matching the CLI surface's documented defaults.
func Default() Config {
	return Config{
		Fuzz: FuzzConfig{
			MaxIterations: 0,
			MaxComplexity: 256,
			CorpusSize:    10,
			RNGSeed:       1,
		},
		Corpus: CorpusConfig{
			InDir:        "fuzz-corpus",
			OutDir:       "fuzz-corpus",
			ArtifactsDir: "artifacts",
			DBPath:       "fuzz-corpus/index.db",
		},
		Server: ServerConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
		},
	}
}

// Load reads and decodes a TOML config file, overlaying it onto Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}
