// Package config loads bmgraph settings.
//
// Settings come from three layers, each overriding the previous one:
// built-in defaults, an optional YAML file, and environment variables
// (optionally seeded from .env files).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/bmgraph/internal/cooccur"
	"github.com/roach88/bmgraph/internal/crawler"
	"github.com/roach88/bmgraph/internal/edgelist"
	"github.com/roach88/bmgraph/internal/query"
)

// Environment variables read by ApplyEnv.
const (
	EnvDB      = "BMGRAPH_DB"
	EnvCrawler = "BMGRAPH_CRAWLER"
)

// DefaultDBPath is the graph store used when nothing else is configured.
const DefaultDBPath = "bmgraph.db"

// Config is the complete bmgraph configuration.
type Config struct {
	Database Database                `yaml:"database"`
	Builder  cooccur.Options         `yaml:"builder"`
	Edgelist edgelist.ConvertOptions `yaml:"edgelist"`
	Query    query.Options           `yaml:"query"`
	Crawler  crawler.Config          `yaml:"crawler"`
}

// Database locates the graph store.
type Database struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: Database{Path: DefaultDBPath},
		Builder:  cooccur.DefaultOptions(),
		Edgelist: edgelist.DefaultConvertOptions(),
		Query:    query.DefaultOptions(),
		Crawler:  crawler.DefaultConfig(),
	}
}

// Load reads the YAML file at path over the defaults. Unknown keys are
// rejected. An empty file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvDB); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := os.LookupEnv(EnvCrawler); ok && v != "" {
		c.Crawler.Executable = v
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Builder.Delimiter == "" {
		return fmt.Errorf("builder.delimiter must not be empty")
	}
	if c.Builder.MinTokenLength < 0 || c.Builder.MaxTokensPerSentence < 0 {
		return fmt.Errorf("builder limits must not be negative")
	}
	if c.Edgelist.NodeAField < 1 || c.Edgelist.NodeBField < 1 || c.Edgelist.WeightField < 1 {
		return fmt.Errorf("edgelist field numbers start at 1")
	}
	if c.Query.MaxFailures < 1 || c.Query.GoodnessLimit < 1 {
		return fmt.Errorf("query.max_failures and query.goodness_limit must be positive")
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files, or from ./.env when
// none are named. Missing files are ignored. Variables already set in the
// environment are never overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}
