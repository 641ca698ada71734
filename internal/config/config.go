// Package config loads and validates the engine configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/vectorsync/internal/chunk"
	"github.com/Aman-CERP/vectorsync/internal/embed"
	"github.com/Aman-CERP/vectorsync/internal/errors"
	"github.com/Aman-CERP/vectorsync/internal/logging"
	"github.com/Aman-CERP/vectorsync/internal/vstore"
)

// Config is the complete engine configuration.
type Config struct {
	Store    vstore.Config  `yaml:"store"`
	Embedder embed.Config   `yaml:"embedder"`
	Chunking chunk.Config   `yaml:"chunking"`
	Logging  logging.Config `yaml:"logging"`
}

// DefaultConfig returns a working local-backend configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: vstore.Config{
			Backend:          vstore.BackendLocal,
			ConnectionString: ".vectorsync",
		},
		Embedder: embed.DefaultConfig(),
		Chunking: chunk.DefaultConfig(),
		Logging:  logging.DefaultConfig(),
	}
}

// Load reads a YAML config file, layered over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("read config file %s", path), err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("parse config file %s", path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on configuration problems, before any backend
// connection is attempted.
func (c *Config) Validate() error {
	if c.Store.Backend == "" {
		return errors.ConfigError("store.backend is required", nil)
	}
	if c.Store.ConnectionString == "" {
		return errors.ConfigError("store.connection_string is required", nil)
	}
	if c.Store.Dimensions < 0 {
		return errors.ConfigError("store.dimensions must not be negative", nil)
	}
	if c.Embedder.Backend == "" {
		return errors.ConfigError("embedder.backend is required", nil)
	}
	if c.Embedder.Dimensions < 0 {
		return errors.ConfigError("embedder.dimensions must not be negative", nil)
	}
	if c.Chunking.MaxChunkTokens < 0 {
		return errors.ConfigError("chunking.max_chunk_tokens must not be negative", nil)
	}
	if c.Chunking.OverlapTokens < 0 {
		return errors.ConfigError("chunking.overlap_tokens must not be negative", nil)
	}
	if c.Chunking.MaxChunkTokens > 0 && c.Chunking.OverlapTokens >= c.Chunking.MaxChunkTokens {
		return errors.ConfigError("chunking.overlap_tokens must be smaller than chunking.max_chunk_tokens", nil)
	}
	return nil
}
