package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/vectorsync/internal/vstore"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, vstore.BackendLocal, cfg.Store.Backend)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store:
  backend: pgvector
  connection_string: postgres://localhost/vectorsync
  dimensions: 256
chunking:
  max_chunk_tokens: 256
  overlap_tokens: 32
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pgvector", cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/vectorsync", cfg.Store.ConnectionString)
	assert.Equal(t, 256, cfg.Store.Dimensions)
	assert.Equal(t, 256, cfg.Chunking.MaxChunkTokens)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.NotEmpty(t, cfg.Embedder.Backend)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing backend", func(c *Config) { c.Store.Backend = "" }},
		{"missing connection string", func(c *Config) { c.Store.ConnectionString = "" }},
		{"negative dimensions", func(c *Config) { c.Store.Dimensions = -1 }},
		{"missing embedder backend", func(c *Config) { c.Embedder.Backend = "" }},
		{"overlap exceeds budget", func(c *Config) {
			c.Chunking.MaxChunkTokens = 100
			c.Chunking.OverlapTokens = 100
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
