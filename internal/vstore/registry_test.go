package vstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/vectorsync/internal/embed"
)

func TestBackendsRegistered(t *testing.T) {
	names := Backends()
	assert.Contains(t, names, BackendLocal)
	assert.Contains(t, names, BackendPgvector)
}

func TestOpenValidatesConfig(t *testing.T) {
	embedder := embed.NewStaticEmbedder(64)
	defer embedder.Close()

	_, err := Open(Config{Backend: BackendLocal, ConnectionString: t.TempDir()})
	require.Error(t, err, "missing embedder")

	_, err = Open(Config{Backend: BackendLocal, Embedder: embedder})
	require.Error(t, err, "missing connection string")

	_, err = Open(Config{
		Backend:          BackendLocal,
		ConnectionString: t.TempDir(),
		Embedder:         embedder,
		Dimensions:       128,
	})
	require.Error(t, err, "dimension mismatch")
}

func TestOpenUnknownBackend(t *testing.T) {
	embedder := embed.NewStaticEmbedder(64)
	defer embedder.Close()

	_, err := Open(Config{
		Backend:          "chroma",
		ConnectionString: "somewhere",
		Embedder:         embedder,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chroma")
	assert.Contains(t, err.Error(), BackendLocal)
}

func TestOpenLocalBackend(t *testing.T) {
	embedder := embed.NewStaticEmbedder(64)
	defer embedder.Close()

	adapter, err := Open(Config{
		Backend:          BackendLocal,
		ConnectionString: t.TempDir(),
		Embedder:         embedder,
	})
	require.NoError(t, err)
	require.NoError(t, adapter.Close())
}

func TestRegisterCustomBackend(t *testing.T) {
	embedder := embed.NewStaticEmbedder(64)
	defer embedder.Close()

	called := false
	Register("Test-Backend", func(cfg Config) (Adapter, error) {
		called = true
		return OpenLocal(cfg)
	})

	adapter, err := Open(Config{
		Backend:          "test-backend", // lookup is case-insensitive
		ConnectionString: t.TempDir(),
		Embedder:         embedder,
	})
	require.NoError(t, err)
	defer adapter.Close()
	assert.True(t, called)
}
