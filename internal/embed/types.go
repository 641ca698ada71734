// Package embed defines the embedding capability injected into the vector
// store adapters. The embedding model itself is an external concern; this
// package carries the interface, a deterministic offline implementation,
// and an LRU caching wrapper.
package embed

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns a stable identifier for the model.
	ModelName() string

	// Close releases resources.
	Close() error
}

// Config selects and configures an embedder backend.
type Config struct {
	// Backend is the embedder backend name (default: "static").
	Backend string `yaml:"backend"`

	// Dimensions is the embedding dimension (default: DefaultDimensions).
	Dimensions int `yaml:"dimensions"`

	// CacheSize is the LRU cache capacity; 0 uses the default, negative
	// disables caching.
	CacheSize int `yaml:"cache_size"`
}

// DefaultConfig returns the offline static embedder configuration.
func DefaultConfig() Config {
	return Config{
		Backend:    BackendStatic,
		Dimensions: DefaultDimensions,
		CacheSize:  DefaultCacheSize,
	}
}
