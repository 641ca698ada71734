package embed

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/vectorsync/internal/errors"
)

// Embedder backend names.
const (
	// BackendStatic is the deterministic hash-based embedder.
	BackendStatic = "static"
)

// NewEmbedder constructs an embedder from config. A misconfigured backend
// is a construction-time error; no indexing proceeds without an embedder.
func NewEmbedder(cfg Config) (Embedder, error) {
	var inner Embedder

	switch strings.ToLower(cfg.Backend) {
	case BackendStatic, "":
		inner = NewStaticEmbedder(cfg.Dimensions)
	default:
		return nil, errors.BackendError(
			fmt.Sprintf("unknown embedder backend %q", cfg.Backend)).
			WithSuggestion(fmt.Sprintf("valid backends: %s", BackendStatic))
	}

	if cfg.CacheSize < 0 {
		return inner, nil
	}
	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
