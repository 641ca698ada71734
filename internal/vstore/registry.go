package vstore

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Aman-CERP/vectorsync/internal/errors"
)

// Factory constructs an adapter from a validated config.
type Factory func(cfg Config) (Adapter, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a backend factory under name. Adapters self-register in
// their init functions; external backends may register additional names
// before calling Open.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = factory
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open constructs the adapter selected by cfg.Backend. Configuration
// problems abort here, before any indexing work starts.
func Open(cfg Config) (Adapter, error) {
	if cfg.Embedder == nil {
		return nil, errors.ConfigError("vector store requires an embedder", nil)
	}
	if cfg.ConnectionString == "" {
		return nil, errors.ConfigError("vector store requires a connection string", nil)
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = cfg.Embedder.Dimensions()
	}
	if cfg.Dimensions != cfg.Embedder.Dimensions() {
		return nil, errors.ConfigError(
			fmt.Sprintf("store dimensions %d do not match embedder dimensions %d",
				cfg.Dimensions, cfg.Embedder.Dimensions()), nil)
	}

	registryMu.RLock()
	factory, ok := registry[strings.ToLower(cfg.Backend)]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.BackendError(
			fmt.Sprintf("unknown vector store backend %q", cfg.Backend)).
			WithSuggestion(fmt.Sprintf("valid backends: %s", strings.Join(Backends(), ", ")))
	}

	return factory(cfg)
}
