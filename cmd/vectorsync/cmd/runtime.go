package cmd

import (
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/vectorsync/internal/config"
	"github.com/Aman-CERP/vectorsync/internal/embed"
	"github.com/Aman-CERP/vectorsync/internal/indexer"
	"github.com/Aman-CERP/vectorsync/internal/logging"
	"github.com/Aman-CERP/vectorsync/internal/vstore"
)

// runtime bundles the wired-up engine and its dependencies for one
// command invocation.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	engine  *indexer.Engine
	cleanup []func()
}

// openRuntime loads config and constructs logger, embedder, store
// adapter, and engine. Callers must defer rt.close().
func openRuntime() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	if debugMode {
		logCfg.Level = "debug"
	}
	logger, logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	slog.SetDefault(logger)

	rt := &runtime{cfg: cfg, logger: logger}
	rt.cleanup = append(rt.cleanup, logCleanup)

	embedder, err := embed.NewEmbedder(cfg.Embedder)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.cleanup = append(rt.cleanup, func() { _ = embedder.Close() })

	storeCfg := cfg.Store
	storeCfg.Embedder = embedder
	adapter, err := vstore.Open(storeCfg)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.cleanup = append(rt.cleanup, func() { _ = adapter.Close() })

	rt.engine = indexer.New(adapter, indexer.Options{
		Chunking: cfg.Chunking,
		Logger:   logger,
	})
	rt.cleanup = append(rt.cleanup, rt.engine.Close)

	return rt, nil
}

// close releases runtime resources in reverse construction order.
func (rt *runtime) close() {
	for i := len(rt.cleanup) - 1; i >= 0; i-- {
		rt.cleanup[i]()
	}
}
