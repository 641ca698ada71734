package indexer

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/vectorsync/internal/document"
)

// collectDependencies interleaves each document with its dependents:
// parent first, then its children tagged with the parent's id. Hook
// failures are logged and the run continues with the parent alone.
func collectDependencies(ctx context.Context, loader Loader, stream document.Stream, logger *slog.Logger) document.Stream {
	return func(yield func(*document.Document) bool) {
		for doc := range stream {
			if !yield(doc) {
				return
			}

			deps, err := loader.ProcessDocument(ctx, doc)
			if err != nil {
				logger.Warn("failed to collect dependents",
					slog.String("loader", loader.Name()),
					slog.String("id", doc.ID()),
					slog.String("error", err.Error()))
				continue
			}
			if deps == nil {
				continue
			}

			parentID := doc.ID()
			for dep := range deps {
				if parentID != "" {
					dep.SetParent(parentID)
				}
				if !yield(dep) {
					return
				}
			}
		}
	}
}
