package dedup

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/vectorsync/internal/document"
	"github.com/Aman-CERP/vectorsync/internal/vstore"
)

// Reducer filters a document stream against the indexed state of one
// collection. Documents already indexed and unchanged are dropped;
// changed documents pass through and their superseded storage rows are
// collected in StaleIDs.
type Reducer struct {
	strategy Strategy
	adapter  vstore.Adapter
	suffix   string
	logger   *slog.Logger

	staleIDs []string
	skipped  int
}

// NewReducer builds a reducer for one indexing run. A reducer is single
// use: consume the stream returned by Reduce, then read StaleIDs.
func NewReducer(strategy Strategy, adapter vstore.Adapter, suffix string, logger *slog.Logger) *Reducer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reducer{
		strategy: strategy,
		adapter:  adapter,
		suffix:   suffix,
		logger:   logger,
	}
}

// Reduce wraps the stream lazily. The indexed state is fetched when the
// first document is pulled, so an unconsumed stream costs nothing.
func (r *Reducer) Reduce(ctx context.Context, stream document.Stream) document.Stream {
	return func(yield func(*document.Document) bool) {
		indexed := r.strategy.Fetch(ctx, r.adapter)
		if len(indexed) == 0 {
			// Nothing indexed yet: everything passes through.
			for doc := range stream {
				if !yield(doc) {
					return
				}
			}
			return
		}

		seen := make(map[string]bool)
		for doc := range stream {
			key := r.strategy.Key(doc)
			if key == "" {
				r.logger.Warn("document has no dedup key, indexing unconditionally",
					slog.String("strategy", r.strategy.Name()))
				if !yield(doc) {
					return
				}
				continue
			}
			if seen[key] {
				r.skipped++
				continue
			}
			seen[key] = true

			entry, ok := indexed[key]
			if !ok {
				if !yield(doc) {
					return
				}
				continue
			}

			if r.strategy.Current(doc, entry) {
				r.skipped++
				r.tagIfForeign(ctx, entry)
				continue
			}

			// Only rows owned by this collection are superseded. A changed
			// entry belonging solely to other collections is left intact;
			// the document is indexed fresh into this collection.
			if document.HasCollectionTag(entry.Metadata, r.suffix) {
				r.staleIDs = append(r.staleIDs, r.strategy.RemoveIDs(entry, indexed)...)
			}
			if !yield(doc) {
				return
			}
		}
	}
}

// tagIfForeign handles a current entry indexed under another collection:
// instead of re-embedding, the existing rows gain this collection's tag.
func (r *Reducer) tagIfForeign(ctx context.Context, entry *vstore.IndexedEntry) {
	if document.HasCollectionTag(entry.Metadata, r.suffix) {
		return
	}
	for _, storageID := range entry.ChunkIDs {
		if err := r.adapter.AddToCollection(ctx, storageID, r.suffix); err != nil {
			r.logger.Warn("failed to tag existing entry with collection",
				slog.String("storage_id", storageID),
				slog.String("collection", r.suffix),
				slog.String("error", err.Error()))
		}
	}
}

// StaleIDs returns the superseded storage rows collected so far. Valid
// once the reduced stream has been fully consumed.
func (r *Reducer) StaleIDs() []string {
	return r.staleIDs
}

// Skipped returns the number of documents dropped as already current.
func (r *Reducer) Skipped() int {
	return r.skipped
}
