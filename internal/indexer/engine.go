package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/Aman-CERP/vectorsync/internal/chunk"
	"github.com/Aman-CERP/vectorsync/internal/dedup"
	"github.com/Aman-CERP/vectorsync/internal/document"
	"github.com/Aman-CERP/vectorsync/internal/errors"
	"github.com/Aman-CERP/vectorsync/internal/vstore"
)

// DefaultProgressStep is the save-progress reporting interval in percent.
const DefaultProgressStep = 10

// ProgressFunc receives human-readable progress messages during a run.
type ProgressFunc func(message string)

// IndexRequest describes one indexing run.
type IndexRequest struct {
	// Loader produces the source documents.
	Loader Loader

	// CollectionSuffix is the target collection namespace tag.
	CollectionSuffix string

	// CleanIndex drops the collection's existing rows before indexing.
	CleanIndex bool

	// LoaderParams are passed to Loader.Load after validation against
	// the loader's declared parameter specs.
	LoaderParams map[string]any

	// ProgressStep is the save reporting interval in percent
	// (default: DefaultProgressStep).
	ProgressStep int

	// Progress receives progress messages. Nil disables reporting.
	Progress ProgressFunc
}

// IndexResult summarizes a completed run.
type IndexResult struct {
	// Indexed counts the chunks written to the store.
	Indexed int

	// Skipped counts source documents dropped as already current.
	Skipped int

	// Deleted counts superseded storage rows removed.
	Deleted int

	// StorageIDs are the ids of the newly written chunks.
	StorageIDs []string
}

// Options configures an Engine.
type Options struct {
	// Chunking sizes the chunk pipeline.
	Chunking chunk.Config

	// Rewriter generates step-back queries (default: identity).
	Rewriter QueryRewriter

	// LockDir holds the per-collection lock files
	// (default: os.TempDir()).
	LockDir string

	// Logger is the engine logger (default: slog.Default()).
	Logger *slog.Logger
}

// Engine runs indexing and search operations against one vector store
// adapter. An engine is safe for sequential use; concurrent runs against
// the same collection serialize on a per-collection file lock.
type Engine struct {
	adapter  vstore.Adapter
	pipeline *chunk.Pipeline
	rewriter QueryRewriter
	lockDir  string
	logger   *slog.Logger
}

// New builds an engine over the adapter.
func New(adapter vstore.Adapter, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rewriter := opts.Rewriter
	if rewriter == nil {
		rewriter = IdentityRewriter()
	}
	lockDir := opts.LockDir
	if lockDir == "" {
		lockDir = os.TempDir()
	}
	return &Engine{
		adapter:  adapter,
		pipeline: chunk.NewPipeline(opts.Chunking, logger),
		rewriter: rewriter,
		lockDir:  lockDir,
		logger:   logger,
	}
}

// Close releases engine resources. The adapter is not closed; its
// lifecycle belongs to the caller.
func (e *Engine) Close() {
	e.pipeline.Close()
}

// IndexData runs one incremental indexing pass.
//
// The stale-row delete and the new-row save are separate operations:
// a crash between them leaves changed documents unindexed until the
// next run, which re-detects them as missing.
func (e *Engine) IndexData(ctx context.Context, req IndexRequest) (*IndexResult, error) {
	if req.Loader == nil {
		return nil, errors.ConfigError("index request requires a loader", nil)
	}
	if err := document.ValidateCollectionSuffix(req.CollectionSuffix); err != nil {
		return nil, errors.ConfigError(err.Error(), nil)
	}
	params, err := resolveParams(req.Loader, req.LoaderParams)
	if err != nil {
		return nil, errors.ConfigError(err.Error(), nil)
	}

	unlock, err := e.lockCollection(req.CollectionSuffix)
	if err != nil {
		return nil, err
	}
	defer unlock()

	progress := req.Progress
	if progress == nil {
		progress = func(string) {}
	}
	suffix := req.CollectionSuffix

	if req.CleanIndex {
		progress(fmt.Sprintf("cleaning collection %s", suffix))
		if err := e.adapter.CleanCollection(ctx, suffix); err != nil {
			return nil, err
		}
	}

	progress(fmt.Sprintf("loading documents from %s", req.Loader.Name()))
	stream, err := req.Loader.Load(ctx, params)
	if err != nil {
		return nil, errors.New(errors.ErrCodeLoaderFailed,
			fmt.Sprintf("loader %s failed", req.Loader.Name()), err)
	}

	reducer := dedup.NewReducer(req.Loader.Strategy(), e.adapter, suffix, e.logger)
	reduced := reducer.Reduce(ctx, stream)

	if extender, ok := req.Loader.(DataExtender); ok {
		reduced = extender.ExtendData(ctx, reduced)
	}

	collected := collectDependencies(ctx, req.Loader, reduced, e.logger)
	chunked := e.pipeline.Process(collected)

	// Materialize: the stream must be fully drained before StaleIDs is
	// read and before any write touches the store.
	docs := document.Collect(chunked)
	for _, doc := range docs {
		doc.StripTransient()
	}

	staleIDs := reducer.StaleIDs()
	if len(staleIDs) > 0 {
		progress(fmt.Sprintf("removing %d superseded chunks", len(staleIDs)))
		if err := e.adapter.Delete(ctx, staleIDs); err != nil {
			return nil, err
		}
	}

	result := &IndexResult{
		Skipped: reducer.Skipped(),
		Deleted: len(staleIDs),
	}
	if len(docs) == 0 {
		progress("nothing to index")
		return result, nil
	}

	progress(fmt.Sprintf("indexing %d chunks into %s", len(docs), suffix))
	storageIDs, err := e.saveWithProgress(ctx, suffix, docs, req.ProgressStep, progress)
	if err != nil {
		return nil, err
	}

	result.Indexed = len(storageIDs)
	result.StorageIDs = storageIDs
	progress(fmt.Sprintf("indexed %d chunks, removed %d, skipped %d unchanged",
		result.Indexed, result.Deleted, result.Skipped))

	e.logger.Info("indexing run complete",
		slog.String("loader", req.Loader.Name()),
		slog.String("collection", suffix),
		slog.Int("indexed", result.Indexed),
		slog.Int("deleted", result.Deleted),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

// saveWithProgress writes docs in slices sized to the progress step so a
// message can be emitted between writes.
func (e *Engine) saveWithProgress(ctx context.Context, suffix string, docs []*document.Document, step int, progress ProgressFunc) ([]string, error) {
	if step <= 0 || step > 100 {
		step = DefaultProgressStep
	}
	batchSize := len(docs) * step / 100
	if batchSize < 1 {
		batchSize = 1
	}

	storageIDs := make([]string, 0, len(docs))
	for start := 0; start < len(docs); start += batchSize {
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		ids, err := e.adapter.Save(ctx, suffix, docs[start:end])
		if err != nil {
			return nil, err
		}
		storageIDs = append(storageIDs, ids...)
		progress(fmt.Sprintf("indexed %d/%d chunks (%d%%)",
			len(storageIDs), len(docs), len(storageIDs)*100/len(docs)))
	}
	return storageIDs, nil
}

// RemoveIndex drops a collection entirely.
func (e *Engine) RemoveIndex(ctx context.Context, suffix string) error {
	if err := document.ValidateCollectionSuffix(suffix); err != nil {
		return errors.ConfigError(err.Error(), nil)
	}
	unlock, err := e.lockCollection(suffix)
	if err != nil {
		return err
	}
	defer unlock()
	return e.adapter.RemoveCollection(ctx, suffix)
}

// ListCollections enumerates the collections present in the store.
func (e *Engine) ListCollections(ctx context.Context) []string {
	return e.adapter.ListCollections(ctx)
}

// lockCollection takes the cross-process lock for one collection.
func (e *Engine) lockCollection(suffix string) (func(), error) {
	path := filepath.Join(e.lockDir, "vectorsync-"+suffix+".lock")
	lock := flock.New(path)
	if err := lock.Lock(); err != nil {
		return nil, errors.StoreError(fmt.Sprintf("lock collection %s", suffix), err)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			e.logger.Warn("failed to release collection lock",
				slog.String("collection", suffix),
				slog.String("error", err.Error()))
		}
	}, nil
}
