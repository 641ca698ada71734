// Package vstore provides the vector store adapter contract and the two
// concrete backends: a Postgres/pgvector adapter and an embedded local
// adapter (HNSW graph + SQLite rows). Adapters are selected through a
// string-keyed registry.
//
// Failure semantics: read methods (ListCollections, IndexedIDs,
// IndexedData, CodeIndexedData) log backend errors and return an empty
// result, so a flaky read degrades to a full reindex instead of aborting
// the run. Construction and write operations propagate errors.
package vstore

import (
	"context"

	"github.com/Aman-CERP/vectorsync/internal/document"
	"github.com/Aman-CERP/vectorsync/internal/embed"
)

// IndexedEntry is one logical document reconstructed from storage. One
// entry may span many storage rows (chunks); ChunkIDs tracks all of them
// so the entry can be deleted as a unit.
type IndexedEntry struct {
	// StorageID is the first row seen for this logical document.
	StorageID string

	// Metadata is the stored metadata of that first row.
	Metadata map[string]any

	// ChunkIDs lists every storage row belonging to this document.
	ChunkIDs []string

	// DependentIDs lists logical ids of documents that declared this
	// document as parent.
	DependentIDs []string

	// ParentID is this document's declared parent, if any.
	ParentID string

	// CommitHashes collects the commit hashes seen for a file-keyed
	// entry (code mode only).
	CommitHashes []string
}

// HasCommitHash reports whether hash is among the entry's recorded hashes.
func (e *IndexedEntry) HasCommitHash(hash string) bool {
	for _, h := range e.CommitHashes {
		if h == hash {
			return true
		}
	}
	return false
}

// SearchOptions controls a similarity search.
type SearchOptions struct {
	// Filter is a metadata equality filter; the owning collection
	// constraint is applied by the adapter on top of it.
	Filter map[string]any

	// Cutoff drops results scoring below this similarity (0 disables).
	Cutoff float64

	// Limit caps the result count (default: DefaultSearchLimit).
	Limit int
}

// DefaultSearchLimit caps search results when no limit is given.
const DefaultSearchLimit = 10

// SearchResult is one ranked similarity hit.
type SearchResult struct {
	StorageID string
	Content   string
	Metadata  map[string]any
	Score     float64
}

// Adapter is the backend-specific storage contract.
type Adapter interface {
	// ListCollections enumerates the distinct collection tags present.
	ListCollections(ctx context.Context) []string

	// RemoveCollection drops a collection: rows owned by it alone are
	// deleted, rows shared with other collections lose its tag.
	RemoveCollection(ctx context.Context, suffix string) error

	// IndexedIDs returns every storage id tagged with the collection.
	// An empty suffix selects every row in the store.
	IndexedIDs(ctx context.Context, suffix string) []string

	// CleanCollection removes the collection's rows like
	// RemoveCollection; the collection remains usable for saves.
	CleanCollection(ctx context.Context, suffix string) error

	// IndexedData groups rows by logical id (record mode), tracking
	// chunks, dependents and parents. An empty suffix selects the whole
	// store, which dedup uses to recognize entries indexed under other
	// collections.
	IndexedData(ctx context.Context, suffix string) map[string]*IndexedEntry

	// CodeIndexedData groups rows by filename (file mode), tracking
	// commit hashes and storage ids. An empty suffix selects the whole
	// store.
	CodeIndexedData(ctx context.Context, suffix string) map[string]*IndexedEntry

	// AddToCollection appends a collection tag to an existing entry
	// without disturbing its other metadata.
	AddToCollection(ctx context.Context, storageID, suffix string) error

	// Delete removes storage rows (and their vectors) by id. Unknown ids
	// are ignored.
	Delete(ctx context.Context, storageIDs []string) error

	// Save embeds and persists the final document batch under the
	// collection, returning the new storage ids in input order.
	Save(ctx context.Context, suffix string, docs []*document.Document) ([]string, error)

	// Search runs a similarity search scoped to the collection.
	Search(ctx context.Context, suffix, query string, opts SearchOptions) ([]*SearchResult, error)

	// Close releases backend resources. Safe to call multiple times.
	Close() error
}

// Config selects and configures a vector store backend.
type Config struct {
	// Backend is the registered backend name ("pgvector", "local").
	Backend string `yaml:"backend"`

	// ConnectionString is the backend connection secret: a Postgres DSN
	// for pgvector, a data directory for the local backend.
	ConnectionString string `yaml:"connection_string"`

	// Dimensions is the embedding dimension stored by the backend.
	Dimensions int `yaml:"dimensions"`

	// Embedder is the injected embedding capability.
	Embedder embed.Embedder `yaml:"-"`
}
