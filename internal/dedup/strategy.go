// Package dedup decides, per incoming document, whether the vector store
// already holds a current copy. It keeps unchanged documents out of the
// pipeline and marks superseded storage rows for deletion.
package dedup

import (
	"context"

	"github.com/Aman-CERP/vectorsync/internal/document"
	"github.com/Aman-CERP/vectorsync/internal/vstore"
)

// Strategy defines how documents are keyed and compared against the
// indexed state. Record sources compare a freshness token, file sources
// compare commit hashes.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// Fetch loads the indexed view of the whole store, keyed the way
	// this strategy keys documents. The view spans all collections so a
	// document already indexed elsewhere is recognized and tagged
	// instead of re-embedded.
	Fetch(ctx context.Context, adapter vstore.Adapter) map[string]*vstore.IndexedEntry

	// Key extracts the dedup key from a document. Empty means the
	// document cannot be deduplicated and must pass through.
	Key(doc *document.Document) string

	// Current reports whether the indexed entry still matches doc, i.e.
	// the document has not changed since it was indexed.
	Current(doc *document.Document, entry *vstore.IndexedEntry) bool

	// RemoveIDs lists the storage rows to delete when the entry is
	// superseded by a changed document.
	RemoveIDs(entry *vstore.IndexedEntry, indexed map[string]*vstore.IndexedEntry) []string
}

// RecordStrategy keys documents by their logical id and compares the
// updated_on token. Superseding a record also removes the rows of its
// direct dependents, since those are re-emitted with their parent.
type RecordStrategy struct{}

func (RecordStrategy) Name() string { return "record" }

func (RecordStrategy) Fetch(ctx context.Context, adapter vstore.Adapter) map[string]*vstore.IndexedEntry {
	return adapter.IndexedData(ctx, "")
}

func (RecordStrategy) Key(doc *document.Document) string {
	return doc.ID()
}

func (RecordStrategy) Current(doc *document.Document, entry *vstore.IndexedEntry) bool {
	token := doc.UpdatedOn()
	if token == "" {
		// No freshness token: always treat as changed.
		return false
	}
	return token == document.MetaString(entry.Metadata, document.KeyUpdatedOn)
}

func (RecordStrategy) RemoveIDs(entry *vstore.IndexedEntry, indexed map[string]*vstore.IndexedEntry) []string {
	ids := append([]string(nil), entry.ChunkIDs...)
	// One level only: dependents of dependents are not chased.
	for _, depID := range entry.DependentIDs {
		if dep, ok := indexed[depID]; ok {
			ids = append(ids, dep.ChunkIDs...)
		}
	}
	return ids
}

// FileStrategy keys documents by filename and treats the entry as current
// when the document's commit hash is among the hashes already stored. It
// never cascades: a file's rows stand alone.
type FileStrategy struct{}

func (FileStrategy) Name() string { return "file" }

func (FileStrategy) Fetch(ctx context.Context, adapter vstore.Adapter) map[string]*vstore.IndexedEntry {
	return adapter.CodeIndexedData(ctx, "")
}

func (FileStrategy) Key(doc *document.Document) string {
	return doc.Filename()
}

func (FileStrategy) Current(doc *document.Document, entry *vstore.IndexedEntry) bool {
	hash := doc.CommitHash()
	if hash == "" {
		return false
	}
	return entry.HasCommitHash(hash)
}

func (FileStrategy) RemoveIDs(entry *vstore.IndexedEntry, _ map[string]*vstore.IndexedEntry) []string {
	return append([]string(nil), entry.ChunkIDs...)
}

var (
	_ Strategy = RecordStrategy{}
	_ Strategy = FileStrategy{}
)
