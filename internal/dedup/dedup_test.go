package dedup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/vectorsync/internal/document"
	"github.com/Aman-CERP/vectorsync/internal/vstore"
)

// fakeAdapter serves canned indexed state and records tagging calls.
type fakeAdapter struct {
	vstore.Adapter
	indexed map[string]*vstore.IndexedEntry
	code    map[string]*vstore.IndexedEntry
	tagged  []string
}

func (f *fakeAdapter) IndexedData(context.Context, string) map[string]*vstore.IndexedEntry {
	return f.indexed
}

func (f *fakeAdapter) CodeIndexedData(context.Context, string) map[string]*vstore.IndexedEntry {
	return f.code
}

func (f *fakeAdapter) AddToCollection(_ context.Context, storageID, _ string) error {
	f.tagged = append(f.tagged, storageID)
	return nil
}

func recordDoc(id, updatedOn string) *document.Document {
	return document.New("content of "+id, map[string]any{
		document.KeyID:        id,
		document.KeyUpdatedOn: updatedOn,
	})
}

func fileDoc(filename, hash string) *document.Document {
	return document.New("content of "+filename, map[string]any{
		document.KeyID:         filename,
		document.KeyFilename:   filename,
		document.KeyCommitHash: hash,
	})
}

func TestReducerEmptyIndexPassesAll(t *testing.T) {
	adapter := &fakeAdapter{}
	r := NewReducer(RecordStrategy{}, adapter, "wiki", nil)

	stream := document.FromSlice([]*document.Document{
		recordDoc("a", "t1"),
		recordDoc("b", "t2"),
	})
	out := document.Collect(r.Reduce(context.Background(), stream))

	assert.Len(t, out, 2)
	assert.Empty(t, r.StaleIDs())
	assert.Zero(t, r.Skipped())
}

func TestReducerThreeDocumentScenario(t *testing.T) {
	// One unchanged, one updated, one new: the canonical incremental run.
	adapter := &fakeAdapter{indexed: map[string]*vstore.IndexedEntry{
		"unchanged": {
			StorageID: "s1",
			ChunkIDs:  []string{"s1"},
			Metadata: map[string]any{
				document.KeyID:         "unchanged",
				document.KeyUpdatedOn:  "t1",
				document.KeyCollection: "wiki",
			},
		},
		"updated": {
			StorageID: "s2",
			ChunkIDs:  []string{"s2", "s3"},
			Metadata: map[string]any{
				document.KeyID:         "updated",
				document.KeyUpdatedOn:  "t1",
				document.KeyCollection: "wiki",
			},
		},
	}}
	r := NewReducer(RecordStrategy{}, adapter, "wiki", nil)

	stream := document.FromSlice([]*document.Document{
		recordDoc("unchanged", "t1"),
		recordDoc("updated", "t2"),
		recordDoc("new", "t1"),
	})
	out := document.Collect(r.Reduce(context.Background(), stream))

	require.Len(t, out, 2)
	assert.Equal(t, "updated", out[0].ID())
	assert.Equal(t, "new", out[1].ID())
	assert.ElementsMatch(t, []string{"s2", "s3"}, r.StaleIDs())
	assert.Equal(t, 1, r.Skipped())
	assert.Empty(t, adapter.tagged, "same-collection entry must not be retagged")
}

func TestReducerCascadesToDependentsOneLevel(t *testing.T) {
	adapter := &fakeAdapter{indexed: map[string]*vstore.IndexedEntry{
		"page": {
			StorageID:    "p1",
			ChunkIDs:     []string{"p1"},
			DependentIDs: []string{"attachment"},
			Metadata: map[string]any{
				document.KeyID:         "page",
				document.KeyUpdatedOn:  "t1",
				document.KeyCollection: "wiki",
			},
		},
		"attachment": {
			StorageID:    "a1",
			ChunkIDs:     []string{"a1", "a2"},
			ParentID:     "page",
			DependentIDs: []string{"nested"},
			Metadata: map[string]any{
				document.KeyID:     "attachment",
				document.KeyParent: "page",
			},
		},
		"nested": {
			StorageID: "n1",
			ChunkIDs:  []string{"n1"},
			ParentID:  "attachment",
			Metadata: map[string]any{
				document.KeyID:     "nested",
				document.KeyParent: "attachment",
			},
		},
	}}
	r := NewReducer(RecordStrategy{}, adapter, "wiki", nil)

	stream := document.FromSlice([]*document.Document{recordDoc("page", "t2")})
	out := document.Collect(r.Reduce(context.Background(), stream))

	require.Len(t, out, 1)
	// The page's rows and its direct dependent's rows go, but not the
	// dependent's own dependents.
	assert.ElementsMatch(t, []string{"p1", "a1", "a2"}, r.StaleIDs())
}

func TestReducerTagsForeignCollectionEntry(t *testing.T) {
	adapter := &fakeAdapter{indexed: map[string]*vstore.IndexedEntry{
		"shared": {
			StorageID: "s1",
			ChunkIDs:  []string{"s1", "s2"},
			Metadata: map[string]any{
				document.KeyID:         "shared",
				document.KeyUpdatedOn:  "t1",
				document.KeyCollection: "other",
			},
		},
	}}
	r := NewReducer(RecordStrategy{}, adapter, "wiki", nil)

	stream := document.FromSlice([]*document.Document{recordDoc("shared", "t1")})
	out := document.Collect(r.Reduce(context.Background(), stream))

	assert.Empty(t, out)
	assert.Equal(t, []string{"s1", "s2"}, adapter.tagged)
	assert.Equal(t, 1, r.Skipped())
}

func TestReducerChangedForeignEntryLeftIntact(t *testing.T) {
	// The indexed copy lives only in another collection and is outdated
	// relative to this run's document. That collection keeps its rows;
	// the document is indexed fresh here.
	adapter := &fakeAdapter{indexed: map[string]*vstore.IndexedEntry{
		"shared": {
			StorageID: "s1",
			ChunkIDs:  []string{"s1", "s2"},
			Metadata: map[string]any{
				document.KeyID:         "shared",
				document.KeyUpdatedOn:  "t1",
				document.KeyCollection: "other",
			},
		},
	}}
	r := NewReducer(RecordStrategy{}, adapter, "wiki", nil)

	stream := document.FromSlice([]*document.Document{recordDoc("shared", "t2")})
	out := document.Collect(r.Reduce(context.Background(), stream))

	require.Len(t, out, 1)
	assert.Empty(t, r.StaleIDs(), "foreign collection rows must not be deleted")
	assert.Empty(t, adapter.tagged)
	assert.Zero(t, r.Skipped())
}

func TestReducerMissingTokenReindexes(t *testing.T) {
	adapter := &fakeAdapter{indexed: map[string]*vstore.IndexedEntry{
		"doc": {
			StorageID: "s1",
			ChunkIDs:  []string{"s1"},
			Metadata: map[string]any{
				document.KeyID:         "doc",
				document.KeyUpdatedOn:  "t1",
				document.KeyCollection: "wiki",
			},
		},
	}}
	r := NewReducer(RecordStrategy{}, adapter, "wiki", nil)

	stream := document.FromSlice([]*document.Document{recordDoc("doc", "")})
	out := document.Collect(r.Reduce(context.Background(), stream))

	require.Len(t, out, 1)
	assert.Equal(t, []string{"s1"}, r.StaleIDs())
}

func TestReducerKeylessDocumentPassesThrough(t *testing.T) {
	adapter := &fakeAdapter{indexed: map[string]*vstore.IndexedEntry{
		"x": {StorageID: "s1", ChunkIDs: []string{"s1"}, Metadata: map[string]any{document.KeyID: "x"}},
	}}
	r := NewReducer(RecordStrategy{}, adapter, "wiki", nil)

	stream := document.FromSlice([]*document.Document{
		document.New("keyless content", nil),
	})
	out := document.Collect(r.Reduce(context.Background(), stream))
	assert.Len(t, out, 1)
}

func TestReducerInStreamDuplicates(t *testing.T) {
	adapter := &fakeAdapter{indexed: map[string]*vstore.IndexedEntry{
		"x": {StorageID: "s0", ChunkIDs: []string{"s0"}, Metadata: map[string]any{document.KeyID: "x"}},
	}}
	r := NewReducer(RecordStrategy{}, adapter, "wiki", nil)

	stream := document.FromSlice([]*document.Document{
		recordDoc("a", "t1"),
		recordDoc("a", "t1"),
	})
	out := document.Collect(r.Reduce(context.Background(), stream))

	assert.Len(t, out, 1)
	assert.Equal(t, 1, r.Skipped())
}

func TestFileStrategyCommitHashes(t *testing.T) {
	adapter := &fakeAdapter{code: map[string]*vstore.IndexedEntry{
		"main.go": {
			StorageID:    "s1",
			ChunkIDs:     []string{"s1", "s2"},
			CommitHashes: []string{"h1", "h2"},
			Metadata: map[string]any{
				document.KeyFilename:   "main.go",
				document.KeyCollection: "code",
			},
		},
	}}
	r := NewReducer(FileStrategy{}, adapter, "code", nil)

	stream := document.FromSlice([]*document.Document{
		fileDoc("main.go", "h2"),  // hash already recorded
		fileDoc("util.go", "h3"),  // new file
	})
	out := document.Collect(r.Reduce(context.Background(), stream))

	require.Len(t, out, 1)
	assert.Equal(t, "util.go", out[0].Filename())
	assert.Empty(t, r.StaleIDs())
}

func TestFileStrategyChangedHash(t *testing.T) {
	adapter := &fakeAdapter{code: map[string]*vstore.IndexedEntry{
		"main.go": {
			StorageID:    "s1",
			ChunkIDs:     []string{"s1", "s2"},
			CommitHashes: []string{"h1"},
			Metadata: map[string]any{
				document.KeyFilename:   "main.go",
				document.KeyCollection: "code",
			},
		},
	}}
	r := NewReducer(FileStrategy{}, adapter, "code", nil)

	stream := document.FromSlice([]*document.Document{fileDoc("main.go", "h9")})
	out := document.Collect(r.Reduce(context.Background(), stream))

	require.Len(t, out, 1)
	assert.ElementsMatch(t, []string{"s1", "s2"}, r.StaleIDs())
}

func TestReducerIsLazy(t *testing.T) {
	adapter := &fakeAdapter{}
	r := NewReducer(RecordStrategy{}, adapter, "wiki", nil)

	pulled := 0
	source := document.Stream(func(yield func(*document.Document) bool) {
		for _, id := range []string{"a", "b", "c"} {
			pulled++
			if !yield(recordDoc(id, "t1")) {
				return
			}
		}
	})

	reduced := r.Reduce(context.Background(), source)
	for doc := range reduced {
		if doc.ID() == "a" {
			break
		}
	}
	assert.Equal(t, 1, pulled)
}
