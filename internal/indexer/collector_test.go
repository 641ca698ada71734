package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/vectorsync/internal/document"
)

// failingDepsLoader errors from the dependents hook for one document id.
type failingDepsLoader struct {
	fakeLoader
	failFor string
}

func (l *failingDepsLoader) ProcessDocument(ctx context.Context, doc *document.Document) (document.Stream, error) {
	if doc.ID() == l.failFor {
		return nil, fmt.Errorf("dependents unavailable")
	}
	return l.fakeLoader.ProcessDocument(ctx, doc)
}

func TestCollectDependenciesInterleavesParentFirst(t *testing.T) {
	loader := &fakeLoader{
		deps: map[string][]*document.Document{
			"p1": {
				document.New("child a", map[string]any{document.KeyID: "c1"}),
				document.New("child b", map[string]any{document.KeyID: "c2"}),
			},
		},
	}

	stream := document.FromSlice([]*document.Document{
		record("p1", "t1", "parent one"),
		record("p2", "t1", "parent two"),
	})
	out := document.Collect(collectDependencies(context.Background(), loader, stream, slog.Default()))

	require.Len(t, out, 4)
	assert.Equal(t, "p1", out[0].ID())
	assert.Equal(t, "c1", out[1].ID())
	assert.Equal(t, "c2", out[2].ID())
	assert.Equal(t, "p2", out[3].ID())

	assert.Equal(t, "p1", document.MetaString(out[1].Metadata, document.KeyParent))
	assert.Equal(t, "p1", document.MetaString(out[2].Metadata, document.KeyParent))
	assert.Empty(t, document.MetaString(out[0].Metadata, document.KeyParent))
}

func TestCollectDependenciesHookFailureKeepsParent(t *testing.T) {
	loader := &failingDepsLoader{failFor: "p1"}
	loader.deps = map[string][]*document.Document{
		"p2": {document.New("child", map[string]any{document.KeyID: "c1"})},
	}

	stream := document.FromSlice([]*document.Document{
		record("p1", "t1", "parent one"),
		record("p2", "t1", "parent two"),
	})
	out := document.Collect(collectDependencies(context.Background(), loader, stream, slog.Default()))

	require.Len(t, out, 3)
	assert.Equal(t, "p1", out[0].ID())
	assert.Equal(t, "p2", out[1].ID())
	assert.Equal(t, "c1", out[2].ID())
}
