package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaString(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]any
		key  string
		want string
	}{
		{"string value", map[string]any{"id": "42"}, "id", "42"},
		{"int value", map[string]any{"id": 42}, "id", "42"},
		{"float value from json", map[string]any{"id": 42.0}, "id", "42"},
		{"missing key", map[string]any{}, "id", ""},
		{"nil value", map[string]any{"id": nil}, "id", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MetaString(tt.meta, tt.key))
		})
	}
}

func TestClone(t *testing.T) {
	doc := New("body", map[string]any{KeyID: "1"})
	doc.Transient = &Payload{Data: []byte("raw"), ContentType: "text/plain"}

	clone := doc.Clone()
	clone.Metadata[KeyID] = "2"
	clone.Metadata["extra"] = true

	assert.Equal(t, "1", doc.ID())
	assert.NotContains(t, doc.Metadata, "extra")
	assert.Same(t, doc.Transient, clone.Transient)
}

func TestStripTransient(t *testing.T) {
	doc := New("body", map[string]any{
		KeyID:           "1",
		"loader_content": []byte{0x1, 0x2},
		"chunking_tool":  "markdown",
	})
	doc.Transient = &Payload{Data: []byte("raw")}

	doc.StripTransient()

	assert.Nil(t, doc.Transient)
	assert.NotContains(t, doc.Metadata, "loader_content")
	assert.NotContains(t, doc.Metadata, "chunking_tool")
	assert.Equal(t, "1", doc.ID())
}

func TestCollectionTags(t *testing.T) {
	meta := map[string]any{}

	AddCollectionTag(meta, "issues")
	AddCollectionTag(meta, "wiki")
	AddCollectionTag(meta, "issues") // duplicate is a no-op

	assert.Equal(t, []string{"issues", "wiki"}, CollectionTags(meta))
	assert.Equal(t, "issues;wiki", meta[KeyCollection])
	assert.True(t, HasCollectionTag(meta, "wiki"))
	assert.False(t, HasCollectionTag(meta, "wik"))
}

func TestValidateCollectionSuffix(t *testing.T) {
	require.NoError(t, ValidateCollectionSuffix("main"))
	require.NoError(t, ValidateCollectionSuffix("team_docs-v2"))
	require.Error(t, ValidateCollectionSuffix(""))
	require.Error(t, ValidateCollectionSuffix("a;b"))
	require.Error(t, ValidateCollectionSuffix("Wiki"))
	require.Error(t, ValidateCollectionSuffix("a/b"))
	require.Error(t, ValidateCollectionSuffix("../escape"))
	require.Error(t, ValidateCollectionSuffix("has space"))
	require.Error(t, ValidateCollectionSuffix(strings.Repeat("x", MaxCollectionSuffixLen+1)))
	require.NoError(t, ValidateCollectionSuffix(strings.Repeat("x", MaxCollectionSuffixLen)))
}

func TestStreamHelpers(t *testing.T) {
	docs := []*Document{
		New("a", map[string]any{KeyID: "1"}),
		New("b", map[string]any{KeyID: "2"}),
	}

	collected := Collect(FromSlice(docs))
	require.Len(t, collected, 2)
	assert.Equal(t, "a", collected[0].Content)

	both := Collect(Concat(FromSlice(docs[:1]), FromSlice(docs[1:])))
	require.Len(t, both, 2)
	assert.Equal(t, "2", both[1].ID())

	assert.Equal(t, 0, Count(Empty()))
	assert.Equal(t, 2, Count(FromSlice(docs)))
}

func TestStreamIsLazy(t *testing.T) {
	seen := 0
	src := func(yield func(*Document) bool) {
		for i := 0; i < 100; i++ {
			seen++
			if !yield(New("x", nil)) {
				return
			}
		}
	}

	// Take only the first document; the source must not run to completion.
	for range Stream(src) {
		break
	}
	assert.Equal(t, 1, seen)
}
