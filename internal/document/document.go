// Package document defines the source document model flowing through the
// indexing pipeline, from loader output to vector store rows.
package document

import (
	"fmt"
	"strings"
)

// Metadata keys understood by the engine. Loaders must set KeyID plus either
// KeyUpdatedOn (record sources) or KeyCommitHash (file sources).
const (
	KeyID         = "id"
	KeyUpdatedOn  = "updated_on"
	KeyCommitHash = "commit_hash"
	KeyFilename   = "filename"
	KeyCollection = "collection"
	KeyChunkID    = "chunk_id"
	KeyParent     = "parent"
	KeyType       = "type"
)

// transientKeys are metadata keys some loaders still smuggle raw payloads
// under. The sanitizer strips them before persistence even when the loader
// also filled the Transient side-channel.
var transientKeys = []string{
	"loader_content",
	"loader_content_type",
	"chunking_tool",
}

// Payload is the transient side-channel for raw bytes and routing hints.
// It travels alongside a Document but is never persisted.
type Payload struct {
	// Data is the raw byte payload (file body, attachment bytes).
	Data []byte

	// ContentType is the declared MIME/content-type hint, if any.
	ContentType string

	// ChunkingTool is an explicit chunking tool name, if configured.
	ChunkingTool string
}

// Document is one unit of content moving through the pipeline.
type Document struct {
	Content  string
	Metadata map[string]any

	// Transient carries raw payloads and routing hints consumed by the
	// chunking pipeline. Stripped before the persistence boundary.
	Transient *Payload
}

// New creates a document with its own metadata map.
func New(content string, metadata map[string]any) *Document {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &Document{Content: content, Metadata: metadata}
}

// Clone returns a copy with an independent metadata map.
// The transient payload is shared, not copied.
func (d *Document) Clone() *Document {
	meta := make(map[string]any, len(d.Metadata))
	for k, v := range d.Metadata {
		meta[k] = v
	}
	return &Document{Content: d.Content, Metadata: meta, Transient: d.Transient}
}

// ID returns the source-defined logical identifier.
func (d *Document) ID() string {
	return MetaString(d.Metadata, KeyID)
}

// UpdatedOn returns the change-detection token for record sources.
func (d *Document) UpdatedOn() string {
	return MetaString(d.Metadata, KeyUpdatedOn)
}

// CommitHash returns the change-detection token for file sources.
func (d *Document) CommitHash() string {
	return MetaString(d.Metadata, KeyCommitHash)
}

// Filename returns the file path key for file sources.
func (d *Document) Filename() string {
	return MetaString(d.Metadata, KeyFilename)
}

// SetParent records the originating document's id on a dependent.
func (d *Document) SetParent(parentID string) {
	d.Metadata[KeyParent] = parentID
}

// StripTransient removes the payload side-channel and any metadata keys
// loaders may have used to smuggle raw content.
func (d *Document) StripTransient() {
	d.Transient = nil
	for _, k := range transientKeys {
		delete(d.Metadata, k)
	}
}

// MetaString reads a metadata value as a string. Non-string scalars
// (JSON numbers after a storage round trip) are formatted; nil and
// missing keys yield "".
func MetaString(meta map[string]any, key string) string {
	v, ok := meta[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Collection tags are kept as a semicolon-joined set in metadata so one
// physical row can be visible to multiple logical collections.
const collectionSeparator = ";"

// MaxCollectionSuffixLen bounds the collection namespace tag length.
const MaxCollectionSuffixLen = 48

// CollectionTags splits the metadata collection value into its tag set.
func CollectionTags(meta map[string]any) []string {
	return SplitCollectionTags(MetaString(meta, KeyCollection))
}

// SplitCollectionTags splits a raw semicolon-joined value into tags.
func SplitCollectionTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, collectionSeparator)
	tags := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// HasCollectionTag reports whether the metadata tag set contains tag.
func HasCollectionTag(meta map[string]any, tag string) bool {
	for _, t := range CollectionTags(meta) {
		if t == tag {
			return true
		}
	}
	return false
}

// AddCollectionTag appends tag to the metadata tag set without disturbing
// other metadata. Adding an existing tag is a no-op.
func AddCollectionTag(meta map[string]any, tag string) {
	if tag == "" || HasCollectionTag(meta, tag) {
		return
	}
	existing := MetaString(meta, KeyCollection)
	if existing == "" {
		meta[KeyCollection] = tag
		return
	}
	meta[KeyCollection] = existing + collectionSeparator + tag
}

// RemoveCollectionTag drops tag from the metadata tag set. Removing the
// last tag clears the collection key.
func RemoveCollectionTag(meta map[string]any, tag string) {
	tags := CollectionTags(meta)
	kept := tags[:0]
	for _, t := range tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(meta, KeyCollection)
		return
	}
	meta[KeyCollection] = strings.Join(kept, collectionSeparator)
}

// ValidateCollectionSuffix checks the bounded-length namespace tag. The
// character set is restricted to [a-z0-9_-]: suffixes end up in tag
// separators, lock file names and backend identifiers unescaped.
func ValidateCollectionSuffix(suffix string) error {
	if suffix == "" {
		return fmt.Errorf("collection suffix is required")
	}
	if len(suffix) > MaxCollectionSuffixLen {
		return fmt.Errorf("collection suffix exceeds %d characters: %q", MaxCollectionSuffixLen, suffix)
	}
	for _, r := range suffix {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("collection suffix may contain only lowercase letters, digits, '-' and '_': %q", suffix)
		}
	}
	return nil
}
