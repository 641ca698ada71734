package vstore

import (
	"github.com/Aman-CERP/vectorsync/internal/document"
)

// StoredRow is the backend-neutral view of one storage row used to
// reconstruct IndexedEntry maps. Both adapters produce StoredRows and
// share the grouping logic below.
type StoredRow struct {
	StorageID string
	Metadata  map[string]any
}

// BuildIndexedData groups rows by the logical id in metadata. Rows sharing
// an id are chunks of one document. Dependents are linked to their parent
// entry through the parent metadata key, one level deep.
func BuildIndexedData(rows []StoredRow) map[string]*IndexedEntry {
	entries := make(map[string]*IndexedEntry)

	for _, row := range rows {
		id := document.MetaString(row.Metadata, document.KeyID)
		if id == "" {
			continue
		}
		entry, ok := entries[id]
		if !ok {
			entry = &IndexedEntry{
				StorageID: row.StorageID,
				Metadata:  row.Metadata,
			}
			entries[id] = entry
		}
		entry.ChunkIDs = append(entry.ChunkIDs, row.StorageID)
	}

	// Second pass: register each entry with its declared parent.
	for id, entry := range entries {
		parent := document.MetaString(entry.Metadata, document.KeyParent)
		if parent == "" {
			continue
		}
		entry.ParentID = parent
		if parentEntry, ok := entries[parent]; ok && !containsString(parentEntry.DependentIDs, id) {
			parentEntry.DependentIDs = append(parentEntry.DependentIDs, id)
		}
	}

	return entries
}

// BuildCodeIndexedData groups rows by filename. Code content is identified
// by path rather than a stable record id, and carries commit hashes as its
// change-detection token.
func BuildCodeIndexedData(rows []StoredRow) map[string]*IndexedEntry {
	entries := make(map[string]*IndexedEntry)

	for _, row := range rows {
		filename := document.MetaString(row.Metadata, document.KeyFilename)
		if filename == "" {
			continue
		}
		entry, ok := entries[filename]
		if !ok {
			entry = &IndexedEntry{
				StorageID: row.StorageID,
				Metadata:  row.Metadata,
			}
			entries[filename] = entry
		}
		entry.ChunkIDs = append(entry.ChunkIDs, row.StorageID)
		if hash := document.MetaString(row.Metadata, document.KeyCommitHash); hash != "" && !containsString(entry.CommitHashes, hash) {
			entry.CommitHashes = append(entry.CommitHashes, hash)
		}
	}

	return entries
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
