package vstore

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/coder/hnsw"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Aman-CERP/vectorsync/internal/document"
	"github.com/Aman-CERP/vectorsync/internal/embed"
	"github.com/Aman-CERP/vectorsync/internal/errors"
)

// BackendLocal is the embedded backend: SQLite rows + an HNSW graph
// persisted next to them. ConnectionString is the data directory.
const BackendLocal = "local"

func init() {
	Register(BackendLocal, func(cfg Config) (Adapter, error) {
		return OpenLocal(cfg)
	})
}

const (
	localDBFile     = "entries.db"
	localVectorFile = "vectors.hnsw"
)

const localSchema = `
CREATE TABLE IF NOT EXISTS entries (
	id         TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	metadata   TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_entries_collection ON entries(collection);
`

// LocalAdapter stores rows in SQLite and vectors in a pure-Go HNSW graph.
// Deleted vectors are dropped lazily: the graph node stays behind but its
// id mapping is removed, so it can never surface in results.
type LocalAdapter struct {
	mu       sync.RWMutex
	db       *sql.DB
	embedder embed.Embedder
	dataDir  string
	dims     int

	graph   *hnsw.Graph[uint64]
	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64

	closed bool
}

// localMeta persists the id mappings alongside the exported graph.
type localMeta struct {
	IDMap      map[string]uint64
	NextKey    uint64
	Dimensions int
}

// OpenLocal opens (or creates) an embedded store in cfg.ConnectionString.
func OpenLocal(cfg Config) (*LocalAdapter, error) {
	dataDir := cfg.ConnectionString
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("create data directory %s", dataDir), err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, localDBFile))
	if err != nil {
		return nil, errors.ConfigError("open sqlite database", err)
	}
	if _, err := db.Exec(localSchema); err != nil {
		_ = db.Close()
		return nil, errors.ConfigError("apply sqlite schema", err)
	}

	a := &LocalAdapter{
		db:       db,
		embedder: cfg.Embedder,
		dataDir:  dataDir,
		dims:     cfg.Dimensions,
		graph:    newGraph(),
		idMap:    make(map[string]uint64),
		keyMap:   make(map[uint64]string),
	}

	if err := a.loadVectors(); err != nil {
		_ = db.Close()
		return nil, errors.ConfigError("load vector index", err)
	}
	return a, nil
}

func newGraph() *hnsw.Graph[uint64] {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 32
	g.Ml = 0.25
	return g
}

// ListCollections enumerates the distinct tags over all rows.
func (a *LocalAdapter) ListCollections(ctx context.Context) []string {
	rows := a.loadRows(ctx, "")
	set := make(map[string]bool)
	for _, row := range rows {
		for _, tag := range document.CollectionTags(row.Metadata) {
			set[tag] = true
		}
	}
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// RemoveCollection drops a collection, untagging rows shared with other
// collections and deleting the rest.
func (a *LocalAdapter) RemoveCollection(ctx context.Context, suffix string) error {
	return a.CleanCollection(ctx, suffix)
}

// CleanCollection removes the collection's rows. Rows also tagged with
// another collection only lose this collection's tag.
func (a *LocalAdapter) CleanCollection(ctx context.Context, suffix string) error {
	if suffix == "" {
		return errors.StoreError("collection suffix is required", nil)
	}

	var deleteIDs []string
	for _, row := range a.loadRows(ctx, suffix) {
		if len(document.CollectionTags(row.Metadata)) > 1 {
			document.RemoveCollectionTag(row.Metadata, suffix)
			if err := a.updateMetadata(ctx, row.StorageID, row.Metadata); err != nil {
				return err
			}
			continue
		}
		deleteIDs = append(deleteIDs, row.StorageID)
	}
	return a.Delete(ctx, deleteIDs)
}

// IndexedIDs returns all storage ids tagged with the collection.
func (a *LocalAdapter) IndexedIDs(ctx context.Context, suffix string) []string {
	rows := a.loadRows(ctx, suffix)
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.StorageID)
	}
	return ids
}

// IndexedData reconstructs record-keyed entries for the collection.
func (a *LocalAdapter) IndexedData(ctx context.Context, suffix string) map[string]*IndexedEntry {
	return BuildIndexedData(a.loadRows(ctx, suffix))
}

// CodeIndexedData reconstructs filename-keyed entries for the collection.
func (a *LocalAdapter) CodeIndexedData(ctx context.Context, suffix string) map[string]*IndexedEntry {
	return BuildCodeIndexedData(a.loadRows(ctx, suffix))
}

// AddToCollection appends a collection tag to an existing row's tag set.
func (a *LocalAdapter) AddToCollection(ctx context.Context, storageID, suffix string) error {
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return fmt.Errorf("adapter is closed")
	}
	var raw string
	err := a.db.QueryRowContext(ctx, `SELECT metadata FROM entries WHERE id = ?`, storageID).Scan(&raw)
	a.mu.RUnlock()
	if err == sql.ErrNoRows {
		return errors.StoreError(fmt.Sprintf("entry %s not found", storageID), nil)
	}
	if err != nil {
		return errors.StoreError("read entry metadata", err)
	}

	meta := make(map[string]any)
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return errors.StoreError("decode entry metadata", err)
	}
	document.AddCollectionTag(meta, suffix)
	return a.updateMetadata(ctx, storageID, meta)
}

func (a *LocalAdapter) updateMetadata(ctx context.Context, storageID string, meta map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("adapter is closed")
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return errors.StoreError("encode entry metadata", err)
	}
	_, err = a.db.ExecContext(ctx,
		`UPDATE entries SET metadata = ?, collection = ? WHERE id = ?`,
		string(encoded), document.MetaString(meta, document.KeyCollection), storageID)
	if err != nil {
		return errors.StoreError("update entry metadata", err)
	}
	return nil
}

// Delete removes rows and their vectors. Unknown ids are ignored.
func (a *LocalAdapter) Delete(ctx context.Context, storageIDs []string) error {
	if len(storageIDs) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("adapter is closed")
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.StoreError("begin delete", err)
	}
	for _, id := range storageIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
			_ = tx.Rollback()
			return errors.StoreError("delete entry", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.StoreError("commit delete", err)
	}

	for _, id := range storageIDs {
		if key, ok := a.idMap[id]; ok {
			delete(a.keyMap, key)
			delete(a.idMap, id)
		}
	}
	return a.persistVectors()
}

// Save embeds the batch and persists rows + vectors under the collection.
func (a *LocalAdapter) Save(ctx context.Context, suffix string, docs []*document.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	vectors, err := a.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, errors.StoreError("embed batch", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, fmt.Errorf("adapter is closed")
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.StoreError("begin save", err)
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		if !document.HasCollectionTag(doc.Metadata, suffix) {
			document.AddCollectionTag(doc.Metadata, suffix)
		}
		encoded, err := json.Marshal(doc.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return nil, errors.StoreError("encode metadata", err)
		}

		id := uuid.NewString()
		ids[i] = id
		_, err = tx.ExecContext(ctx,
			`INSERT INTO entries (id, collection, content, metadata) VALUES (?, ?, ?, ?)`,
			id, document.MetaString(doc.Metadata, document.KeyCollection), doc.Content, string(encoded))
		if err != nil {
			_ = tx.Rollback()
			return nil, errors.StoreError("insert entry", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.StoreError("commit save", err)
	}

	for i, id := range ids {
		key := a.nextKey
		a.nextKey++
		a.graph.Add(hnsw.MakeNode(key, vectors[i]))
		a.idMap[id] = key
		a.keyMap[key] = id
	}
	if err := a.persistVectors(); err != nil {
		return ids, err
	}
	return ids, nil
}

// Search embeds the query and returns collection-scoped ranked hits.
func (a *LocalAdapter) Search(ctx context.Context, suffix, query string, opts SearchOptions) ([]*SearchResult, error) {
	queryVec, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.QueryError("embed query", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	rowSet := make(map[string]StoredRow)
	contents := make(map[string]string)
	for _, row := range a.loadRowsWithContent(ctx, suffix, contents) {
		rowSet[row.StorageID] = row
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, fmt.Errorf("adapter is closed")
	}
	if a.graph.Len() == 0 {
		return nil, nil
	}

	// Over-fetch: lazily deleted nodes and rows outside the collection
	// are filtered after the graph search.
	k := limit * 4
	if k < 20 {
		k = 20
	}

	var results []*SearchResult
	for _, node := range a.graph.Search(queryVec, k) {
		id, ok := a.keyMap[node.Key]
		if !ok {
			continue
		}
		row, ok := rowSet[id]
		if !ok {
			continue
		}
		if !matchesFilter(row.Metadata, opts.Filter) {
			continue
		}
		distance := a.graph.Distance(queryVec, node.Value)
		score := 1.0 - float64(distance)/2.0
		if opts.Cutoff > 0 && score < opts.Cutoff {
			continue
		}
		results = append(results, &SearchResult{
			StorageID: id,
			Content:   contents[id],
			Metadata:  row.Metadata,
			Score:     score,
		})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Close persists vectors and closes the database. Safe to call twice.
func (a *LocalAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	persistErr := a.persistVectorsLocked()
	closeErr := a.db.Close()
	if persistErr != nil {
		return persistErr
	}
	return closeErr
}

var _ Adapter = (*LocalAdapter)(nil)

// loadRows fetches rows (metadata only), filtered to a collection tag when
// suffix is non-empty. Backend errors are logged and yield an empty slice.
func (a *LocalAdapter) loadRows(ctx context.Context, suffix string) []StoredRow {
	return a.loadRowsWithContent(ctx, suffix, nil)
}

func (a *LocalAdapter) loadRowsWithContent(ctx context.Context, suffix string, contents map[string]string) []StoredRow {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil
	}

	rows, err := a.db.QueryContext(ctx, `SELECT id, content, metadata FROM entries ORDER BY rowid`)
	if err != nil {
		slog.Warn("failed to read indexed entries, treating index as empty",
			slog.String("error", err.Error()))
		return nil
	}
	defer rows.Close()

	var result []StoredRow
	for rows.Next() {
		var id, content, raw string
		if err := rows.Scan(&id, &content, &raw); err != nil {
			slog.Warn("failed to scan entry row", slog.String("error", err.Error()))
			continue
		}
		meta := make(map[string]any)
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			slog.Warn("failed to decode entry metadata",
				slog.String("storage_id", id),
				slog.String("error", err.Error()))
			continue
		}
		if suffix != "" && !document.HasCollectionTag(meta, suffix) {
			continue
		}
		if contents != nil {
			contents[id] = content
		}
		result = append(result, StoredRow{StorageID: id, Metadata: meta})
	}
	if err := rows.Err(); err != nil {
		slog.Warn("failed iterating entry rows", slog.String("error", err.Error()))
	}
	return result
}

func matchesFilter(meta map[string]any, filter map[string]any) bool {
	for k, v := range filter {
		if document.MetaString(meta, k) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

// persistVectors assumes a.mu is held.
func (a *LocalAdapter) persistVectors() error {
	return a.persistVectorsLocked()
}

func (a *LocalAdapter) persistVectorsLocked() error {
	path := filepath.Join(a.dataDir, localVectorFile)

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return errors.StoreError("create vector file", err)
	}
	if err := a.graph.Export(file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return errors.StoreError("export vector graph", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.StoreError("close vector file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.StoreError("rename vector file", err)
	}

	metaPath := path + ".meta"
	tmpMeta := metaPath + ".tmp"
	metaFile, err := os.Create(tmpMeta)
	if err != nil {
		return errors.StoreError("create vector metadata", err)
	}
	meta := localMeta{IDMap: a.idMap, NextKey: a.nextKey, Dimensions: a.dims}
	if err := gob.NewEncoder(metaFile).Encode(meta); err != nil {
		_ = metaFile.Close()
		_ = os.Remove(tmpMeta)
		return errors.StoreError("encode vector metadata", err)
	}
	if err := metaFile.Close(); err != nil {
		_ = os.Remove(tmpMeta)
		return errors.StoreError("close vector metadata", err)
	}
	return os.Rename(tmpMeta, metaPath)
}

func (a *LocalAdapter) loadVectors() error {
	path := filepath.Join(a.dataDir, localVectorFile)
	metaFile, err := os.Open(path + ".meta")
	if os.IsNotExist(err) {
		return nil // fresh store
	}
	if err != nil {
		return err
	}
	defer metaFile.Close()

	var meta localMeta
	if err := gob.NewDecoder(metaFile).Decode(&meta); err != nil {
		return fmt.Errorf("decode vector metadata: %w", err)
	}
	if meta.Dimensions != 0 && a.dims != 0 && meta.Dimensions != a.dims {
		return fmt.Errorf("vector index dimension %d does not match configured %d", meta.Dimensions, a.dims)
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// hnsw Import requires an io.ByteReader.
	if err := a.graph.Import(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("import vector graph: %w", err)
	}

	a.idMap = meta.IDMap
	a.nextKey = meta.NextKey
	a.keyMap = make(map[uint64]string, len(meta.IDMap))
	for id, key := range a.idMap {
		a.keyMap[key] = id
	}
	return nil
}
