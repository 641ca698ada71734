package vstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Aman-CERP/vectorsync/internal/document"
	"github.com/Aman-CERP/vectorsync/internal/embed"
	"github.com/Aman-CERP/vectorsync/internal/errors"
)

// BackendPgvector is the Postgres backend. ConnectionString is a DSN.
const BackendPgvector = "pgvector"

func init() {
	Register(BackendPgvector, func(cfg Config) (Adapter, error) {
		return OpenPgvector(cfg)
	})
}

const saveBatchSize = 100

// entryRow is the gorm model for one stored chunk. The collection column
// duplicates the semicolon-joined tag set from metadata so membership can
// be checked in SQL without unpacking jsonb.
type entryRow struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Collection string            `gorm:"type:text;not null;index"`
	Content    string            `gorm:"type:text;not null"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb"`
	Embedding  pgvector.Vector   `gorm:"type:vector"`
}

func (entryRow) TableName() string {
	return "vs_entries"
}

// collectionClause matches rows whose tag set contains the suffix. Tags are
// joined with ';', so wrapping both sides in delimiters gives exact-token
// matching without a join table.
const collectionClause = `(';' || collection || ';') LIKE ('%;' || ? || ';%')`

// PgvectorAdapter stores rows and embeddings in Postgres with the pgvector
// extension, using cosine distance for similarity.
type PgvectorAdapter struct {
	db       *gorm.DB
	embedder embed.Embedder
	dims     int

	closeOnce sync.Once
	closeErr  error
}

// OpenPgvector connects to Postgres, enables the vector extension and
// creates the entries table if missing.
func OpenPgvector(cfg Config) (*PgvectorAdapter, error) {
	db, err := gorm.Open(postgres.Open(cfg.ConnectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.StoreError("connect to postgres", err)
	}

	a := &PgvectorAdapter{db: db, embedder: cfg.Embedder, dims: cfg.Dimensions}
	if err := a.migrate(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *PgvectorAdapter) migrate() error {
	if err := a.db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`).Error; err != nil {
		return errors.StoreError("enable pgvector extension", err)
	}
	// The vector column needs an explicit dimension, which gorm tags cannot
	// parameterize, so the table is created with raw DDL.
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS vs_entries (
		id         uuid PRIMARY KEY,
		collection text NOT NULL,
		content    text NOT NULL,
		metadata   jsonb,
		embedding  vector(%d)
	)`, a.dims)
	if err := a.db.Exec(ddl).Error; err != nil {
		return errors.StoreError("create entries table", err)
	}
	if err := a.db.Exec(`CREATE INDEX IF NOT EXISTS idx_vs_entries_collection ON vs_entries (collection)`).Error; err != nil {
		return errors.StoreError("create collection index", err)
	}
	return nil
}

// ListCollections enumerates the distinct tags over all rows.
func (a *PgvectorAdapter) ListCollections(ctx context.Context) []string {
	var joined []string
	err := a.db.WithContext(ctx).Model(&entryRow{}).
		Distinct("collection").Pluck("collection", &joined).Error
	if err != nil {
		slog.Warn("failed to list collections", slog.String("error", err.Error()))
		return nil
	}

	set := make(map[string]bool)
	for _, value := range joined {
		for _, tag := range document.SplitCollectionTags(value) {
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
func (a *PgvectorAdapter) RemoveCollection(ctx context.Context, suffix string) error {
	return a.CleanCollection(ctx, suffix)
}

// CleanCollection removes the collection's rows. Rows also tagged with
// another collection only lose this collection's tag.
func (a *PgvectorAdapter) CleanCollection(ctx context.Context, suffix string) error {
	if suffix == "" {
		return errors.StoreError("collection suffix is required", nil)
	}

	var rows []entryRow
	err := a.db.WithContext(ctx).
		Select("id", "metadata").
		Where(collectionClause, suffix).
		Find(&rows).Error
	if err != nil {
		return errors.StoreError("read collection rows", err)
	}

	var deleteIDs []string
	for _, row := range rows {
		meta := map[string]any(row.Metadata)
		if len(document.CollectionTags(meta)) > 1 {
			document.RemoveCollectionTag(meta, suffix)
			err := a.db.WithContext(ctx).Model(&entryRow{}).
				Where("id = ?", row.ID).
				Updates(map[string]any{
					"metadata":   datatypes.JSONMap(meta),
					"collection": document.MetaString(meta, document.KeyCollection),
				}).Error
			if err != nil {
				return errors.StoreError("untag shared entry", err)
			}
			continue
		}
		deleteIDs = append(deleteIDs, row.ID.String())
	}
	return a.Delete(ctx, deleteIDs)
}

// IndexedIDs returns all storage ids tagged with the collection. An
// empty suffix selects every row.
func (a *PgvectorAdapter) IndexedIDs(ctx context.Context, suffix string) []string {
	var ids []string
	err := a.scoped(ctx, suffix).Model(&entryRow{}).
		Pluck("id", &ids).Error
	if err != nil {
		slog.Warn("failed to list indexed ids, treating index as empty",
			slog.String("collection", suffix),
			slog.String("error", err.Error()))
		return nil
	}
	return ids
}

// IndexedData reconstructs record-keyed entries for the collection.
func (a *PgvectorAdapter) IndexedData(ctx context.Context, suffix string) map[string]*IndexedEntry {
	return BuildIndexedData(a.loadRows(ctx, suffix))
}

// CodeIndexedData reconstructs filename-keyed entries for the collection.
func (a *PgvectorAdapter) CodeIndexedData(ctx context.Context, suffix string) map[string]*IndexedEntry {
	return BuildCodeIndexedData(a.loadRows(ctx, suffix))
}

// AddToCollection appends a collection tag to an existing row's tag set.
func (a *PgvectorAdapter) AddToCollection(ctx context.Context, storageID, suffix string) error {
	rowID, err := uuid.Parse(storageID)
	if err != nil {
		return errors.StoreError(fmt.Sprintf("invalid storage id %q", storageID), err)
	}

	var row entryRow
	if err := a.db.WithContext(ctx).First(&row, "id = ?", rowID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.StoreError(fmt.Sprintf("entry %s not found", storageID), nil)
		}
		return errors.StoreError("read entry", err)
	}

	meta := map[string]any(row.Metadata)
	document.AddCollectionTag(meta, suffix)

	err = a.db.WithContext(ctx).Model(&entryRow{}).
		Where("id = ?", rowID).
		Updates(map[string]any{
			"metadata":   datatypes.JSONMap(meta),
			"collection": document.MetaString(meta, document.KeyCollection),
		}).Error
	if err != nil {
		return errors.StoreError("update entry tags", err)
	}
	return nil
}

// Delete removes storage rows by id. Unknown ids are ignored.
func (a *PgvectorAdapter) Delete(ctx context.Context, storageIDs []string) error {
	if len(storageIDs) == 0 {
		return nil
	}
	err := a.db.WithContext(ctx).
		Where("id IN ?", storageIDs).
		Delete(&entryRow{}).Error
	if err != nil {
		return errors.StoreError("delete entries", err)
	}
	return nil
}

// Save embeds the batch and inserts rows under the collection.
func (a *PgvectorAdapter) Save(ctx context.Context, suffix string, docs []*document.Document) ([]string, error) {
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

	rows := make([]*entryRow, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		if !document.HasCollectionTag(doc.Metadata, suffix) {
			document.AddCollectionTag(doc.Metadata, suffix)
		}
		id := uuid.New()
		ids[i] = id.String()
		rows[i] = &entryRow{
			ID:         id,
			Collection: document.MetaString(doc.Metadata, document.KeyCollection),
			Content:    doc.Content,
			Metadata:   datatypes.JSONMap(doc.Metadata),
			Embedding:  pgvector.NewVector(vectors[i]),
		}
	}

	if err := a.db.WithContext(ctx).CreateInBatches(rows, saveBatchSize).Error; err != nil {
		return nil, errors.StoreError("insert entries", err)
	}
	return ids, nil
}

// Search embeds the query and ranks the collection's rows by cosine
// similarity, applying the metadata filter and cutoff in SQL.
func (a *PgvectorAdapter) Search(ctx context.Context, suffix, query string, opts SearchOptions) ([]*SearchResult, error) {
	queryVec, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.QueryError("embed query", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	vector := pgvector.NewVector(queryVec)

	type scoredRow struct {
		entryRow
		Similarity float64
	}
	var rows []scoredRow

	// Cosine distance is 1 - similarity, so similarity = 1 - (a <=> b).
	tx := a.db.WithContext(ctx).Table("vs_entries").
		Select("vs_entries.*, 1 - (embedding <=> ?) AS similarity", vector).
		Where(collectionClause, suffix)
	for key, value := range opts.Filter {
		tx = tx.Where("metadata->>? = ?", key, fmt.Sprint(value))
	}
	if opts.Cutoff > 0 {
		tx = tx.Where("1 - (embedding <=> ?) >= ?", vector, opts.Cutoff)
	}
	err = tx.Order("similarity DESC").Limit(limit).Scan(&rows).Error
	if err != nil {
		return nil, errors.QueryError("similarity search", err)
	}

	results := make([]*SearchResult, len(rows))
	for i, row := range rows {
		results[i] = &SearchResult{
			StorageID: row.ID.String(),
			Content:   row.Content,
			Metadata:  map[string]any(row.Metadata),
			Score:     row.Similarity,
		}
	}
	return results, nil
}

// Close releases the underlying connection pool. Safe to call twice.
func (a *PgvectorAdapter) Close() error {
	a.closeOnce.Do(func() {
		sqlDB, err := a.db.DB()
		if err != nil {
			a.closeErr = err
			return
		}
		a.closeErr = sqlDB.Close()
	})
	return a.closeErr
}

var _ Adapter = (*PgvectorAdapter)(nil)

// scoped starts a query limited to the collection; an empty suffix
// selects the whole table.
func (a *PgvectorAdapter) scoped(ctx context.Context, suffix string) *gorm.DB {
	tx := a.db.WithContext(ctx)
	if suffix != "" {
		tx = tx.Where(collectionClause, suffix)
	}
	return tx
}

// loadRows fetches id+metadata rows for the collection. Backend errors are
// logged and yield an empty slice.
func (a *PgvectorAdapter) loadRows(ctx context.Context, suffix string) []StoredRow {
	var rows []entryRow
	err := a.scoped(ctx, suffix).
		Select("id", "metadata").
		Find(&rows).Error
	if err != nil {
		slog.Warn("failed to read indexed entries, treating index as empty",
			slog.String("collection", suffix),
			slog.String("error", err.Error()))
		return nil
	}

	result := make([]StoredRow, 0, len(rows))
	for _, row := range rows {
		meta := map[string]any(row.Metadata)
		if meta == nil {
			meta = make(map[string]any)
		}
		result = append(result, StoredRow{StorageID: row.ID.String(), Metadata: meta})
	}
	return result
}
