package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"

	"github.com/Aleph-Alpha/pgsearch/pkg/embedding"
	"github.com/Aleph-Alpha/pgsearch/pkg/fieldmap"
	"github.com/Aleph-Alpha/pgsearch/pkg/metrics"
	"github.com/Aleph-Alpha/pgsearch/pkg/postgres"
	"github.com/Aleph-Alpha/pgsearch/pkg/schema"
)

// Logger defines the interface for logging operations within the indexer package.
//
//go:generate mockgen -source=indexer.go -destination=mock_indexer.go -package=indexer
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Database is the slice of the database connector the Indexer needs.
// *postgres.Postgres satisfies it.
type Database interface {
	WithTransaction(ctx context.Context, fn func(tx postgres.Runner) error) error
	ExecRaw(ctx context.Context, sql string) error
}

// Item is one unit of content to index. Values is keyed by field ID; missing
// fields are stored as NULL.
type Item struct {
	ID         string
	Datasource string
	Language   string
	Values     map[string]any
}

// Indexer writes items into index tables.
type Indexer struct {
	cfg      Config
	db       Database
	provider embedding.Provider
	prefix   string
	logger   Logger

	// metrics is optional; nil disables instrumentation.
	metrics *metrics.Metrics
}

// NewIndexer constructs an Indexer. The provider may be nil, in which case
// items are indexed without embeddings even on vector-capable indexes.
// Metrics may be nil.
func NewIndexer(cfg Config, schemaCfg schema.Config, db Database, provider embedding.Provider, logger Logger, m *metrics.Metrics) *Indexer {
	prefix := schemaCfg.TablePrefix
	if prefix == "" {
		prefix = "search_api_"
	}
	return &Indexer{cfg: cfg.withDefaults(), db: db, provider: provider, prefix: prefix, logger: logger, metrics: m}
}

// row is one item after field conversion, ready to upsert.
type row struct {
	item   Item
	params map[string]any
	// embedText is the concatenated embedding source text, empty when the
	// item contributes nothing to embed.
	embedText string
	vector    []float32
}

// IndexItems upserts the given items and returns the IDs of those actually
// written. Items whose field values cannot be converted are skipped and
// logged; embedding failures degrade the affected items to rows without a
// vector. The returned error is non-nil only when the transaction itself
// fails, in which case nothing was written.
func (ix *Indexer) IndexItems(ctx context.Context, index *schema.Index, items []Item) ([]string, error) {
	if err := index.Validate(); err != nil {
		return nil, err
	}
	table, err := index.TableName(ix.prefix)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	rows := ix.convertItems(index, items)
	if len(rows) == 0 {
		return nil, nil
	}

	if index.HasVector() && ix.provider != nil {
		if err := ix.embedRows(ctx, index, rows); err != nil {
			return nil, err
		}
	}

	columns := upsertColumns(index)
	sql := upsertSQL(table.Quoted(), columns)

	indexed := make([]string, 0, len(rows))
	err = ix.db.WithTransaction(ctx, func(tx postgres.Runner) error {
		for _, r := range rows {
			if index.HasVector() {
				if r.vector != nil {
					r.params[schema.ColumnEmbedding] = pgvector.NewVector(r.vector)
				} else {
					r.params[schema.ColumnEmbedding] = nil
				}
			}
			if _, err := tx.ExecuteStatement(ctx, sql, r.params); err != nil {
				return fmt.Errorf("indexer: upserting item %q: %w", r.item.ID, err)
			}
			indexed = append(indexed, r.item.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if ix.metrics != nil {
		ix.metrics.AddIndexedItems(index.ID, "index", len(indexed))
	}
	return indexed, nil
}

// convertItems lowers item values into storage form. Items with invalid IDs
// or unconvertible values are dropped, not fatal.
func (ix *Indexer) convertItems(index *schema.Index, items []Item) []*row {
	rows := make([]*row, 0, len(items))

itemLoop:
	for _, item := range items {
		if item.ID == "" {
			ix.logger.Error("skipping item with empty id", nil, map[string]interface{}{"index": index.ID})
			continue
		}

		params := map[string]any{
			schema.ColumnItemID:     item.ID,
			schema.ColumnDatasource: item.Datasource,
			schema.ColumnLanguage:   item.Language,
		}
		for _, fieldID := range index.FieldIDs() {
			field := index.Fields[fieldID]
			value, present := item.Values[fieldID]
			if !present || value == nil {
				params[fieldID] = nil
				continue
			}
			stored, err := fieldmap.ToStorage(value, field.Type)
			if err == nil && field.Type == fieldmap.TypeVector {
				err = validateVectorLiteral(stored, index.VectorDimension)
			}
			if err != nil {
				ix.logger.Error("skipping item with unconvertible field value", err, map[string]interface{}{
					"index": index.ID,
					"item":  item.ID,
					"field": fieldID,
				})
				continue itemLoop
			}
			params[fieldID] = stored
		}

		r := &row{item: item, params: params}
		if index.HasVector() {
			r.embedText = fieldmap.EmbeddingText(item.Values, index.EmbeddingSourceFields())
		}
		rows = append(rows, r)
	}

	return rows
}

// validateVectorLiteral checks a converted vector value against the index
// dimension, so a wrong-length vector fails before the INSERT instead of
// aborting the transaction mid-flight.
func validateVectorLiteral(stored any, dimension int) error {
	literal, ok := stored.(string)
	if !ok {
		return fmt.Errorf("indexer: unexpected vector storage type %T", stored)
	}
	vec, err := fieldmap.ParseVector(literal)
	if err != nil {
		return err
	}
	return fieldmap.ValidateDimension(vec, dimension)
}

// embedRows fetches embeddings for all rows with source text, in concurrent
// batches. Provider failures leave the batch's rows without a vector; only
// context cancellation aborts.
func (ix *Indexer) embedRows(ctx context.Context, index *schema.Index, rows []*row) error {
	var pending []*row
	for _, r := range rows {
		if r.embedText != "" {
			pending = append(pending, r)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.EmbeddingConcurrency)

	for start := 0; start < len(pending); start += ix.cfg.EmbeddingBatchSize {
		batch := pending[start:min(start+ix.cfg.EmbeddingBatchSize, len(pending))]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, r := range batch {
				texts[i] = r.embedText
			}

			vectors, err := ix.provider.GenerateEmbeddings(gctx, texts)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				ix.logger.Warn("embedding provider failed, indexing batch without vectors", err, map[string]interface{}{
					"index": index.ID,
					"items": len(batch),
				})
				if ix.metrics != nil {
					ix.metrics.IncEmbeddingFailure("index")
				}
				return nil
			}
			if len(vectors) != len(batch) {
				ix.logger.Warn("embedding provider returned wrong vector count, indexing batch without vectors", nil, map[string]interface{}{
					"index": index.ID,
					"want":  len(batch),
					"got":   len(vectors),
				})
				return nil
			}

			for i, r := range batch {
				if err := fieldmap.ValidateDimension(vectors[i], index.VectorDimension); err != nil {
					ix.logger.Warn("dropping embedding with wrong dimension", err, map[string]interface{}{
						"index": index.ID,
						"item":  r.item.ID,
					})
					continue
				}
				r.vector = vectors[i]
			}
			return nil
		})
	}

	return g.Wait()
}

// DeleteItems removes the given item IDs from the index table in batches.
// It returns the total number of rows removed.
func (ix *Indexer) DeleteItems(ctx context.Context, index *schema.Index, ids []string) (int64, error) {
	table, err := index.TableName(ix.prefix)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	err = ix.db.WithTransaction(ctx, func(tx postgres.Runner) error {
		for start := 0; start < len(ids); start += ix.cfg.DeleteBatchSize {
			batch := ids[start:min(start+ix.cfg.DeleteBatchSize, len(ids))]

			params := make(map[string]any, len(batch))
			placeholders := make([]string, len(batch))
			for i, id := range batch {
				name := fmt.Sprintf("id_%d", i)
				params[name] = id
				placeholders[i] = ":" + name
			}

			sql := fmt.Sprintf(`DELETE FROM %s WHERE "%s" IN (%s)`,
				table.Quoted(), schema.ColumnItemID, strings.Join(placeholders, ", "))
			n, err := tx.ExecuteStatement(ctx, sql, params)
			if err != nil {
				return err
			}
			deleted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if ix.metrics != nil {
		ix.metrics.AddIndexedItems(index.ID, "delete", int(deleted))
	}
	return deleted, nil
}

// Clear removes every item from the index table.
func (ix *Indexer) Clear(ctx context.Context, index *schema.Index) error {
	table, err := index.TableName(ix.prefix)
	if err != nil {
		return err
	}
	return ix.db.ExecRaw(ctx, "TRUNCATE TABLE "+table.Quoted())
}

// upsertColumns returns the insert column order: system columns, index
// fields, then the embedding column when present.
func upsertColumns(index *schema.Index) []string {
	columns := []string{schema.ColumnItemID, schema.ColumnDatasource, schema.ColumnLanguage}
	columns = append(columns, index.FieldIDs()...)
	if index.HasVector() {
		columns = append(columns, schema.ColumnEmbedding)
	}
	return columns
}

// upsertSQL builds the INSERT ... ON CONFLICT DO UPDATE statement. Reindexing
// an existing item replaces every column, including a now-absent embedding.
func upsertSQL(table string, columns []string) string {
	quotedCols := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	var updates []string
	for i, col := range columns {
		quotedCols[i] = `"` + col + `"`
		placeholders[i] = ":" + col
		if col != schema.ColumnItemID {
			updates = append(updates, fmt.Sprintf(`"%s" = EXCLUDED."%s"`, col, col))
		}
	}

	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT ("%s") DO UPDATE SET %s`,
		table,
		strings.Join(quotedCols, ", "),
		strings.Join(placeholders, ", "),
		schema.ColumnItemID,
		strings.Join(updates, ", "),
	)
}
