package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/pgsearch/pkg/embedding"
	"github.com/Aleph-Alpha/pgsearch/pkg/fieldmap"
	"github.com/Aleph-Alpha/pgsearch/pkg/metrics"
	"github.com/Aleph-Alpha/pgsearch/pkg/postgres"
	"github.com/Aleph-Alpha/pgsearch/pkg/schema"
)

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
func (nopLogger) Fatal(string, error, ...map[string]interface{}) {}

type statement struct {
	sql    string
	params map[string]any
}

type fakeRunner struct {
	statements []statement
	failOn     string
}

func (r *fakeRunner) Execute(context.Context, string, map[string]any) ([]map[string]any, error) {
	return nil, nil
}

func (r *fakeRunner) ExecuteStatement(_ context.Context, sql string, params map[string]any) (int64, error) {
	if r.failOn != "" && params[schema.ColumnItemID] == r.failOn {
		return 0, errors.New("constraint violation")
	}
	copied := make(map[string]any, len(params))
	for k, v := range params {
		copied[k] = v
	}
	r.statements = append(r.statements, statement{sql: sql, params: copied})
	return 1, nil
}

type fakeDB struct {
	runner     fakeRunner
	raw        []string
	rolledBack bool
}

func (db *fakeDB) WithTransaction(ctx context.Context, fn func(tx postgres.Runner) error) error {
	before := len(db.runner.statements)
	if err := fn(&db.runner); err != nil {
		db.runner.statements = db.runner.statements[:before]
		db.rolledBack = true
		return err
	}
	return nil
}

func (db *fakeDB) ExecRaw(_ context.Context, sql string) error {
	db.raw = append(db.raw, sql)
	return nil
}

func testIndex(dimension int) *schema.Index {
	return &schema.Index{
		ID:              "products",
		VectorDimension: dimension,
		AutoEmbed:       true,
		Fields: map[string]schema.Field{
			"title": {ID: "title", Type: fieldmap.TypeText, Searchable: true},
			"price": {ID: "price", Type: fieldmap.TypeDecimal},
		},
	}
}

func newTestIndexer(db Database, provider embedding.Provider) *Indexer {
	return NewIndexer(NewConfig(), schema.NewConfig(), db, provider, nopLogger{}, nil)
}

func TestIndexItemsUpsertsConvertedRows(t *testing.T) {
	db := &fakeDB{}
	ix := newTestIndexer(db, nil)

	ids, err := ix.IndexItems(context.Background(), testIndex(0), []Item{
		{
			ID:         "item-1",
			Datasource: "products",
			Language:   "en",
			Values: map[string]any{
				"title": "<p>Wireless   Headphones</p>",
				"price": 99,
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"item-1"}, ids)

	require.Len(t, db.runner.statements, 1)
	st := db.runner.statements[0]
	assert.Contains(t, st.sql, `INSERT INTO "search_api_products"`)
	assert.Contains(t, st.sql, `ON CONFLICT ("search_api_id") DO UPDATE SET`)
	assert.Contains(t, st.sql, `"title" = EXCLUDED."title"`)
	assert.NotContains(t, st.sql, `"search_api_id" = EXCLUDED`)
	assert.Equal(t, "item-1", st.params[schema.ColumnItemID])
	assert.Equal(t, "en", st.params[schema.ColumnLanguage])
	assert.Equal(t, "Wireless Headphones", st.params["title"])
	assert.Equal(t, float64(99), st.params["price"])
}

func TestIndexItemsSkipsUnconvertibleItems(t *testing.T) {
	db := &fakeDB{}
	ix := newTestIndexer(db, nil)

	ids, err := ix.IndexItems(context.Background(), testIndex(0), []Item{
		{ID: "bad", Values: map[string]any{"price": struct{}{}}},
		{ID: "good", Values: map[string]any{"title": "ok"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, ids)
	assert.Len(t, db.runner.statements, 1)
}

func TestIndexItemsMissingFieldsStoredAsNull(t *testing.T) {
	db := &fakeDB{}
	ix := newTestIndexer(db, nil)

	_, err := ix.IndexItems(context.Background(), testIndex(0), []Item{
		{ID: "item-1", Values: map[string]any{"title": "no price"}},
	})
	require.NoError(t, err)

	st := db.runner.statements[0]
	value, present := st.params["price"]
	assert.True(t, present)
	assert.Nil(t, value)
}

func TestIndexItemsGeneratesEmbeddings(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := embedding.NewMockProvider(ctrl)
	provider.EXPECT().
		GenerateEmbeddings(gomock.Any(), []string{"Wireless Headphones"}).
		Return([][]float32{{0.1, 0.2, 0.3}}, nil)

	db := &fakeDB{}
	ix := newTestIndexer(db, provider)

	ids, err := ix.IndexItems(context.Background(), testIndex(3), []Item{
		{ID: "item-1", Values: map[string]any{"title": "<b>Wireless</b> Headphones"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"item-1"}, ids)

	st := db.runner.statements[0]
	assert.Contains(t, st.sql, `"content_embedding"`)
	assert.Equal(t, pgvector.NewVector([]float32{0.1, 0.2, 0.3}), st.params[schema.ColumnEmbedding])
}

func TestIndexItemsProviderFailureDegradesToNoVector(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := embedding.NewMockProvider(ctrl)
	provider.EXPECT().
		GenerateEmbeddings(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("provider down"))

	db := &fakeDB{}
	ix := newTestIndexer(db, provider)

	ids, err := ix.IndexItems(context.Background(), testIndex(3), []Item{
		{ID: "item-1", Values: map[string]any{"title": "headphones"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"item-1"}, ids)

	st := db.runner.statements[0]
	value, present := st.params[schema.ColumnEmbedding]
	assert.True(t, present)
	assert.Nil(t, value)
}

func TestIndexItemsDropsWrongDimensionVector(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := embedding.NewMockProvider(ctrl)
	provider.EXPECT().
		GenerateEmbeddings(gomock.Any(), gomock.Any()).
		Return([][]float32{{0.1, 0.2}}, nil)

	db := &fakeDB{}
	ix := newTestIndexer(db, provider)

	_, err := ix.IndexItems(context.Background(), testIndex(3), []Item{
		{ID: "item-1", Values: map[string]any{"title": "headphones"}},
	})
	require.NoError(t, err)
	assert.Nil(t, db.runner.statements[0].params[schema.ColumnEmbedding])
}

func TestIndexItemsRejectsWrongDimensionFieldValue(t *testing.T) {
	idx := testIndex(3)
	idx.Fields["embedding"] = schema.Field{ID: "embedding", Type: fieldmap.TypeVector}

	db := &fakeDB{}
	ix := newTestIndexer(db, nil)

	ids, err := ix.IndexItems(context.Background(), idx, []Item{
		{ID: "short", Values: map[string]any{"embedding": []float32{0.1, 0.2}}},
		{ID: "fits", Values: map[string]any{"embedding": []float32{0.1, 0.2, 0.3}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"fits"}, ids)
	assert.Len(t, db.runner.statements, 1)
}

func TestIndexItemsRecordsMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := embedding.NewMockProvider(ctrl)
	provider.EXPECT().
		GenerateEmbeddings(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("provider down"))

	m := metrics.NewMetrics(metrics.Config{Address: ":0", ServiceName: "test"})
	db := &fakeDB{}
	ix := NewIndexer(NewConfig(), schema.NewConfig(), db, provider, nopLogger{}, m)

	_, err := ix.IndexItems(context.Background(), testIndex(3), []Item{
		{ID: "item-1", Values: map[string]any{"title": "headphones"}},
	})
	require.NoError(t, err)

	deleted, err := ix.DeleteItems(context.Background(), testIndex(3), []string{"item-1"})
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	assert.Equal(t, 1.0, counterValue(t, m, "embedding_failures_total"))
	assert.Equal(t, 2.0, counterValue(t, m, "indexed_items_total"))
}

// counterValue sums all samples of a counter family in the registry.
func counterValue(t *testing.T, m *metrics.Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	require.NoError(t, err)

	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestIndexItemsCancellationAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := embedding.NewMockProvider(ctrl)
	provider.EXPECT().
		GenerateEmbeddings(gomock.Any(), gomock.Any()).
		Return(nil, context.Canceled)

	db := &fakeDB{}
	ix := newTestIndexer(db, provider)

	_, err := ix.IndexItems(context.Background(), testIndex(3), []Item{
		{ID: "item-1", Values: map[string]any{"title": "headphones"}},
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, db.runner.statements)
}

func TestIndexItemsTransactionFailureWritesNothing(t *testing.T) {
	db := &fakeDB{}
	db.runner.failOn = "item-2"
	ix := newTestIndexer(db, nil)

	ids, err := ix.IndexItems(context.Background(), testIndex(0), []Item{
		{ID: "item-1", Values: map[string]any{"title": "one"}},
		{ID: "item-2", Values: map[string]any{"title": "two"}},
	})
	require.Error(t, err)
	assert.Nil(t, ids)
	assert.True(t, db.rolledBack)
	assert.Empty(t, db.runner.statements)
}

func TestDeleteItemsBatches(t *testing.T) {
	db := &fakeDB{}
	ix := NewIndexer(Config{DeleteBatchSize: 2}, schema.NewConfig(), db, nil, nopLogger{}, nil)

	deleted, err := ix.DeleteItems(context.Background(), testIndex(0), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	require.Len(t, db.runner.statements, 2)
	assert.Contains(t, db.runner.statements[0].sql, `DELETE FROM "search_api_products" WHERE "search_api_id" IN (:id_0, :id_1)`)
	assert.Contains(t, db.runner.statements[1].sql, `IN (:id_0)`)
	assert.Equal(t, "c", db.runner.statements[1].params["id_0"])
}

func TestDeleteItemsEmpty(t *testing.T) {
	db := &fakeDB{}
	ix := newTestIndexer(db, nil)

	deleted, err := ix.DeleteItems(context.Background(), testIndex(0), nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Empty(t, db.runner.statements)
}

func TestClearTruncates(t *testing.T) {
	db := &fakeDB{}
	ix := newTestIndexer(db, nil)

	require.NoError(t, ix.Clear(context.Background(), testIndex(0)))
	require.Len(t, db.raw, 1)
	assert.Equal(t, `TRUNCATE TABLE "search_api_products"`, db.raw[0])
}
