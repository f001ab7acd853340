package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/pgsearch/pkg/embedding"
	"github.com/Aleph-Alpha/pgsearch/pkg/fieldmap"
	"github.com/Aleph-Alpha/pgsearch/pkg/metrics"
	"github.com/Aleph-Alpha/pgsearch/pkg/query"
	"github.com/Aleph-Alpha/pgsearch/pkg/schema"
	"github.com/Aleph-Alpha/pgsearch/pkg/tracer"
)

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
func (nopLogger) Fatal(string, error, ...map[string]interface{}) {}

// fakeDatabase returns canned row sets in order of execution and records the
// statements it saw.
type fakeDatabase struct {
	results [][]map[string]any
	calls   []string
	err     error
}

func (db *fakeDatabase) Execute(_ context.Context, sql string, _ map[string]any) ([]map[string]any, error) {
	db.calls = append(db.calls, sql)
	if db.err != nil {
		return nil, db.err
	}
	if len(db.results) == 0 {
		return nil, nil
	}
	rows := db.results[0]
	db.results = db.results[1:]
	return rows, nil
}

func testIndex(dimension int) *schema.Index {
	return &schema.Index{
		ID:              "products",
		VectorDimension: dimension,
		Fields: map[string]schema.Field{
			"title":    {ID: "title", Type: fieldmap.TypeText, Searchable: true},
			"price":    {ID: "price", Type: fieldmap.TypeDecimal},
			"category": {ID: "category", Type: fieldmap.TypeString, Facetable: true},
		},
	}
}

func newTestService(t *testing.T, db Database, provider embedding.Provider) *Service {
	t.Helper()
	builder, err := query.NewBuilder(query.NewConfig(), schema.NewConfig(), provider, nopLogger{})
	require.NoError(t, err)
	return NewService(builder, db, nopLogger{}, nil, nil)
}

func TestSearchConvertsRows(t *testing.T) {
	db := &fakeDatabase{results: [][]map[string]any{{
		{
			schema.ColumnItemID:     "item-1",
			schema.ColumnDatasource: "products",
			schema.ColumnLanguage:   "en",
			"title":                 "Wireless Headphones",
			"price":                 []byte("99.5"),
			"category":              "audio",
			"relevance":             0.42,
		},
	}}}
	svc := newTestService(t, db, nil)

	result, err := svc.Search(context.Background(), testIndex(0), query.Request{
		Keys: query.KeysFromString("headphones"),
	})
	require.NoError(t, err)

	assert.Equal(t, query.ModeTextOnly, result.Mode)
	require.Len(t, result.Hits, 1)
	hit := result.Hits[0]
	assert.Equal(t, "item-1", hit.ItemID)
	assert.Equal(t, "products", hit.Datasource)
	assert.Equal(t, "en", hit.Language)
	assert.Equal(t, 0.42, hit.Relevance)
	assert.Equal(t, "Wireless Headphones", hit.Fields["title"])
	assert.Equal(t, 99.5, hit.Fields["price"])
	assert.Equal(t, "audio", hit.Fields["category"])
}

func TestSearchEmptyResult(t *testing.T) {
	db := &fakeDatabase{}
	svc := newTestService(t, db, nil)

	result, err := svc.Search(context.Background(), testIndex(0), query.Request{
		Keys: query.KeysFromString("nothing matches this"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}

func TestSearchWithFacetsSingleEmbeddingCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := embedding.NewMockProvider(ctrl)
	provider.EXPECT().
		GenerateEmbedding(gomock.Any(), gomock.Any()).
		Return([]float32{0.1, 0.2, 0.3}, nil).
		Times(1)

	db := &fakeDatabase{results: [][]map[string]any{
		{},
		{
			{"value": "audio", "count": int64(2)},
			{"value": "video", "count": int64(1)},
		},
	}}
	svc := newTestService(t, db, provider)

	result, err := svc.SearchWithFacets(context.Background(), testIndex(3), query.Request{
		Keys: query.KeysFromString("headphones"),
	}, []query.Facet{{Field: "category"}})
	require.NoError(t, err)

	assert.Equal(t, query.ModeHybrid, result.Mode)
	require.Len(t, db.calls, 2)
	assert.Contains(t, db.calls[1], `GROUP BY "category"`)
	assert.Equal(t, []FacetValue{{Value: "audio", Count: 2}, {Value: "video", Count: 1}}, result.Facets["category"])
}

func TestSearchDatabaseErrorPropagates(t *testing.T) {
	db := &fakeDatabase{err: errors.New("connection reset")}
	svc := newTestService(t, db, nil)

	_, err := svc.Search(context.Background(), testIndex(0), query.Request{})
	require.Error(t, err)
}

func TestSearchInvalidRequestFailsBeforeExecution(t *testing.T) {
	db := &fakeDatabase{}
	svc := newTestService(t, db, nil)

	_, err := svc.Search(context.Background(), testIndex(0), query.Request{
		Sorts: []query.Sort{{Field: "missing"}},
	})
	require.Error(t, err)
	assert.Empty(t, db.calls)
}

func TestAutocomplete(t *testing.T) {
	db := &fakeDatabase{results: [][]map[string]any{{
		{"suggestion": "headphones"},
		{"suggestion": "headphone case"},
	}}}
	svc := newTestService(t, db, nil)

	suggestions, err := svc.Autocomplete(context.Background(), testIndex(0), "headp")
	require.NoError(t, err)
	assert.Equal(t, []string{"headphones", "headphone case"}, suggestions)
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0], "ts_headline")
}

func TestFallbackMetricRecorded(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := embedding.NewMockProvider(ctrl)
	provider.EXPECT().
		GenerateEmbedding(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("provider down"))

	m := metrics.NewMetrics(metrics.Config{
		Address:     ":0",
		ServiceName: "test",
	})
	builder, err := query.NewBuilder(query.NewConfig(), schema.NewConfig(), provider, nopLogger{})
	require.NoError(t, err)
	svc := NewService(builder, &fakeDatabase{}, nopLogger{}, m, nil)

	result, err := svc.Search(context.Background(), testIndex(3), query.Request{
		Mode: query.ModeHybrid,
		Keys: query.KeysFromString("headphones"),
	})
	require.NoError(t, err)
	assert.Equal(t, query.ModeTextOnly, result.Mode)

	assert.Equal(t, 1.0, metricValue(t, m, "search_fallbacks_total"))
	assert.Equal(t, 1.0, metricValue(t, m, "search_queries_total"))
}

func TestSearchWithTracerAnnotatesSpans(t *testing.T) {
	tr := tracer.NewClient(tracer.Config{
		ServiceName:  "test",
		AppEnv:       "test",
		EnableExport: false,
	}, nopLogger{})

	db := &fakeDatabase{}
	builder, err := query.NewBuilder(query.NewConfig(), schema.NewConfig(), nil, nopLogger{})
	require.NoError(t, err)
	svc := NewService(builder, db, nopLogger{}, nil, tr)

	result, err := svc.Search(context.Background(), testIndex(0), query.Request{
		Keys: query.KeysFromString("headphones"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Hits)

	_, err = svc.Autocomplete(context.Background(), testIndex(0), "headp")
	require.NoError(t, err)
}

// metricValue sums all samples of a counter family in the registry.
func metricValue(t *testing.T, m *metrics.Metrics, name string) float64 {
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
