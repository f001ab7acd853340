package search

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Aleph-Alpha/pgsearch/pkg/fieldmap"
	"github.com/Aleph-Alpha/pgsearch/pkg/metrics"
	"github.com/Aleph-Alpha/pgsearch/pkg/query"
	"github.com/Aleph-Alpha/pgsearch/pkg/schema"
	"github.com/Aleph-Alpha/pgsearch/pkg/tracer"
)

// Logger defines the interface for logging operations within the search package.
//
//go:generate mockgen -source=service.go -destination=mock_service.go -package=search
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Database is the slice of the database connector the Service needs.
// *postgres.Postgres satisfies it.
type Database interface {
	Execute(ctx context.Context, sql string, params map[string]any) ([]map[string]any, error)
}

// Service runs searches end to end.
type Service struct {
	builder *query.Builder
	db      Database
	logger  Logger

	// metrics and tracer are optional; nil disables the respective signal.
	metrics *metrics.Metrics
	tracer  *tracer.Tracer
}

// NewService constructs a Service. Metrics and tracer may be nil.
func NewService(builder *query.Builder, db Database, logger Logger, m *metrics.Metrics, tr *tracer.Tracer) *Service {
	return &Service{builder: builder, db: db, logger: logger, metrics: m, tracer: tr}
}

// Search compiles and executes the request without facets.
func (s *Service) Search(ctx context.Context, index *schema.Index, req query.Request) (*Result, error) {
	return s.SearchWithFacets(ctx, index, req, nil)
}

// SearchWithFacets compiles the request once, executes the main query, then
// every facet over the same matched set.
func (s *Service) SearchWithFacets(ctx context.Context, index *schema.Index, req query.Request, facets []query.Facet) (*Result, error) {
	ctx, finish := s.startSpan(ctx, "search", map[string]interface{}{
		"search.index": index.ID,
		"search.mode":  req.Mode.String(),
	})
	start := time.Now()

	result, err := s.searchWithFacets(ctx, index, req, facets)
	finish(err)
	if err != nil {
		return nil, err
	}

	s.observe(index, req, result.Mode, time.Since(start))
	return result, nil
}

func (s *Service) searchWithFacets(ctx context.Context, index *schema.Index, req query.Request, facets []query.Facet) (*Result, error) {
	compiled, err := s.builder.Compile(ctx, index, req)
	if err != nil {
		return nil, err
	}
	artifact, err := compiled.Query()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Execute(ctx, artifact.SQL, artifact.Params)
	if err != nil {
		return nil, err
	}

	result := &Result{Mode: artifact.Mode, Hits: make([]Hit, 0, len(rows))}
	for _, row := range rows {
		hit, err := s.rowToHit(index, req, row)
		if err != nil {
			return nil, err
		}
		result.Hits = append(result.Hits, hit)
	}

	if len(facets) > 0 {
		result.Facets = make(map[string][]FacetValue, len(facets))
		for _, facet := range facets {
			values, err := s.executeFacet(ctx, compiled, facet)
			if err != nil {
				return nil, err
			}
			result.Facets[facet.Field] = values
		}
	}

	return result, nil
}

func (s *Service) executeFacet(ctx context.Context, compiled *query.Compiled, facet query.Facet) ([]FacetValue, error) {
	artifact, err := compiled.Facet(facet)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Execute(ctx, artifact.SQL, artifact.Params)
	if err != nil {
		return nil, err
	}

	values := make([]FacetValue, 0, len(rows))
	for _, row := range rows {
		value, err := asString(row["value"])
		if err != nil {
			return nil, fmt.Errorf("search: facet %q value: %w", facet.Field, err)
		}
		count, err := asInt64(row["count"])
		if err != nil {
			return nil, fmt.Errorf("search: facet %q count: %w", facet.Field, err)
		}
		values = append(values, FacetValue{Value: value, Count: count})
	}
	return values, nil
}

// Autocomplete returns completion suggestions for partially typed input.
func (s *Service) Autocomplete(ctx context.Context, index *schema.Index, input string) ([]string, error) {
	ctx, finish := s.startSpan(ctx, "autocomplete", map[string]interface{}{
		"search.index": index.ID,
	})

	artifact, err := s.builder.BuildAutocomplete(index, input)
	if err != nil {
		finish(err)
		return nil, err
	}
	rows, err := s.db.Execute(ctx, artifact.SQL, artifact.Params)
	finish(err)
	if err != nil {
		return nil, err
	}

	suggestions := make([]string, 0, len(rows))
	for _, row := range rows {
		suggestion, err := asString(row["suggestion"])
		if err != nil {
			return nil, err
		}
		if suggestion != "" {
			suggestions = append(suggestions, suggestion)
		}
	}
	return suggestions, nil
}

func (s *Service) rowToHit(index *schema.Index, req query.Request, row map[string]any) (Hit, error) {
	hit := Hit{Fields: map[string]any{}}

	var err error
	if hit.ItemID, err = asString(row[schema.ColumnItemID]); err != nil {
		return Hit{}, fmt.Errorf("search: item id: %w", err)
	}
	hit.Datasource, _ = asString(row[schema.ColumnDatasource])
	hit.Language, _ = asString(row[schema.ColumnLanguage])

	if hit.Relevance, err = asFloat(row["relevance"]); err != nil {
		return Hit{}, fmt.Errorf("search: relevance of item %q: %w", hit.ItemID, err)
	}
	// Hybrid score components are absent in the other modes.
	if v, ok := row["text_score"]; ok {
		hit.TextScore, _ = asFloat(v)
	}
	if v, ok := row["vector_score"]; ok {
		hit.VectorScore, _ = asFloat(v)
	}
	if v, ok := row["hybrid_score"]; ok {
		hit.HybridScore, _ = asFloat(v)
	}

	fieldIDs := req.Fields
	if len(fieldIDs) == 0 {
		fieldIDs = index.FieldIDs()
	}
	for _, fieldID := range fieldIDs {
		field, ok := index.Fields[fieldID]
		if !ok {
			continue
		}
		raw, ok := row[fieldID]
		if !ok || raw == nil {
			continue
		}
		value, err := fieldmap.FromStorage(raw, field.Type)
		if err != nil {
			return Hit{}, fmt.Errorf("search: field %q of item %q: %w", fieldID, hit.ItemID, err)
		}
		hit.Fields[fieldID] = value
	}

	return hit, nil
}

// startSpan opens a span when a tracer is configured. The returned finish
// records the error, if any, and ends the span.
func (s *Service) startSpan(ctx context.Context, name string, attrs map[string]interface{}) (context.Context, func(error)) {
	if s.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := s.tracer.StartSpan(ctx, name)
	s.tracer.SetAttributes(span, attrs)
	return ctx, func(err error) {
		if err != nil {
			s.tracer.RecordErrorOnSpan(span, err)
		}
		span.End()
	}
}

func (s *Service) observe(index *schema.Index, req query.Request, effective query.Mode, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveSearch(index.ID, effective.String(), elapsed.Seconds())

	requestedVector := req.Mode == query.ModeVectorOnly || req.Mode == query.ModeHybrid
	if requestedVector && effective == query.ModeTextOnly {
		s.metrics.IncFallback(index.ID)
	}
}

func asString(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func asFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", value)
	}
}

func asInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected count type %T", value)
	}
}
