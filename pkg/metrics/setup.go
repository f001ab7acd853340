package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus registry, the scrape endpoint server, and the
// search instruments.
type Metrics struct {
	Server      *http.Server
	Registry    *prometheus.Registry
	serviceName string

	searchQueries     *prometheus.CounterVec
	searchDuration    *prometheus.HistogramVec
	searchFallbacks   *prometheus.CounterVec
	embeddingFailures *prometheus.CounterVec
	indexedItems      *prometheus.CounterVec
}

func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	wrappedRegistry := prometheus.WrapRegistererWith(prometheus.Labels{"service": cfg.ServiceName}, registry)
	if cfg.Namespace != "" {
		wrappedRegistry = prometheus.WrapRegistererWithPrefix(cfg.Namespace+"_", wrappedRegistry)
	}

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	m := &Metrics{
		Registry:    registry,
		serviceName: cfg.ServiceName,

		searchQueries: createCounterVec(
			"search_queries_total",
			"Number of executed search queries by index and effective mode.",
			[]string{"index", "mode"},
		),
		searchDuration: createHistogramVec(
			"search_duration_seconds",
			"End-to-end search duration by index and effective mode.",
			[]string{"index", "mode"},
			prometheus.DefBuckets,
		),
		searchFallbacks: createCounterVec(
			"search_fallbacks_total",
			"Number of vector or hybrid searches degraded to text-only.",
			[]string{"index"},
		),
		embeddingFailures: createCounterVec(
			"embedding_failures_total",
			"Number of failed embedding provider calls by operation.",
			[]string{"operation"},
		),
		indexedItems: createCounterVec(
			"indexed_items_total",
			"Number of indexed or deleted items by index and operation.",
			[]string{"index", "operation"},
		),
	}

	wrappedRegistry.MustRegister(
		m.searchQueries,
		m.searchDuration,
		m.searchFallbacks,
		m.embeddingFailures,
		m.indexedItems,
	)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: handler,
	}

	return m
}

// ObserveSearch records one executed search with its duration in seconds.
func (m *Metrics) ObserveSearch(index, mode string, seconds float64) {
	m.searchQueries.WithLabelValues(index, mode).Inc()
	m.searchDuration.WithLabelValues(index, mode).Observe(seconds)
}

// IncFallback counts a search that requested vector ranking but ran
// text-only.
func (m *Metrics) IncFallback(index string) {
	m.searchFallbacks.WithLabelValues(index).Inc()
}

// IncEmbeddingFailure counts one failed embedding provider call.
func (m *Metrics) IncEmbeddingFailure(operation string) {
	m.embeddingFailures.WithLabelValues(operation).Inc()
}

// AddIndexedItems counts items written to or removed from an index.
func (m *Metrics) AddIndexedItems(index, operation string, count int) {
	m.indexedItems.WithLabelValues(index, operation).Add(float64(count))
}
