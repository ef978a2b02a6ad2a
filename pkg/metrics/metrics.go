// Package metrics defines the Prometheus metric collectors used by the sync
// and query services and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the catalog services.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	SyncRunsTotal       *prometheus.CounterVec
	SyncDuration        prometheus.Histogram
	SyncProducts        prometheus.Gauge
	IndexTokensRetained prometheus.Gauge
	IndexTokensDropped  prometheus.Gauge

	SearchQueriesTotal *prometheus.CounterVec
	SearchLatency      prometheus.Histogram
	SearchResultsCount prometheus.Histogram
	IntentTotal        *prometheus.CounterVec
	ContextBlockBytes  prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SyncRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_sync_runs_total",
				Help: "Total sync runs by status (success, error) and source (scheduled, manual).",
			},
			[]string{"status", "source"},
		),
		SyncDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalog_sync_duration_seconds",
				Help:    "Wall-clock duration of full sync runs.",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		SyncProducts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_products",
				Help: "Number of products written by the most recent sync.",
			},
		),
		IndexTokensRetained: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_index_tokens_retained",
				Help: "Word-index tokens retained after the min-count filter and cap.",
			},
		),
		IndexTokensDropped: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_index_tokens_dropped",
				Help: "Extracted word-index tokens dropped by the min-count filter or cap.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_search_queries_total",
				Help: "Total search queries by result type (hit, zero_result, degraded).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalog_search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalog_search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50},
			},
		),
		IntentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_intent_total",
				Help: "Classified query intents.",
			},
			[]string{"intent"},
		),
		ContextBlockBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalog_context_block_bytes",
				Help:    "Size of rendered context blocks in bytes.",
				Buckets: []float64{256, 1024, 4096, 16384, 65536},
			},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SyncRunsTotal,
		m.SyncDuration,
		m.SyncProducts,
		m.IndexTokensRetained,
		m.IndexTokensDropped,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.IntentTotal,
		m.ContextBlockBytes,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
