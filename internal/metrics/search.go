package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zasqua",
			Name:      "search_requests_total",
			Help:      "Total number of index search requests",
		},
		[]string{"backend", "kind", "status"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zasqua",
			Name:      "search_request_duration_seconds",
			Help:      "Index search request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"backend", "kind"},
	)

	SearchCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zasqua",
			Name:      "search_cycles_total",
			Help:      "Search cycles by outcome",
		},
		[]string{"outcome"}, // "landing" / "browse_prompt" / "results" / "superseded" / "error"
	)

	GlobalFacetsCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zasqua",
			Name:      "global_facets_cache_total",
			Help:      "Global facet cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zasqua",
			Name:      "ingest_documents_total",
			Help:      "Catalog descriptions written to the index",
		},
		[]string{"status"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchRequestDuration)
	prometheus.MustRegister(SearchCyclesTotal)
	prometheus.MustRegister(GlobalFacetsCacheTotal)
	prometheus.MustRegister(IngestDocumentsTotal)
	searchMetricsRegistered = true
}
