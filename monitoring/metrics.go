package monitoring

import "github.com/prometheus/client_golang/prometheus"

var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	IndexSyncOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "index_sync_operations_total",
			Help: "Total number of index mutations applied after commit",
		},
		[]string{"kind"},
	)

	IndexSyncFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "index_sync_failures_total",
			Help: "Total number of index mutations that failed after commit",
		},
		[]string{"kind"},
	)

	SearchQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_query_duration_seconds",
			Help:    "Duration of full-text search queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		HttpRequestsTotal,
		HttpRequestDuration,
		ActiveConnections,
		IndexSyncOperations,
		IndexSyncFailures,
		SearchQueryDuration,
	)
}
