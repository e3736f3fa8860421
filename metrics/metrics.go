package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Requests counts proxied requests by method and response status.
	Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quarry",
			Name:      "requests_total",
			Help:      "Total number of proxied requests",
		},
		[]string{"method", "code"},
	)

	// QueriesRecognized counts search queries by dialect.
	QueriesRecognized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quarry",
			Name:      "queries_recognized_total",
			Help:      "Total number of search queries recognized in proxied requests",
		},
		[]string{"dialect"},
	)

	// QueriesStored counts query records written to the store.
	QueriesStored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "quarry",
			Name:      "queries_stored_total",
			Help:      "Total number of query records persisted",
		},
	)

	// StoreFailures counts query records that could not be persisted.
	StoreFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quarry",
			Name:      "store_failures_total",
			Help:      "Total number of query records that could not be persisted",
		},
		[]string{"reason"},
	)

	// UpstreamDuration measures the time taken for origin servers to respond.
	UpstreamDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "quarry",
			Name:      "upstream_duration_seconds",
			Help:      "Time until response headers are received from the origin server",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(Requests)
	prometheus.MustRegister(QueriesRecognized)
	prometheus.MustRegister(QueriesStored)
	prometheus.MustRegister(StoreFailures)
	prometheus.MustRegister(UpstreamDuration)
}
