// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CountQueriesTotal tracks count queries sent to the record store by kind and status
	CountQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "estimator",
			Name:      "count_queries_total",
			Help:      "Total number of count queries by kind (pairs, total) and status",
		},
		[]string{"kind", "status"},
	)

	// CountQueryDuration tracks how long count queries take
	CountQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "estimator",
			Name:      "count_query_duration_seconds",
			Help:      "Duration of count queries in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"kind"},
	)

	// RefreshesTotal tracks the outcome of the staleness check per configuration
	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "estimator",
			Name:      "refreshes_total",
			Help:      "Configurations seen by refresh, by outcome (skipped, recomputed, failed)",
		},
		[]string{"outcome"},
	)

	// AnalysisRunsTotal tracks EM runs by status
	AnalysisRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of EM weight estimations by status",
		},
		[]string{"status"},
	)

	// AnalysisVectors tracks the number of match vectors per EM run
	AnalysisVectors = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "analysis",
			Name:      "vectors",
			Help:      "Number of match vectors collected per EM run",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 7),
		},
	)

	// TotalRecordsCacheTotal tracks total-record cache lookups
	TotalRecordsCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "cache",
			Name:      "total_records_lookups_total",
			Help:      "Total-record cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus scrape HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
