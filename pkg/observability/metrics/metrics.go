// Package metrics provides Prometheus metrics for the HTTP surface and
// the record repository.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestDuration tracks HTTP request duration in seconds.
	// Labels: method, path, status
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestsTotal tracks total number of HTTP requests.
	// Labels: method, path, status
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// recordOperationsTotal tracks repository operations per collection.
	// Labels: collection, operation, outcome ("ok" or "error")
	recordOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_operations_total",
			Help: "Total number of record repository operations",
		},
		[]string{"collection", "operation", "outcome"},
	)
)

// RecordHTTPMetrics updates the duration histogram and request counter
// for one handled request.
func RecordHTTPMetrics(method, path string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	httpRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration.Seconds())
	httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
}

// RecordRepositoryOperation counts one repository operation outcome.
func RecordRepositoryOperation(collection, operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	recordOperationsTotal.WithLabelValues(collection, operation, outcome).Inc()
}
