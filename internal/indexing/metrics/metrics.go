package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HighestSyncedBatchIndex tracks the durable checkpoint position
	HighestSyncedBatchIndex = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dasync_highest_synced_batch_index",
			Help: "Highest rollup batch index fully synchronized",
		},
	)

	// BatchesProcessed tracks total batch indices handled (synced or skipped)
	BatchesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dasync_batches_processed_total",
			Help: "Total number of batch indices processed",
		},
		[]string{"outcome"}, // "confirmed", "unconfirmed"
	)

	// MissingElementRetries counts recoverable missing-element failures
	MissingElementRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dasync_missing_element_retries_total",
			Help: "Total number of missing-element recoveries",
		},
	)

	// SwallowedErrors counts unhandled failures absorbed by the catch-all policy
	SwallowedErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dasync_swallowed_errors_total",
			Help: "Total number of unhandled-but-swallowed sync errors",
		},
	)

	// DARequestsTotal tracks DA layer API calls per endpoint
	DARequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dasync_da_requests_total",
			Help: "Total number of DA layer API requests",
		},
		[]string{"endpoint", "status"},
	)

	// DARequestLatency tracks DA layer API call latency
	DARequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dasync_da_request_latency_seconds",
			Help:    "DA layer API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

// ObserveDARequest records one DA API call.
func ObserveDARequest(endpoint string, err error, latency time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DARequestsTotal.WithLabelValues(endpoint, status).Inc()
	DARequestLatency.WithLabelValues(endpoint).Observe(latency.Seconds())
}
