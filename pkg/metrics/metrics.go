// Package metrics provides Prometheus instrumentation for Wrangler's dataset
// providers, pipeline sinks, download client and storage clients.
//
// # Basic Usage
//
//	timer := metrics.NewTimer()
//	result, err := provider.LoadDataset(ctx, req)
//	metrics.ObserveDatasetOperation("local", "load_dataset", "http", err, timer.Stop())
//
// All collectors are registered on the default registry through promauto, so
// any process that exposes promhttp.Handler() publishes them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/wrangler/pkg/errors"
)

var (
	// DatasetOperations counts dataset provider calls.
	// Labels: provider (local/rt), operation (save_upload/load_dataset),
	// source (upload/http/storage/path/envelope), status (success or error type)
	DatasetOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wrangler_dataset_operations_total",
			Help: "Total number of dataset provider operations",
		},
		[]string{"provider", "operation", "source", "status"},
	)

	// DatasetLatency tracks dataset provider call latency in seconds.
	DatasetLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wrangler_dataset_operation_duration_seconds",
			Help:    "Dataset provider operation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~4.4min
		},
		[]string{"provider", "operation", "source"},
	)

	// BytesMaterialized counts bytes written under namespace directories.
	BytesMaterialized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wrangler_bytes_materialized_total",
			Help: "Total bytes written to namespace directories",
		},
		[]string{"provider"},
	)

	// CSVConversions counts CSV payloads normalized to JSON.
	CSVConversions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wrangler_csv_conversions_total",
			Help: "Total number of CSV payloads converted to JSON",
		},
	)

	// PipelineSaves counts pipeline sink saves.
	// Labels: sink (local/rt), status (success or error type)
	PipelineSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wrangler_pipeline_saves_total",
			Help: "Total number of pipeline configuration saves",
		},
		[]string{"sink", "status"},
	)

	// HTTPRequests counts dataset downloads by final status code class.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wrangler_http_requests_total",
			Help: "Total number of HTTP download requests",
		},
		[]string{"host", "code"},
	)

	// HTTPLatency tracks download latency in seconds.
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wrangler_http_request_duration_seconds",
			Help:    "HTTP download latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host"},
	)

	// StorageOperations counts object storage calls.
	// Labels: backend (gcs/s3/memory), operation (get/put), status
	StorageOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wrangler_storage_operations_total",
			Help: "Total number of object storage operations",
		},
		[]string{"backend", "operation", "status"},
	)

	// StorageClientsBuilt counts lazy storage client constructions.
	StorageClientsBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wrangler_storage_clients_built_total",
			Help: "Total number of storage client construction attempts",
		},
		[]string{"status"},
	)
)

// Status renders err as a metric label: "success" or the error type.
func Status(err error) string {
	if err == nil {
		return "success"
	}
	return string(errors.TypeOf(err))
}

// ObserveDatasetOperation records one dataset provider call.
func ObserveDatasetOperation(provider, operation, source string, err error, d time.Duration) {
	DatasetOperations.WithLabelValues(provider, operation, source, Status(err)).Inc()
	DatasetLatency.WithLabelValues(provider, operation, source).Observe(d.Seconds())
}

// ObserveStorageOperation records one storage client call.
func ObserveStorageOperation(backend, operation string, err error) {
	StorageOperations.WithLabelValues(backend, operation, Status(err)).Inc()
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation. The timer can be stopped
// multiple times, each returning the total elapsed time since creation.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
