package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventdrop",
			Subsystem: "media",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eventdrop",
			Subsystem: "media",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 120},
		},
		[]string{"method", "endpoint"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventdrop",
			Subsystem: "media",
			Name:      "uploads_total",
			Help:      "Total file uploads by asset kind and outcome",
		},
		[]string{"kind", "status"},
	)

	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventdrop",
			Subsystem: "media",
			Name:      "upload_bytes_total",
			Help:      "Total bytes stored by asset kind",
		},
		[]string{"kind"},
	)

	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventdrop",
			Subsystem: "media",
			Name:      "storage_operations_total",
			Help:      "Total object storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eventdrop",
			Subsystem: "media",
			Name:      "storage_duration_seconds",
			Help:      "Object storage operation duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)

	ArchiveBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventdrop",
			Subsystem: "media",
			Name:      "archive_builds_total",
			Help:      "Total archive builds by outcome",
		},
		[]string{"status"},
	)

	ArchiveEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventdrop",
			Subsystem: "media",
			Name:      "archive_entries_total",
			Help:      "Archive entries written or skipped",
		},
		[]string{"result"},
	)

	ProxyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventdrop",
			Subsystem: "media",
			Name:      "proxy_requests_total",
			Help:      "Image proxy requests by outcome",
		},
		[]string{"status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordUpload records a file upload
func RecordUpload(kind, status string, bytes int64) {
	UploadsTotal.WithLabelValues(kind, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(kind).Add(float64(bytes))
	}
}

// RecordStorageOperation records an object storage call
func RecordStorageOperation(operation, status string, durationSec float64) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	StorageDuration.WithLabelValues(operation).Observe(durationSec)
}

// RecordArchive records the outcome of one archive build
func RecordArchive(status string, written, skipped int) {
	ArchiveBuildsTotal.WithLabelValues(status).Inc()
	ArchiveEntriesTotal.WithLabelValues("written").Add(float64(written))
	ArchiveEntriesTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordProxy records an image proxy request
func RecordProxy(status string) {
	ProxyRequestsTotal.WithLabelValues(status).Inc()
}

// Status returns the metric status label for an operation result.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
