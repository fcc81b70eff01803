package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supfile_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supfile_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supfile_storage_operations_total",
			Help: "Content store operations by backend call and result",
		},
		[]string{"operation", "result"},
	)

	StorageBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supfile_storage_bytes_total",
			Help: "Bytes written to the content store",
		},
		[]string{"direction"},
	)

	UploadRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supfile_upload_rejections_total",
			Help: "Uploads refused at admission",
		},
		[]string{"reason"},
	)

	ShareResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supfile_share_resolutions_total",
			Help: "Public share lookups by outcome",
		},
		[]string{"result"},
	)

	TrashPurgedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supfile_trash_purged_total",
			Help: "Nodes removed from the trash",
		},
		[]string{"kind", "trigger"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "supfile_storage_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

func RecordHTTPRequest(method, route, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func RecordStorageOperation(operation, result string) {
	StorageOperationsTotal.WithLabelValues(operation, result).Inc()
}

func RecordStorageBytes(direction string, n int64) {
	if n > 0 {
		StorageBytesTotal.WithLabelValues(direction).Add(float64(n))
	}
}

func RecordUploadRejection(reason string) {
	UploadRejectionsTotal.WithLabelValues(reason).Inc()
}

func RecordShareResolution(result string) {
	ShareResolutionsTotal.WithLabelValues(result).Inc()
}

func RecordTrashPurged(kind, trigger string, n int) {
	if n > 0 {
		TrashPurgedTotal.WithLabelValues(kind, trigger).Add(float64(n))
	}
}

func SetBreakerState(name string, state float64) {
	BreakerState.WithLabelValues(name).Set(state)
}
