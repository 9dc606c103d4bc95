// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collections_http_requests_total",
			Help: "Total number of API requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collections_http_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	HandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collections_handler_errors_total",
			Help: "Total number of failed operations by error code",
		},
		[]string{"operation", "error_code"},
	)

	FetchSliceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collections_fetch_slice_failures_total",
			Help: "Batch lookups that degraded to an empty result",
		},
		[]string{"slice"},
	)

	FetchCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collections_fetch_cache_total",
			Help: "Batch cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	FetchSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "collections_fetch_sessions_active",
			Help: "Number of live fetch sessions held by the list endpoint",
		},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collections_job_runs_total",
			Help: "Scheduled job executions by job and outcome",
		},
		[]string{"job", "outcome"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collections_notifications_total",
			Help: "Notifications attempted by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
)
