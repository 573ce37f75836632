// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Feed/item metrics track the state of the tracked corpus and ingestion flow
var (
	// FeedsTotal tracks the total number of feeds tracked by the service
	FeedsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feeds_total",
			Help: "Total number of feeds tracked",
		},
	)

	// ItemsTotal tracks total number of items stored
	ItemsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "items_total",
			Help: "Total number of items stored",
		},
	)

	// ItemsInsertedTotal counts newly inserted items per feed fetch, split by
	// whether the item was new or a duplicate of one already stored
	ItemsInsertedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "items_inserted_total",
			Help: "Total number of items inserted or skipped as duplicates",
		},
		[]string{"result"}, // result: inserted, duplicate
	)

	// FeedFetchDuration measures time to fetch and parse a single feed
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Time taken to fetch and parse a feed",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"result"}, // result: success, error
	)

	// FeedFetchErrorsTotal counts errors encountered fetching a feed
	FeedFetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_errors_total",
			Help: "Total number of feed fetch errors",
		},
		[]string{"error_type"},
	)

	// FeedPublishRate observes the most recently estimated publish rate for
	// a processed feed, in items per hour
	FeedPublishRate = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_publish_rate_per_hour",
			Help:    "Estimated publish rate of processed feeds, in items per hour",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 24, 48, 96},
		},
	)

	// ImageFetchAttemptsTotal counts image inlining attempts by result
	ImageFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_fetch_attempts_total",
			Help: "Total number of image fetch attempts",
		},
		[]string{"result"}, // result: success, failure
	)
)

// Scheduler metrics track the tick/wake control loop
var (
	// SchedulerTicksTotal counts scheduler loop iterations
	SchedulerTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_ticks_total",
			Help: "Total number of scheduler loop iterations",
		},
	)

	// SchedulerTickDuration measures how long one tick's dispatch takes
	SchedulerTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scheduler_tick_duration_seconds",
			Help:    "Time taken to dispatch and await one scheduler tick",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	// SchedulerDueFeeds tracks how many feeds were due on the last tick
	SchedulerDueFeeds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_due_feeds",
			Help: "Number of feeds due for fetch on the last scheduler tick",
		},
	)

	// SchedulerSleepSeconds tracks the computed sleep duration until the
	// next wake, as observed at the end of each tick
	SchedulerSleepSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_sleep_seconds",
			Help: "Computed sleep duration until the next scheduler wake",
		},
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordOperationDuration records the duration of a named database operation
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
