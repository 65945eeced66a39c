// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backend Transport Metrics
	TransportRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_backend_requests_total",
			Help: "Total number of backend REST requests",
		},
		[]string{"method", "status"}, // status: HTTP code or "transport_error"
	)

	TransportRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_backend_request_duration_seconds",
			Help:    "Backend REST request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	TransportAuthChallenges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_backend_auth_challenges_total",
			Help: "Total number of 401/403 responses that triggered a credential refresh",
		},
		[]string{"outcome"}, // "retried", "refresh_failed", "no_handler"
	)

	TransportRateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cadence_backend_rate_limit_wait_seconds",
			Help:    "Time spent waiting on the outbound rate limiter",
			Buckets: []float64{.001, .01, .1, .5, 1, 5},
		},
	)

	// Publish Queue Metrics
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_publish_queue_depth",
			Help: "Current number of items waiting in the publish queue",
		},
	)

	QueuePersistErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_publish_queue_persist_errors_total",
			Help: "Total number of failed publish queue writes",
		},
	)

	// Flush Metrics
	FlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cadence_flush_duration_seconds",
			Help:    "Duration of flush passes in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120},
		},
	)

	FlushItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_flush_items_total",
			Help: "Total number of queue items processed by flush",
		},
		[]string{"outcome"}, // "published", "duplicate", "failed", "skipped"
	)

	FlushLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_flush_last_success_timestamp",
			Help: "Unix timestamp of the last flush pass with no failures",
		},
	)

	AttachmentUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_attachment_uploads_total",
			Help: "Total number of attachment uploads",
		},
		[]string{"provider", "result"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"}, // "signed_url", "media", "identity"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"cache"},
	)

	// Directory Metrics
	DirectoryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_directory_lookups_total",
			Help: "Total number of directory identities resolved",
		},
		[]string{"source"}, // "cache", "backend"
	)

	// Feed Metrics
	FeedFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_feed_fetches_total",
			Help: "Total number of feed fetches",
		},
		[]string{"scope", "result"},
	)

	// Status API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_api_requests_total",
			Help: "Total number of status API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_api_request_duration_seconds",
			Help:    "Status API request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_websocket_connections_active",
			Help: "Number of active feed stream WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_websocket_messages_sent_total",
			Help: "Total number of feed snapshots pushed to WebSocket clients",
		},
	)

	// Local Library Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordTransportRequest records one backend round trip. status is 0 when
// no HTTP response was received.
func RecordTransportRequest(method string, status int, duration time.Duration) {
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	TransportRequestsTotal.WithLabelValues(method, label).Inc()
	TransportRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordFlush records a completed flush pass.
func RecordFlush(duration time.Duration, published, duplicates, failed, skipped int) {
	FlushDuration.Observe(duration.Seconds())
	FlushItemsTotal.WithLabelValues("published").Add(float64(published))
	FlushItemsTotal.WithLabelValues("duplicate").Add(float64(duplicates))
	FlushItemsTotal.WithLabelValues("failed").Add(float64(failed))
	FlushItemsTotal.WithLabelValues("skipped").Add(float64(skipped))
	if failed == 0 {
		FlushLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordCacheLookup records a hit or miss for the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
