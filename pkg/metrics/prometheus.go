// Package metrics provides Prometheus metrics for the RKS service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Rating engine
	ratingComputations *prometheus.CounterVec
	leaderboardBuild   prometheus.Histogram
	leaderboardUsers   prometheus.Gauge
	skippedUsers       prometheus.Counter
	cacheLookups       *prometheus.CounterVec

	// Submissions
	submissions *prometheus.CounterVec

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// Publisher
	publishErrors prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rks",
		subsystem:        "tracker",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.ratingComputations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rating_computations_total",
		Help:        "Overall rating computations by kind (user, leaderboard)",
		ConstLabels: m.constLabels,
	}, []string{"kind"})

	m.leaderboardBuild = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "leaderboard_build_milliseconds",
		Help:        "Time to fetch and rate every user for a leaderboard",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.leaderboardUsers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "leaderboard_users",
		Help:        "Users included in the last leaderboard build",
		ConstLabels: m.constLabels,
	})

	m.skippedUsers = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "leaderboard_skipped_users_total",
		Help:        "Users left out of a leaderboard because their scores could not be fetched",
		ConstLabels: m.constLabels,
	})

	m.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rating_cache_lookups_total",
		Help:        "Rating cache lookups by result (hit, miss)",
		ConstLabels: m.constLabels,
	}, []string{"result"})

	m.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "score_submissions_total",
		Help:        "Score submissions by outcome (inserted, duplicate, rejected, failed, deleted)",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_latency_milliseconds",
		Help:        "Score store call latency by operation",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"op"})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_errors_total",
		Help:        "Score store errors by operation",
		ConstLabels: m.constLabels,
	}, []string{"op"})

	m.publishErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "leaderboard_publish_errors_total",
		Help:        "Failed leaderboard snapshot publications",
		ConstLabels: m.constLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "HTTP requests by endpoint, method and status code",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_errors_total",
		Help:        "HTTP responses with status >= 400 by endpoint and error type",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "error_type"})
}

// RecordRatingComputation counts one overall rating computation of the given kind.
func RecordRatingComputation(kind string) {
	globalManager.ratingComputations.WithLabelValues(kind).Inc()
}

// RecordLeaderboardBuild records a leaderboard build and how many users it covered.
func RecordLeaderboardBuild(durationMs float64, users, skipped int) {
	globalManager.leaderboardBuild.Observe(durationMs)
	globalManager.leaderboardUsers.Set(float64(users))
	globalManager.skippedUsers.Add(float64(skipped))
}

// RecordCacheHit counts a rating cache hit.
func RecordCacheHit() { globalManager.cacheLookups.WithLabelValues("hit").Inc() }

// RecordCacheMiss counts a rating cache miss.
func RecordCacheMiss() { globalManager.cacheLookups.WithLabelValues("miss").Inc() }

// RecordSubmission counts a score submission outcome.
func RecordSubmission(outcome string) {
	globalManager.submissions.WithLabelValues(outcome).Inc()
}

// RecordStoreCall records the latency of a store operation and whether it failed.
func RecordStoreCall(op string, durationMs float64, err error) {
	globalManager.storeLatency.WithLabelValues(op).Observe(durationMs)
	if err != nil {
		globalManager.storeErrors.WithLabelValues(op).Inc()
	}
}

// RecordPublishError counts a failed leaderboard publication.
func RecordPublishError() { globalManager.publishErrors.Inc() }

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an HTTP error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType).Inc()
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
