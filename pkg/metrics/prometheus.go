// Package metrics provides Prometheus metrics for the tracksort service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the tracksort service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Session lifecycle
	sessionsCreated   prometheus.Counter
	sessionsCompleted prometheus.Counter
	sessionsRestarted prometheus.Counter
	sessionsDiscarded prometheus.Counter
	sessionsEvicted   *prometheus.CounterVec
	sessionsRefused   prometheus.Counter
	activeSessions    prometheus.Gauge
	scheduleSize      prometheus.Histogram

	// Comparisons
	comparisonsResolved prometheus.Counter
	resolutionsRejected *prometheus.CounterVec

	// Catalog collaborator
	catalogRequests      *prometheus.CounterVec
	catalogLatency       *prometheus.HistogramVec
	catalogBreakerState  prometheus.Gauge
	catalogRateLimitWait prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tracksort",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.sessionsCreated = m.counter("sessions_created_total", "Total number of ranking sessions created")
	m.sessionsCompleted = m.counter("sessions_completed_total", "Total number of ranking sessions that resolved every comparison")
	m.sessionsRestarted = m.counter("sessions_restarted_total", "Total number of completed sessions restarted with a fresh schedule")
	m.sessionsDiscarded = m.counter("sessions_discarded_total", "Total number of sessions discarded by the caller")
	m.sessionsEvicted = m.counterVec("sessions_evicted_total", "Total number of sessions evicted by the store", "reason")
	m.sessionsRefused = m.counter("sessions_refused_total", "Total number of sessions refused for lack of eligible tracks")
	m.activeSessions = m.gauge("active_sessions", "Current number of sessions held by the store")
	m.scheduleSize = m.histogram("schedule_size_pairs", "Number of pairs scheduled per session",
		[]float64{1, 3, 6, 9, 13, 17, 24, 36, 48, 72, 100})

	m.comparisonsResolved = m.counter("comparisons_resolved_total", "Total number of comparisons resolved")
	m.resolutionsRejected = m.counterVec("resolutions_rejected_total", "Total number of rejected resolutions by reason", "reason")

	m.catalogRequests = m.counterVec("catalog_requests_total", "Total number of catalog requests by endpoint and outcome", "endpoint", "outcome")
	m.catalogLatency = m.histogramVec("catalog_request_duration_milliseconds", "Catalog request latency in milliseconds", "endpoint")
	m.catalogBreakerState = m.gauge("catalog_breaker_state", "Catalog circuit breaker state (0 closed, 1 half-open, 2 open)")
	m.catalogRateLimitWait = m.histogram("catalog_rate_limit_wait_milliseconds", "Time spent waiting for the catalog rate limiter", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Session Metrics Functions.

// RecordSessionCreated counts a new session and the size of its schedule.
func RecordSessionCreated(pairs int) {
	globalManager.sessionsCreated.Inc()
	globalManager.scheduleSize.Observe(float64(pairs))
}

// RecordSessionCompleted increments the completed sessions counter.
func RecordSessionCompleted() {
	globalManager.sessionsCompleted.Inc()
}

// RecordSessionRestarted increments the restarted sessions counter.
func RecordSessionRestarted(pairs int) {
	globalManager.sessionsRestarted.Inc()
	globalManager.scheduleSize.Observe(float64(pairs))
}

// RecordSessionDiscarded increments the discarded sessions counter.
func RecordSessionDiscarded() {
	globalManager.sessionsDiscarded.Inc()
}

// RecordSessionEvicted counts a session removed by the store, e.g. "capacity" or "expired".
func RecordSessionEvicted(reason string) {
	globalManager.sessionsEvicted.WithLabelValues(reason).Inc()
}

// RecordSessionRefused counts a session that could not start.
func RecordSessionRefused() {
	globalManager.sessionsRefused.Inc()
}

// UpdateActiveSessions sets the number of sessions held by the store.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// Comparison Metrics Functions.

// RecordComparisonResolved increments the resolved comparisons counter.
func RecordComparisonResolved() {
	globalManager.comparisonsResolved.Inc()
}

// RecordResolutionRejected counts a rejected resolution, e.g. "invalid_winner" or "stale_step".
func RecordResolutionRejected(reason string) {
	globalManager.resolutionsRejected.WithLabelValues(reason).Inc()
}

// Catalog Metrics Functions.

// RecordCatalogRequest records one catalog call and its latency.
func RecordCatalogRequest(endpoint, outcome string, latencyMs float64) {
	globalManager.catalogRequests.WithLabelValues(endpoint, outcome).Inc()
	globalManager.catalogLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// UpdateCatalogBreakerState sets the breaker state gauge.
func UpdateCatalogBreakerState(state int) {
	globalManager.catalogBreakerState.Set(float64(state))
}

// RecordCatalogRateLimitWait records time spent waiting for a limiter token.
func RecordCatalogRateLimitWait(waitMs float64) {
	globalManager.catalogRateLimitWait.Observe(waitMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
