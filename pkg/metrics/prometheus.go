// Package metrics provides Prometheus metrics for the cadet tracker API.
package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// dbLatencyBuckets are tuned for single-row MySQL statements (milliseconds).
var dbLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge

	// Store
	dbQueries      *prometheus.CounterVec
	dbQueryLatency *prometheus.HistogramVec
	dbRollbacks    *prometheus.CounterVec

	// Connection pool
	poolOpen         prometheus.Gauge
	poolInUse        prometheus.Gauge
	poolIdle         prometheus.Gauge
	poolWaitCount    prometheus.Gauge
	poolWaitDuration prometheus.Gauge
	poolMaxOpen      prometheus.Gauge

	// Domain
	entitiesCreated *prometheus.CounterVec
	entitiesDeleted *prometheus.CounterVec

	// Errors
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cadet",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // collector declarations
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.httpInFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_in_flight",
		Help:      "Requests currently being served",
	})

	m.dbQueries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "db_queries_total",
		Help:      "Store operations by name and result (ok, not_found, conflict, error)",
	}, []string{"operation", "result"})

	m.dbQueryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "db_query_latency_milliseconds",
		Help:      "Store operation latency in milliseconds",
		Buckets:   dbLatencyBuckets,
	}, []string{"operation"})

	m.dbRollbacks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "db_tx_rollbacks_total",
		Help:      "Transactions rolled back by operation",
	}, []string{"operation"})

	m.poolOpen = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "db_pool_open_connections",
		Help:      "Established connections, both in use and idle",
	})
	m.poolInUse = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "db_pool_in_use_connections",
		Help:      "Connections currently in use",
	})
	m.poolIdle = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "db_pool_idle_connections",
		Help:      "Idle connections",
	})
	m.poolWaitCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "db_pool_wait_count",
		Help:      "Total number of connections waited for",
	})
	m.poolWaitDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "db_pool_wait_duration_seconds",
		Help:      "Total time blocked waiting for a new connection",
	})
	m.poolMaxOpen = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "db_pool_max_open_connections",
		Help:      "Configured pool capacity",
	})

	m.entitiesCreated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entities_created_total",
		Help:      "Rows created by entity",
	}, []string{"entity"})

	m.entitiesDeleted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entities_deleted_total",
		Help:      "Rows deleted by entity",
	}, []string{"entity"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_type_total",
		Help:      "Errors by type and severity",
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Errors by endpoint, method and type",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Heap bytes allocated",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Number of goroutines",
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50},
	})
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// IncInFlight and DecInFlight track requests being served.
func IncInFlight() { globalManager.httpInFlight.Inc() }
func DecInFlight() { globalManager.httpInFlight.Dec() }

// RecordDBQuery records the outcome and latency of a store operation.
func RecordDBQuery(operation, result string, latency time.Duration) {
	globalManager.dbQueries.WithLabelValues(operation, result).Inc()
	globalManager.dbQueryLatency.WithLabelValues(operation).Observe(float64(latency) / float64(time.Millisecond))
}

// RecordRollback counts a rolled back transaction.
func RecordRollback(operation string) {
	globalManager.dbRollbacks.WithLabelValues(operation).Inc()
}

// UpdatePoolStats copies database/sql pool statistics into gauges.
func UpdatePoolStats(s sql.DBStats) {
	globalManager.poolOpen.Set(float64(s.OpenConnections))
	globalManager.poolInUse.Set(float64(s.InUse))
	globalManager.poolIdle.Set(float64(s.Idle))
	globalManager.poolWaitCount.Set(float64(s.WaitCount))
	globalManager.poolWaitDuration.Set(s.WaitDuration.Seconds())
	globalManager.poolMaxOpen.Set(float64(s.MaxOpenConnections))
}

// RecordEntityCreated increments the created counter for entity.
func RecordEntityCreated(entity string) {
	globalManager.entitiesCreated.WithLabelValues(entity).Inc()
}

// RecordEntitiesDeleted adds n to the deleted counter for entity.
func RecordEntitiesDeleted(entity string, n int64) {
	if n <= 0 {
		return
	}
	globalManager.entitiesDeleted.WithLabelValues(entity).Add(float64(n))
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutineCount.Set(float64(n))
}

// RecordSystemGCPauseTime observes an average GC pause in milliseconds.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.systemGCPauseTime.Observe(ms)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
