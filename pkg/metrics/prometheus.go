// Package metrics provides Prometheus metrics for the mazeball leaderboard service.
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

// Latency histograms observe milliseconds; SQLite calls sit at the low end.
var defaultLatencyBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000} //nolint:gochecknoglobals // read-only defaults

// Manager manages all Prometheus metrics for the mazeball service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Sync / merge outcomes
	syncRequests     prometheus.Counter
	scoresSubmitted  prometheus.Counter
	entriesCreated   prometheus.Counter
	entriesImproved  prometheus.Counter
	scoresKept       prometheus.Counter
	nicknameRenames  prometheus.Counter
	nicknameConflict prometheus.Counter

	// Leaderboard state
	levels       prometheus.Gauge
	entries      prometheus.Gauge
	namedEntries prometheus.Gauge
	devices      prometheus.Gauge

	// Persistent store
	storageLatency *prometheus.HistogramVec
	storageErrors  *prometheus.CounterVec

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
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mazeball",
		subsystem:        "leaderboard",
		histogramBuckets: defaultLatencyBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval reports how often gauges should be refreshed by the owner.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool {
	return m.enabled
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.syncRequests = m.counter("sync_requests_total", "Total number of score sync requests")
	m.scoresSubmitted = m.counter("scores_submitted_total", "Total number of (level, time) pairs submitted by devices")
	m.entriesCreated = m.counter("entries_created_total", "Leaderboard entries created on a device's first time for a level")
	m.entriesImproved = m.counter("entries_improved_total", "Submissions that lowered a stored best time")
	m.scoresKept = m.counter("scores_kept_total", "Submissions equal to or worse than the stored best time")
	m.nicknameRenames = m.counter("nickname_renames_total", "Successful nickname changes")
	m.nicknameConflict = m.counter("nickname_conflicts_total", "Nickname changes rejected because another device holds the name")

	m.levels = m.gauge("levels", "Number of levels with at least one entry")
	m.entries = m.gauge("entries", "Number of leaderboard entries across all levels")
	m.namedEntries = m.gauge("named_entries", "Number of leaderboard entries with a nickname (publicly visible)")
	m.devices = m.gauge("registered_devices", "Number of devices with a registered nickname")

	m.storageLatency = m.histogramVec("storage_operation_duration_milliseconds",
		"Persistent store operation latency in milliseconds", "op")
	m.storageErrors = m.counterVec("storage_errors_total", "Persistent store operations that failed", "op")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.customLabels,
	})
}

// RecordSync increments the sync request counter and the submitted scores counter.
func RecordSync(scores int) {
	if !globalManager.enabled {
		return
	}
	globalManager.syncRequests.Inc()
	globalManager.scoresSubmitted.Add(float64(scores))
}

// RecordMergeOutcome adds the per-submission merge outcome counts.
func RecordMergeOutcome(created, improved, kept int) {
	if !globalManager.enabled {
		return
	}
	globalManager.entriesCreated.Add(float64(created))
	globalManager.entriesImproved.Add(float64(improved))
	globalManager.scoresKept.Add(float64(kept))
}

// RecordRename increments the successful rename counter.
func RecordRename() {
	if !globalManager.enabled {
		return
	}
	globalManager.nicknameRenames.Inc()
}

// RecordNicknameConflict increments the rejected rename counter.
func RecordNicknameConflict() {
	if !globalManager.enabled {
		return
	}
	globalManager.nicknameConflict.Inc()
}

// UpdateLeaderboardSize sets the leaderboard state gauges.
func UpdateLeaderboardSize(levels, entries, named int) {
	if !globalManager.enabled {
		return
	}
	globalManager.levels.Set(float64(levels))
	globalManager.entries.Set(float64(entries))
	globalManager.namedEntries.Set(float64(named))
}

// UpdateRegisteredDevices sets the registered device gauge.
func UpdateRegisteredDevices(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.devices.Set(float64(count))
}

// RecordStorageLatency records one persistent store operation latency.
func RecordStorageLatency(op string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.storageLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStorageError increments the failed storage operation counter.
func RecordStorageError(op string) {
	if !globalManager.enabled {
		return
	}
	globalManager.storageErrors.WithLabelValues(op).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RefreshInterval reports the global manager's gauge refresh interval.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
