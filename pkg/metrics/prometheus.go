// Package metrics provides Prometheus metrics for the interview orchestrator.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the interview service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  atomic.Int64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Session lifecycle
	sessionsStarted  prometheus.Counter
	sessionsFinished *prometheus.CounterVec
	activeSessions   prometheus.Gauge

	// Transcript
	utterancesRecorded  *prometheus.CounterVec
	utterancesDropped   *prometheus.CounterVec
	utterancesDuplicate prometheus.Counter

	// Persistence
	persistenceLatency prometheus.Histogram
	persistenceErrors  prometheus.Counter

	// Analysis
	analysisRuns    *prometheus.CounterVec
	analysisLatency prometheus.Histogram

	// Search tool
	searchRequests *prometheus.CounterVec
	searchLatency  prometheus.Histogram

	// Analysis queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Analysis workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
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
		namespace:        "interviewer",
		subsystem:        "orchestrator",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)
	m.refreshInterval.Store(int64(defaultRefreshInterval))

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// Enabled reports whether recorders update this manager's metrics.
func (m *Manager) Enabled() bool { return m.enabled.Load() }

// RefreshInterval is how often gauge metrics should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return time.Duration(m.refreshInterval.Load())
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.sessionsStarted = m.counter("sessions_started_total", "Total number of interview sessions started")
	m.sessionsFinished = m.counterVec("sessions_finished_total", "Total number of sessions reaching a terminal status", "status")
	m.activeSessions = m.gauge("active_sessions", "Sessions that have not yet released their resources")

	m.utterancesRecorded = m.counterVec("utterances_recorded_total", "Utterances appended to transcripts by role", "role")
	m.utterancesDropped = m.counterVec("utterances_dropped_total", "Utterances not appended, by reason", "reason")
	m.utterancesDuplicate = m.counter("utterances_duplicate_total", "Utterance deliveries ignored as redeliveries")

	m.persistenceLatency = m.histogram("persistence_latency_milliseconds", "Time to write transcript artifacts", m.histogramBuckets)
	m.persistenceErrors = m.counter("persistence_errors_total", "Transcript artifact write failures")

	m.analysisRuns = m.counterVec("analysis_runs_total", "Analysis pipeline runs by outcome", "outcome")
	m.analysisLatency = m.histogram("analysis_latency_milliseconds", "End-to-end analysis pipeline latency", m.histogramBuckets)

	m.searchRequests = m.counterVec("search_requests_total", "Search tool calls by outcome", "outcome")
	m.searchLatency = m.histogram("search_latency_milliseconds", "Search tool call latency", m.histogramBuckets)

	m.queueSize = m.gauge("analysis_queue_size", "Analysis jobs waiting for a worker")
	m.queueCapacity = m.gauge("analysis_queue_capacity", "Maximum number of queued analysis jobs")
	m.queueEnqueueRate = m.counter("analysis_queue_enqueue_total", "Analysis jobs enqueued")
	m.queueDequeueRate = m.counter("analysis_queue_dequeue_total", "Analysis jobs handed to workers")
	m.queueEnqueueErrors = m.counter("analysis_queue_enqueue_errors_total", "Analysis jobs rejected by the queue")

	m.workerCount = m.gauge("analysis_worker_count", "Number of analysis workers")
	m.workerProcessingLatency = m.histogram("analysis_worker_processing_latency_milliseconds", "Worker time per analysis job", m.histogramBuckets)
	m.workerErrors = m.counter("analysis_worker_errors_total", "Analysis jobs that returned an error to the worker")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Session metrics.

// RecordSessionStarted increments the started sessions counter.
func RecordSessionStarted() {
	if !globalManager.Enabled() {
		return
	}
	globalManager.sessionsStarted.Inc()
}

// RecordSessionFinished counts a session reaching a terminal status.
func RecordSessionFinished(status string) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.sessionsFinished.WithLabelValues(status).Inc()
}

// UpdateActiveSessions sets the number of live sessions.
func UpdateActiveSessions(count int) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.activeSessions.Set(float64(count))
}

// Transcript metrics.

// RecordUtteranceRecorded counts an appended utterance.
func RecordUtteranceRecorded(role string) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.utterancesRecorded.WithLabelValues(role).Inc()
}

// RecordUtteranceDropped counts an utterance that was not appended.
func RecordUtteranceDropped(reason string) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.utterancesDropped.WithLabelValues(reason).Inc()
}

// RecordUtteranceDuplicate counts an ignored redelivery.
func RecordUtteranceDuplicate() {
	if !globalManager.Enabled() {
		return
	}
	globalManager.utterancesDuplicate.Inc()
}

// Persistence metrics.

// RecordPersistenceLatency records artifact write latency in milliseconds.
func RecordPersistenceLatency(latencyMs float64) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.persistenceLatency.Observe(latencyMs)
}

// RecordPersistenceError increments the persistence error counter.
func RecordPersistenceError() {
	if !globalManager.Enabled() {
		return
	}
	globalManager.persistenceErrors.Inc()
	RecordErrorByComponent("repository", "write_failed")
}

// Analysis metrics.

// RecordAnalysisOutcome counts a pipeline run: success, skipped or failed.
func RecordAnalysisOutcome(outcome string) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.analysisRuns.WithLabelValues(outcome).Inc()
}

// RecordAnalysisLatency records pipeline latency in milliseconds.
func RecordAnalysisLatency(latencyMs float64) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.analysisLatency.Observe(latencyMs)
}

// Search metrics.

// RecordSearchOutcome counts a search call: answer, results, empty, no_credential or error.
func RecordSearchOutcome(outcome string) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.searchRequests.WithLabelValues(outcome).Inc()
}

// RecordSearchLatency records search latency in milliseconds.
func RecordSearchLatency(latencyMs float64) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.searchLatency.Observe(latencyMs)
}

// Queue metrics.

// UpdateQueueSize sets the number of queued analysis jobs.
func UpdateQueueSize(size int) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if !globalManager.Enabled() {
		return
	}
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if !globalManager.Enabled() {
		return
	}
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the rejected enqueue counter.
func RecordQueueEnqueueError() {
	if !globalManager.Enabled() {
		return
	}
	globalManager.queueEnqueueErrors.Inc()
}

// Worker metrics.

// UpdateWorkerCount sets the number of analysis workers.
func UpdateWorkerCount(count int) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if !globalManager.Enabled() {
		return
	}
	globalManager.workerErrors.Inc()
}

// HTTP metrics.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.Enabled() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// SetEnabled turns the package-level recorders on or off.
func SetEnabled(enabled bool) {
	globalManager.enabled.Store(enabled)
}

// Enabled reports whether the package-level recorders are active.
func Enabled() bool {
	return globalManager.Enabled()
}

// SetRefreshInterval changes how often gauge updaters should run.
// Non-positive values are ignored.
func SetRefreshInterval(interval time.Duration) {
	if interval > 0 {
		globalManager.refreshInterval.Store(int64(interval))
	}
}

// RefreshInterval returns the gauge refresh interval.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
