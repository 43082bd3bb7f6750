// Package metrics provides Prometheus metrics for the canon resolution service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Cache
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheWrites prometheus.Counter
	cacheErrors *prometheus.CounterVec

	// Resolution
	resolutions       *prometheus.CounterVec
	resolutionLatency *prometheus.HistogramVec

	// Entity store
	storeQueryLatency *prometheus.HistogramVec
	storeErrors       *prometheus.CounterVec
	storeSessions     prometheus.Counter

	// Batch
	batchItems      *prometheus.CounterVec
	batchUniqueKeys *prometheus.CounterVec
	batchLatency    *prometheus.HistogramVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerActive      prometheus.Gauge
	workerBusy        prometheus.Gauge
	workerTaskLatency prometheus.Histogram
	workerPanics      prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "canon",
		subsystem:        "resolver",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		constLabels:      prometheus.Labels{},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.cacheHits = m.counter("cache_hits_total", "Cache lookups answered from the cache")
	m.cacheMisses = m.counter("cache_misses_total", "Cache lookups that fell through to the entity store")
	m.cacheWrites = m.counter("cache_writes_total", "Resolved results written to the cache")
	m.cacheErrors = m.counterVec("cache_errors_total", "Cache backend failures absorbed by the client", "op")

	m.resolutions = m.counterVec("resolutions_total", "Resolutions by category and outcome", "category", "outcome")
	m.resolutionLatency = m.histogramVec("resolution_latency_milliseconds", "End-to-end single resolution latency", "category")

	m.storeQueryLatency = m.histogramVec("store_query_latency_milliseconds", "Entity store statement latency", "op")
	m.storeErrors = m.counterVec("store_errors_total", "Entity store failures", "op")
	m.storeSessions = m.counter("store_sessions_total", "Pinned entity store sessions opened")

	m.batchItems = m.counterVec("batch_items_total", "Names submitted through batch resolution", "category")
	m.batchUniqueKeys = m.counterVec("batch_unique_keys_total", "Distinct canonical keys resolved against the store", "category")
	m.batchLatency = m.histogramVec("batch_latency_milliseconds", "Batch resolution latency", "kind")

	m.queueSize = m.gauge("queue_size", "Tasks waiting in the worker queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the worker queue")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Tasks accepted by the worker queue")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Tasks rejected by the worker queue")

	m.workerActive = m.gauge("worker_active_count", "Workers running in the pool")
	m.workerBusy = m.gauge("worker_busy_count", "Workers currently executing a task")
	m.workerTaskLatency = m.histogram("worker_task_latency_milliseconds", "Task execution latency")
	m.workerPanics = m.counter("worker_panics_total", "Tasks that panicked and were recovered")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes in use")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Most recent GC pause")
}

func on() bool { return globalManager != nil && globalManager.enabled }

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	if on() {
		globalManager.cacheHits.Inc()
	}
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	if on() {
		globalManager.cacheMisses.Inc()
	}
}

// RecordCacheWrite increments the cache write counter.
func RecordCacheWrite() {
	if on() {
		globalManager.cacheWrites.Inc()
	}
}

// RecordCacheError records an absorbed cache backend failure.
func RecordCacheError(op string) {
	if on() {
		globalManager.cacheErrors.WithLabelValues(op).Inc()
	}
}

// RecordResolution records the outcome of one resolution (found, not_found, error).
func RecordResolution(category, outcome string) {
	if on() {
		globalManager.resolutions.WithLabelValues(category, outcome).Inc()
	}
}

// RecordResolutionLatency records single-item latency in milliseconds.
func RecordResolutionLatency(category string, latencyMs float64) {
	if on() {
		globalManager.resolutionLatency.WithLabelValues(category).Observe(latencyMs)
	}
}

// RecordStoreQueryLatency records statement latency in milliseconds.
func RecordStoreQueryLatency(op string, latencyMs float64) {
	if on() {
		globalManager.storeQueryLatency.WithLabelValues(op).Observe(latencyMs)
	}
}

// RecordStoreError records a failed store operation.
func RecordStoreError(op string) {
	if on() {
		globalManager.storeErrors.WithLabelValues(op).Inc()
	}
}

// RecordStoreSession counts a pinned session.
func RecordStoreSession() {
	if on() {
		globalManager.storeSessions.Inc()
	}
}

// RecordBatchItems adds submitted names for a category.
func RecordBatchItems(category string, n int) {
	if on() {
		globalManager.batchItems.WithLabelValues(category).Add(float64(n))
	}
}

// RecordBatchUniqueKeys adds distinct canonical keys sent to the store.
func RecordBatchUniqueKeys(category string, n int) {
	if on() {
		globalManager.batchUniqueKeys.WithLabelValues(category).Add(float64(n))
	}
}

// RecordBatchLatency records a batch latency ("independent" or "precision").
func RecordBatchLatency(kind string, latencyMs float64) {
	if on() {
		globalManager.batchLatency.WithLabelValues(kind).Observe(latencyMs)
	}
}

// UpdateQueueSize sets the queue backlog gauge.
func UpdateQueueSize(size int) {
	if on() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue counts an accepted task.
func RecordQueueEnqueue() {
	if on() {
		globalManager.queueEnqueued.Inc()
	}
}

// RecordQueueEnqueueError counts a rejected task.
func RecordQueueEnqueueError() {
	if on() {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	if on() {
		globalManager.workerActive.Set(float64(count))
	}
}

// AddWorkerBusy adjusts the busy worker gauge by delta.
func AddWorkerBusy(delta int) {
	if on() {
		globalManager.workerBusy.Add(float64(delta))
	}
}

// RecordWorkerTaskLatency records task execution latency in milliseconds.
func RecordWorkerTaskLatency(latencyMs float64) {
	if on() {
		globalManager.workerTaskLatency.Observe(latencyMs)
	}
}

// RecordWorkerPanic counts a recovered task panic.
func RecordWorkerPanic() {
	if on() {
		globalManager.workerPanics.Inc()
	}
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent counts an error attributed to a component.
func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records a GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if on() {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
