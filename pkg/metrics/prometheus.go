// Package metrics provides Prometheus metrics for the racepick service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every racepick metric.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Simulation
	simulations       *prometheus.CounterVec
	simulationTrials  prometheus.Counter
	simulationLatency prometheus.Histogram

	// Reports
	pairings            *prometheus.CounterVec
	reportsBuilt        prometheus.Counter
	reportBuildDuration prometheus.Histogram

	// Optimizer
	optimizerQueries *prometheus.CounterVec
	optimizerSlates  prometheus.Counter
	optimizerLatency prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActive            prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// Stores
	storeOperations *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "racepick",
		subsystem:        "",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		enabled:          true,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.simulations = m.counterVec("simulations_total",
		"Race simulations run, by race", "race")
	m.simulationTrials = m.counter("simulation_trials_total",
		"Simulated races across all simulations")
	m.simulationLatency = m.histogram("simulation_latency_milliseconds",
		"Time spent simulating one discipline")

	m.pairings = m.counterVec("pairings_total",
		"Evaluated pairings, by outcome status", "status")
	m.reportsBuilt = m.counter("reports_built_total",
		"Prediction reports built")
	m.reportBuildDuration = m.histogram("report_build_duration_milliseconds",
		"Time spent building a full prediction report")

	m.optimizerQueries = m.counterVec("optimizer_queries_total",
		"Lineup optimizer queries, by mode", "mode")
	m.optimizerSlates = m.counter("optimizer_slates_total",
		"Legal slates enumerated by the optimizer")
	m.optimizerLatency = m.histogram("optimizer_latency_milliseconds",
		"Time spent answering one optimizer query")

	m.queueSize = m.gauge("queue_size", "Pairing jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Pairing queue capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Pairing jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Pairing jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Rejected enqueue attempts")

	m.workerCount = m.gauge("worker_count", "Evaluation workers in the pool")
	m.workerActive = m.gauge("worker_active", "Workers currently evaluating a pairing")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time a worker spends on one pairing")

	m.storeOperations = m.counterVec("store_operations_total",
		"Prediction store operations", "backend", "op", "result")

	m.httpRequests = m.counterVec("http_requests_total",
		"HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.customLabels, Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total",
		"Errors by component and kind", "component", "kind")
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// RecordSimulation records one discipline simulation.
func (m *Manager) RecordSimulation(race string, trials int, took time.Duration) {
	if !m.enabled {
		return
	}
	m.simulations.WithLabelValues(race).Inc()
	m.simulationTrials.Add(float64(trials))
	m.simulationLatency.Observe(ms(took))
}

// RecordPairing counts an evaluated pairing by status.
func (m *Manager) RecordPairing(status string) {
	if !m.enabled {
		return
	}
	m.pairings.WithLabelValues(status).Inc()
}

// RecordReportBuilt records a finished report build.
func (m *Manager) RecordReportBuilt(took time.Duration) {
	if !m.enabled {
		return
	}
	m.reportsBuilt.Inc()
	m.reportBuildDuration.Observe(ms(took))
}

// RecordOptimizerQuery records one optimizer query.
func (m *Manager) RecordOptimizerQuery(mode string, slates int, took time.Duration) {
	if !m.enabled {
		return
	}
	m.optimizerQueries.WithLabelValues(mode).Inc()
	m.optimizerSlates.Add(float64(slates))
	m.optimizerLatency.Observe(ms(took))
}

// UpdateQueue sets the queue size and capacity gauges.
func (m *Manager) UpdateQueue(size, capacity int) {
	if !m.enabled {
		return
	}
	m.queueSize.Set(float64(size))
	m.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an enqueue attempt.
func (m *Manager) RecordQueueEnqueue(ok bool) {
	if !m.enabled {
		return
	}
	if ok {
		m.queueEnqueued.Inc()
		return
	}
	m.queueEnqueueErrors.Inc()
}

// RecordQueueDequeue counts a dequeued job.
func (m *Manager) RecordQueueDequeue() {
	if !m.enabled {
		return
	}
	m.queueDequeued.Inc()
}

// UpdateWorkers sets the pool size and busy worker gauges.
func (m *Manager) UpdateWorkers(total, active int) {
	if !m.enabled {
		return
	}
	m.workerCount.Set(float64(total))
	m.workerActive.Set(float64(active))
}

// RecordWorkerLatency records the time spent on one job.
func (m *Manager) RecordWorkerLatency(took time.Duration) {
	if !m.enabled {
		return
	}
	m.workerProcessingLatency.Observe(ms(took))
}

// RecordStoreOperation counts a store call.
func (m *Manager) RecordStoreOperation(backend, op string, err error) {
	if !m.enabled {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeOperations.WithLabelValues(backend, op, result).Inc()
}

// RecordHTTPRequest records an HTTP request and its duration in milliseconds.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordError counts an error for a component.
func (m *Manager) RecordError(component, kind string) {
	if !m.enabled {
		return
	}
	m.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// Global forwarding functions.

// RecordSimulation records one discipline simulation on the global manager.
func RecordSimulation(race string, trials int, took time.Duration) {
	globalManager.RecordSimulation(race, trials, took)
}

// RecordPairing counts an evaluated pairing by status.
func RecordPairing(status string) { globalManager.RecordPairing(status) }

// RecordReportBuilt records a finished report build.
func RecordReportBuilt(took time.Duration) { globalManager.RecordReportBuilt(took) }

// RecordOptimizerQuery records one optimizer query.
func RecordOptimizerQuery(mode string, slates int, took time.Duration) {
	globalManager.RecordOptimizerQuery(mode, slates, took)
}

// UpdateQueue sets the queue gauges.
func UpdateQueue(size, capacity int) { globalManager.UpdateQueue(size, capacity) }

// RecordQueueEnqueue counts an enqueue attempt.
func RecordQueueEnqueue(ok bool) { globalManager.RecordQueueEnqueue(ok) }

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() { globalManager.RecordQueueDequeue() }

// UpdateWorkers sets the worker gauges.
func UpdateWorkers(total, active int) { globalManager.UpdateWorkers(total, active) }

// RecordWorkerLatency records the time spent on one job.
func RecordWorkerLatency(took time.Duration) { globalManager.RecordWorkerLatency(took) }

// RecordStoreOperation counts a store call.
func RecordStoreOperation(backend, op string, err error) {
	globalManager.RecordStoreOperation(backend, op, err)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordError counts an error for a component.
func RecordError(component, kind string) { globalManager.RecordError(component, kind) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
