// Package metrics provides Prometheus metrics for vtxana runs.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for an analysis run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Event throughput
	eventsProcessed prometheus.Counter
	eventLatency    prometheus.Histogram

	// Selection
	candidates         *prometheus.CounterVec
	candidatesSelected *prometheus.CounterVec
	candidatesSkipped  *prometheus.CounterVec
	regionPasses       *prometheus.CounterVec
	cutFlowStage       *prometheus.GaugeVec

	// Queue between the reader and the analysis worker
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge

	// Monitor endpoint
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vtxana",
		subsystem:        "analysis",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.eventsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_processed_total",
		Help:        "Total number of events fully processed by the pipeline",
		ConstLabels: labels,
	})

	m.eventLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "event_processing_latency_milliseconds",
		Help:        "Time spent processing one event across all stages",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.candidates = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "candidates_total",
		Help:        "Vertex candidates entering a selector",
		ConstLabels: labels,
	}, []string{"selector"})

	m.candidatesSelected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "candidates_selected_total",
		Help:        "Vertex candidates accepted by a selector",
		ConstLabels: labels,
	}, []string{"selector"})

	m.candidatesSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "candidates_skipped_total",
		Help:        "Candidates skipped on a recoverable error, by reason",
		ConstLabels: labels,
	}, []string{"selector", "reason"})

	m.regionPasses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "region_pass_total",
		Help:        "Events passing every cut of a region",
		ConstLabels: labels,
	}, []string{"region"})

	m.cutFlowStage = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cutflow_stage_count",
		Help:        "Weighted count reaching each cut-flow stage at end of run",
		ConstLabels: labels,
	}, []string{"selector", "stage"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_size",
		Help:        "Events read but not yet processed",
		ConstLabels: labels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_capacity",
		Help:        "Capacity of the read-ahead event queue",
		ConstLabels: labels,
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_utilization_ratio",
		Help:        "Queue size divided by capacity",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "requests_total",
		Help:        "Monitor endpoint requests by endpoint, method and status",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "request_duration_milliseconds",
		Help:        "Monitor endpoint request duration",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_total",
		Help:        "Errors by component and type",
		ConstLabels: labels,
	}, []string{"component", "type"})
}

// RecordEventProcessed increments the events processed counter.
func RecordEventProcessed() {
	globalManager.eventsProcessed.Inc()
}

// RecordEventLatency records per-event processing latency in milliseconds.
func RecordEventLatency(latencyMs float64) {
	globalManager.eventLatency.Observe(latencyMs)
}

// RecordCandidate counts a candidate entering selector.
func RecordCandidate(selector string) {
	globalManager.candidates.WithLabelValues(selector).Inc()
}

// RecordCandidateSelected counts a candidate accepted by selector.
func RecordCandidateSelected(selector string) {
	globalManager.candidatesSelected.WithLabelValues(selector).Inc()
}

// RecordCandidateSkipped counts a candidate skipped by selector for reason.
func RecordCandidateSkipped(selector, reason string) {
	globalManager.candidatesSkipped.WithLabelValues(selector, reason).Inc()
}

// RecordRegionPass counts an event passing region.
func RecordRegionPass(region string) {
	globalManager.regionPasses.WithLabelValues(region).Inc()
}

// UpdateCutFlowStage publishes the final count of a cut-flow stage.
func UpdateCutFlowStage(selector, stage string, count float64) {
	globalManager.cutFlowStage.WithLabelValues(selector, stage).Set(count)
}

// UpdateQueueSize sets the current queue depth.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordHTTPRequest counts a monitor endpoint request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records a monitor endpoint request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the current metrics in the text exposition format,
// for node-exporter style textfile collection after a batch run.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteMetrics, err)
	}
	return nil
}
