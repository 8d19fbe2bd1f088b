// Package metrics provides Prometheus metrics for the guardian moderation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the guardian service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline metrics
	submissionsTotal   prometheus.Counter
	decisionsTotal     *prometheus.CounterVec
	validationFailures prometheus.Counter
	pipelineLatency    prometheus.Histogram

	// Signal metrics
	signalLatency     prometheus.Histogram
	signalErrors      *prometheus.CounterVec
	signalUnavailable prometheus.Counter

	// Similarity metrics
	duplicatesDetected  prometheus.Counter
	adjusterEscalations prometheus.Counter
	indexQueryErrors    *prometheus.CounterVec
	indexSize           prometheus.Gauge

	// Review metrics
	humanVerdicts  *prometheus.CounterVec
	pendingReviews prometheus.Gauge

	// Publish queue metrics
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueUtilization  prometheus.Gauge
	queueEnqueues     prometheus.Counter
	queueDequeues     prometheus.Counter
	queueEnqueueError prometheus.Counter

	// Publisher metrics
	workerActive     prometheus.Gauge
	publishLatency   prometheus.Histogram
	publishErrors    *prometheus.CounterVec
	deliveryAttempts prometheus.Counter
	deliverySuccess  prometheus.Counter
	deadLetters      *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "guardian",
		subsystem:        "moderation",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // metric registration is inherently long
	auto := promauto.With(m.registry)

	m.submissionsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_total",
		Help:      "Total number of submissions entering the pipeline",
	})
	m.decisionsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decisions_total",
		Help:      "Total number of decisions by tier",
	}, []string{"tier"})
	m.validationFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "validation_failures_total",
		Help:      "Total number of submissions rejected by the normalizer",
	})
	m.pipelineLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_latency_milliseconds",
		Help:      "End-to-end classify pipeline latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.signalLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "signal_latency_milliseconds",
		Help:      "Per-modality signal scoring latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.signalErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "signal_errors_total",
		Help:      "Total number of failed modality scoring calls",
	}, []string{"modality"})
	m.signalUnavailable = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "signal_unavailable_total",
		Help:      "Total number of runs where every modality scorer failed",
	})

	m.duplicatesDetected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicates_detected_total",
		Help:      "Total number of submissions flagged as duplicates",
	})
	m.adjusterEscalations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "adjuster_escalations_total",
		Help:      "Total number of tier escalations from historical verdicts",
	})
	m.indexQueryErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "index_query_errors_total",
		Help:      "Total number of failed similarity index queries",
	}, []string{"component"})
	m.indexSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "index_size",
		Help:      "Number of embeddings held by the similarity index",
	})

	m.humanVerdicts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "human_verdicts_total",
		Help:      "Total number of recorded human verdicts",
	}, []string{"verdict"})
	m.pendingReviews = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pending_reviews",
		Help:      "Number of decisions awaiting human review",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_queue_size",
		Help:      "Current number of queued publish jobs",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_queue_capacity",
		Help:      "Maximum capacity of the publish queue",
	})
	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_queue_utilization",
		Help:      "Publish queue utilization ratio (0-1)",
	})
	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_queue_enqueues_total",
		Help:      "Total number of publish jobs enqueued",
	})
	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_queue_dequeues_total",
		Help:      "Total number of publish jobs dequeued",
	})
	m.queueEnqueueError = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_queue_enqueue_errors_total",
		Help:      "Total number of failed enqueue operations",
	})

	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_workers_active",
		Help:      "Number of active publish workers",
	})
	m.publishLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_latency_milliseconds",
		Help:      "Per-job outcome publishing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.publishErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_errors_total",
		Help:      "Total number of failed publish responsibilities by task",
	}, []string{"task"})
	m.deliveryAttempts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "delivery_attempts_total",
		Help:      "Total number of webhook delivery attempts",
	})
	m.deliverySuccess = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "delivery_success_total",
		Help:      "Total number of successful webhook deliveries",
	})
	m.deadLetters = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dead_letters_total",
		Help:      "Total number of dead-lettered publish responsibilities by kind",
	}, []string{"kind"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated heap memory in bytes",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// RecordSubmission increments the submissions counter.
func RecordSubmission() {
	globalManager.submissionsTotal.Inc()
}

// RecordDecision increments the decision counter for a tier.
func RecordDecision(tier string) {
	globalManager.decisionsTotal.WithLabelValues(tier).Inc()
}

// RecordValidationFailure increments the validation failure counter.
func RecordValidationFailure() {
	globalManager.validationFailures.Inc()
}

// RecordPipelineLatency records end-to-end pipeline latency in milliseconds.
func RecordPipelineLatency(latencyMs float64) {
	globalManager.pipelineLatency.Observe(latencyMs)
}

// RecordSignalLatency records per-modality scoring latency in milliseconds.
func RecordSignalLatency(latencyMs float64) {
	globalManager.signalLatency.Observe(latencyMs)
}

// RecordSignalError increments the signal error counter for a modality.
func RecordSignalError(modality string) {
	globalManager.signalErrors.WithLabelValues(modality).Inc()
}

// RecordSignalUnavailable increments the all-modalities-failed counter.
func RecordSignalUnavailable() {
	globalManager.signalUnavailable.Inc()
}

// RecordDuplicate increments the duplicates detected counter.
func RecordDuplicate() {
	globalManager.duplicatesDetected.Inc()
}

// RecordEscalation increments the adjuster escalation counter.
func RecordEscalation() {
	globalManager.adjusterEscalations.Inc()
}

// RecordIndexQueryError increments the index query error counter for a component.
func RecordIndexQueryError(component string) {
	globalManager.indexQueryErrors.WithLabelValues(component).Inc()
}

// UpdateIndexSize sets the similarity index size.
func UpdateIndexSize(size int) {
	globalManager.indexSize.Set(float64(size))
}

// RecordHumanVerdict increments the human verdict counter.
func RecordHumanVerdict(verdict string) {
	globalManager.humanVerdicts.WithLabelValues(verdict).Inc()
}

// UpdatePendingReviews sets the pending review gauge.
func UpdatePendingReviews(count int) {
	globalManager.pendingReviews.Set(float64(count))
}

// UpdateQueueSize sets the current publish queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the publish queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the publish queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueError.Inc()
}

// UpdateWorkerActiveCount sets the number of active publish workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordPublishLatency records per-job publishing latency in milliseconds.
func RecordPublishLatency(latencyMs float64) {
	globalManager.publishLatency.Observe(latencyMs)
}

// RecordPublishError increments the publish error counter for a task.
func RecordPublishError(task string) {
	globalManager.publishErrors.WithLabelValues(task).Inc()
}

// RecordDeliveryAttempt increments the webhook delivery attempt counter.
func RecordDeliveryAttempt() {
	globalManager.deliveryAttempts.Inc()
}

// RecordDeliverySuccess increments the webhook delivery success counter.
func RecordDeliverySuccess() {
	globalManager.deliverySuccess.Inc()
}

// RecordDeadLetter increments the dead letter counter for a kind.
func RecordDeadLetter(kind string) {
	globalManager.deadLetters.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the allocated heap memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
