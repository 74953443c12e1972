// Package metrics provides Prometheus metrics for the rbh pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector used by rbh.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Core pipeline metrics
	rowsParsed       prometheus.Counter
	parseErrors      *prometheus.CounterVec
	qualifyingHits   prometheus.Counter
	bestHits         prometheus.Counter
	reciprocalPairs  prometheus.Counter
	coverageFallback prometheus.Counter

	// External tool metrics
	toolDuration *prometheus.HistogramVec
	toolFailures *prometheus.CounterVec

	// Queue and worker metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec
	workerActiveCount  prometheus.Gauge
	workersBusy        prometheus.Gauge
	jobsProcessed      *prometheus.CounterVec
	jobLatency         prometheus.Histogram
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
		namespace:        "rbh",
		subsystem:        "pipeline",
		histogramBuckets: defaultToolBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// Tool runs are measured in seconds; BLAST on a bacterial proteome takes minutes.
var defaultToolBuckets = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600} //nolint:gochecknoglobals // bucket layout

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rowsParsed = m.counter("rows_parsed_total", "Tabular hit rows successfully parsed")
	m.parseErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "parse_errors_total",
		Help:        "Rejected hit rows by error kind",
		ConstLabels: m.constLabels,
	}, []string{"kind"})
	m.qualifyingHits = m.counter("qualifying_hits_total", "Hits passing both identity and coverage thresholds")
	m.bestHits = m.counter("best_hits_total", "Queries that received a best hit")
	m.reciprocalPairs = m.counter("reciprocal_pairs_total", "Confirmed reciprocal best hit pairs")
	m.coverageFallback = m.counter("coverage_fallback_total", "Reciprocal pairs whose coverage lookup found no record")

	m.toolDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "external_tool_duration_seconds",
		Help:        "Wall time of external tool invocations",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"tool"})
	m.toolFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "external_tool_failures_total",
		Help:        "External tool invocations that exited non-zero or failed to start",
		ConstLabels: m.constLabels,
	}, []string{"tool"})

	m.queueSize = m.gauge("queue_size", "Jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued jobs")
	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_enqueue_errors_total",
		Help:        "Rejected enqueue attempts by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently running")
	m.workersBusy = m.gauge("workers_busy", "Workers currently executing a job")
	m.jobsProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "jobs_processed_total",
		Help:        "Jobs finished by workers, by kind and outcome",
		ConstLabels: m.constLabels,
	}, []string{"kind", "outcome"})
	m.jobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "job_latency_seconds",
		Help:        "Time between a worker picking a job and finishing it",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
}

// RecordRowParsed counts one parsed hit row.
func RecordRowParsed() { globalManager.rowsParsed.Inc() }

// RecordParseError counts one rejected row. kind is "parse" or "division".
func RecordParseError(kind string) { globalManager.parseErrors.WithLabelValues(kind).Inc() }

// RecordQualifyingHits adds n hits that passed the thresholds.
func RecordQualifyingHits(n int) { globalManager.qualifyingHits.Add(float64(n)) }

// RecordBestHits adds n queries with a best hit.
func RecordBestHits(n int) { globalManager.bestHits.Add(float64(n)) }

// RecordReciprocalPairs adds n confirmed pairs.
func RecordReciprocalPairs(n int) { globalManager.reciprocalPairs.Add(float64(n)) }

// RecordCoverageFallback counts a pair whose coverage defaulted to zero.
func RecordCoverageFallback() { globalManager.coverageFallback.Inc() }

// RecordToolDuration observes the wall time of one tool run.
func RecordToolDuration(tool string, seconds float64) {
	globalManager.toolDuration.WithLabelValues(tool).Observe(seconds)
}

// RecordToolFailure counts a failed tool run.
func RecordToolFailure(tool string) { globalManager.toolFailures.WithLabelValues(tool).Inc() }

// UpdateQueueSize sets the number of queued jobs.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// AddWorkersBusy adjusts the number of workers executing a job.
func AddWorkersBusy(delta int) { globalManager.workersBusy.Add(float64(delta)) }

// RecordJobProcessed counts a finished job.
func RecordJobProcessed(kind, outcome string) {
	globalManager.jobsProcessed.WithLabelValues(kind, outcome).Inc()
}

// RecordJobLatency observes how long a job took.
func RecordJobLatency(seconds float64) { globalManager.jobLatency.Observe(seconds) }

// GetRegistry returns the registry holding the global metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the global registry in the text exposition format, for
// node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, GetRegistry()); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
