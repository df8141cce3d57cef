// Package metrics provides Prometheus metrics for the physync pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Manager manages all Prometheus metrics for a synchronization run.
type Manager struct {
	namespace    string
	subsystem    string
	enabled      bool
	customLabels map[string]string
	registry     *prometheus.Registry

	// Pipeline Metrics - one run, one set of totals
	recordsFetched     prometheus.Counter
	recordsTransformed prometheus.Counter
	recordsUnmapped    prometheus.Counter
	recordsDuplicate   prometheus.Counter
	recordsUploaded    prometheus.Counter
	recordsFailed      prometheus.Counter

	// Fetch Degradation Metrics - per-item failures that did not abort the run
	athletesSkipped     prometheus.Counter
	measurementsSkipped prometheus.Counter

	// Transport Metrics
	httpRequests *prometheus.CounterVec
	httpRetries  *prometheus.CounterVec
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
		namespace:    "physync",
		subsystem:    "sync",
		enabled:      true,
		customLabels: make(map[string]string),
		registry:     prometheus.NewRegistry(),
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
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.recordsFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "records_fetched_total",
		Help:        "Measurement records fetched from the source API",
		ConstLabels: m.customLabels,
	})

	m.recordsTransformed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "records_transformed_total",
		Help:        "Measurement records normalized by the transformer",
		ConstLabels: m.customLabels,
	})

	m.recordsUnmapped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "records_unmapped_total",
		Help:        "Records dropped because no destination user matched",
		ConstLabels: m.customLabels,
	})

	m.recordsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "records_duplicate_total",
		Help:        "Records skipped because their id already exists at the destination",
		ConstLabels: m.customLabels,
	})

	m.recordsUploaded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "records_uploaded_total",
		Help:        "Records accepted by the destination event import",
		ConstLabels: m.customLabels,
	})

	m.recordsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "records_failed_total",
		Help:        "Records rejected by the destination event import",
		ConstLabels: m.customLabels,
	})

	m.athletesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "athletes_skipped_total",
		Help:        "Athletes whose measurement listing failed after retries",
		ConstLabels: m.customLabels,
	})

	m.measurementsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "measurements_skipped_total",
		Help:        "Measurements whose detail fetch failed after retries",
		ConstLabels: m.customLabels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Outbound HTTP requests by host, method and status",
			ConstLabels: m.customLabels,
		},
		[]string{"host", "method", "status"},
	)

	m.httpRetries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_retries_total",
			Help:        "Retry attempts by reason (network, accepted, throttled, server_error)",
			ConstLabels: m.customLabels,
		},
		[]string{"reason"},
	)
}

// Push pushes the manager's registry to a Pushgateway. A one-shot CLI
// cannot be scraped, so totals are pushed at the end of the run.
func (m *Manager) Push(gatewayURL, job string) error {
	if !m.enabled || gatewayURL == "" {
		return nil
	}
	if err := push.New(gatewayURL, job).Gatherer(m.registry).Push(); err != nil {
		return ErrPushFailed
	}
	return nil
}

// RecordFetched increments the fetched records counter.
func RecordFetched() {
	globalManager.recordsFetched.Inc()
}

// RecordTransformed increments the transformed records counter.
func RecordTransformed() {
	globalManager.recordsTransformed.Inc()
}

// RecordUnmapped increments the unmapped records counter.
func RecordUnmapped() {
	globalManager.recordsUnmapped.Inc()
}

// RecordDuplicate increments the duplicate records counter.
func RecordDuplicate() {
	globalManager.recordsDuplicate.Inc()
}

// RecordUploaded increments the uploaded records counter.
func RecordUploaded() {
	globalManager.recordsUploaded.Inc()
}

// RecordFailed increments the failed uploads counter.
func RecordFailed() {
	globalManager.recordsFailed.Inc()
}

// RecordAthleteSkipped counts an athlete whose listing failed after retries.
func RecordAthleteSkipped() {
	globalManager.athletesSkipped.Inc()
}

// RecordMeasurementSkipped counts a measurement whose detail fetch failed after retries.
func RecordMeasurementSkipped() {
	globalManager.measurementsSkipped.Inc()
}

// RecordHTTPRequest records a completed outbound HTTP request.
func RecordHTTPRequest(host, method, status string) {
	globalManager.httpRequests.WithLabelValues(host, method, status).Inc()
}

// RecordHTTPRetry records a retry attempt by reason.
func RecordHTTPRetry(reason string) {
	globalManager.httpRetries.WithLabelValues(reason).Inc()
}

// PushGlobal pushes the global manager's metrics to a Pushgateway.
func PushGlobal(gatewayURL, job string) error {
	return globalManager.Push(gatewayURL, job)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
