package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Pipeline metrics
	RunsTotal     *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	StageDuration *prometheus.HistogramVec
	StageFailures *prometheus.CounterVec

	// Trace store metrics
	TracesStored   prometheus.Gauge
	TracesIngested prometheus.Counter
	IDCollisions   prometheus.Counter

	// Operation metrics (exports, catalog loads)
	OperationCalls    *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests int64
	TotalErrors   int64
	TotalRuns     int64
	FailedRuns    int64
	TracesStored  int64
	TotalDuration float64 // sum of all request durations
	RequestCount  int64   // count for averaging
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xray_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xray_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xray_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xray_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Pipeline metrics
		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xray_pipeline_runs_total",
				Help: "Total number of pipeline runs",
			},
			[]string{"status"},
		),
		RunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xray_pipeline_run_duration_seconds",
				Help:    "End-to-end pipeline run duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"status"},
		),
		StageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xray_pipeline_stage_duration_seconds",
				Help:    "Pipeline stage duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"stage", "type"},
		),
		StageFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xray_pipeline_stage_failures_total",
				Help: "Total number of failed pipeline stages",
			},
			[]string{"stage", "type"},
		),

		// Trace store metrics
		TracesStored: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "xray_traces_stored",
				Help: "Number of traces currently held by the store",
			},
		),
		TracesIngested: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "xray_traces_ingested_total",
				Help: "Total number of traces accepted by the store",
			},
		),
		IDCollisions: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "xray_trace_id_collisions_total",
				Help: "Total number of trace ID collisions rewritten on append",
			},
		),

		// Operation metrics
		OperationCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xray_operation_calls_total",
				Help: "Total number of internal operation calls",
			},
			[]string{"operation", "variant", "status"},
		),
		OperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xray_operation_duration_seconds",
				Help:    "Internal operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation", "variant"},
		),

		// System metrics
		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "xray_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordRun records one finished pipeline run
func (m *Metrics) RecordRun(status string, duration time.Duration) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.WithLabelValues(status).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRuns++
	if status != "success" {
		m.snapshot.FailedRuns++
	}
	m.mu.Unlock()
}

// RecordStage records one executed pipeline stage
func (m *Metrics) RecordStage(stage, stepType string, duration time.Duration, failed bool) {
	m.StageDuration.WithLabelValues(stage, stepType).Observe(duration.Seconds())
	if failed {
		m.StageFailures.WithLabelValues(stage, stepType).Inc()
	}
}

// RecordOperation records an internal operation call
func (m *Metrics) RecordOperation(operation, variant, status string, duration time.Duration) {
	m.OperationCalls.WithLabelValues(operation, variant, status).Inc()
	m.OperationDuration.WithLabelValues(operation, variant).Observe(duration.Seconds())
}

// SetTracesStored sets the current trace store size
func (m *Metrics) SetTracesStored(count int) {
	m.TracesStored.Set(float64(count))
	m.mu.Lock()
	m.snapshot.TracesStored = int64(count)
	m.mu.Unlock()
}

// IncTracesIngested increments the ingested traces counter
func (m *Metrics) IncTracesIngested() {
	m.TracesIngested.Inc()
}

// IncIDCollisions increments the trace ID collision counter
func (m *Metrics) IncIDCollisions() {
	m.IDCollisions.Inc()
}

// Snapshot returns the current metric values for the JSON status API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
