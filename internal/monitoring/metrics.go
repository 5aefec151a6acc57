package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Module registry metrics
	RequireLookups    *prometheus.CounterVec
	Constructions     *prometheus.CounterVec
	ConstructDuration *prometheus.HistogramVec
	DepthExceeded     *prometheus.CounterVec
	ProgressTicks     prometheus.Counter

	// Sandbox metrics
	Executions        *prometheus.CounterVec
	ExecutionDuration prometheus.Histogram
	RequiresPerScript prometheus.Histogram

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	TotalDuration     float64 `json:"total_duration"` // sum of all request durations
	Executions        int64   `json:"executions"`
	FailedExecutions  int64   `json:"failed_executions"`
	ModulesBuilt      int64   `json:"modules_built"`
	DepthLimitReached int64   `json:"depth_limit_reached"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector on its own prometheus registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetricsWith(reg)
}

// NewMetricsWith registers every metric on reg
func NewMetricsWith(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodeshim_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nodeshim_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nodeshim_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nodeshim_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Module registry metrics
		RequireLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodeshim_registry_lookups_total",
				Help: "Module lookups by cache result",
			},
			[]string{"specifier", "result"},
		),
		Constructions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodeshim_registry_constructions_total",
				Help: "Module constructions by outcome",
			},
			[]string{"specifier", "status"},
		),
		ConstructDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nodeshim_registry_construct_duration_seconds",
				Help:    "Module construction duration in seconds",
				Buckets: []float64{.00001, .0001, .001, .01, .1},
			},
			[]string{"specifier"},
		),
		DepthExceeded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodeshim_registry_depth_exceeded_total",
				Help: "Require calls rejected by the depth limit",
			},
			[]string{"specifier"},
		),
		ProgressTicks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nodeshim_registry_progress_total",
				Help: "Progress callbacks fired by the module registry",
			},
		),

		// Sandbox metrics
		Executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodeshim_sandbox_executions_total",
				Help: "Script executions by outcome",
			},
			[]string{"status"},
		),
		ExecutionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nodeshim_sandbox_execution_duration_seconds",
				Help:    "Script execution duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
		RequiresPerScript: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nodeshim_sandbox_requires_per_script",
				Help:    "Number of require calls made by one script",
				Buckets: []float64{0, 1, 5, 10, 50, 100},
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "nodeshim_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the prometheus registry the metrics live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordExecution records one sandbox execution
func (m *Metrics) RecordExecution(duration time.Duration, requires int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Executions.WithLabelValues(status).Inc()
	m.ExecutionDuration.Observe(duration.Seconds())
	m.RequiresPerScript.Observe(float64(requires))

	m.mu.Lock()
	m.snapshot.Executions++
	if err != nil {
		m.snapshot.FailedExecutions++
	}
	m.mu.Unlock()
}

// Snapshot returns the current values for the JSON API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
