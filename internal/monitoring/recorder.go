package monitoring

import (
	"time"

	"github.com/GriffinCanCode/nodeshim/internal/registry"
)

// Recorder feeds module registry events into the metrics. One Recorder may be
// shared by every sandbox runtime.
type Recorder struct {
	metrics *Metrics
}

var _ registry.Recorder = (*Recorder)(nil)

// NewRecorder creates a registry recorder
func (m *Metrics) NewRecorder() *Recorder {
	return &Recorder{metrics: m}
}

// RecordLookup counts cache hits and misses
func (r *Recorder) RecordLookup(specifier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.metrics.RequireLookups.WithLabelValues(specifier, result).Inc()
}

// RecordConstruct records one constructor run
func (r *Recorder) RecordConstruct(specifier string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.metrics.Constructions.WithLabelValues(specifier, status).Inc()
	r.metrics.ConstructDuration.WithLabelValues(specifier).Observe(duration.Seconds())

	if err == nil {
		r.metrics.mu.Lock()
		r.metrics.snapshot.ModulesBuilt++
		r.metrics.mu.Unlock()
	}
}

// RecordDepthExceeded counts rejected requires
func (r *Recorder) RecordDepthExceeded(specifier string) {
	r.metrics.DepthExceeded.WithLabelValues(specifier).Inc()

	r.metrics.mu.Lock()
	r.metrics.snapshot.DepthLimitReached++
	r.metrics.mu.Unlock()
}

// RecordProgress counts progress callbacks
func (r *Recorder) RecordProgress() {
	r.metrics.ProgressTicks.Inc()
}
