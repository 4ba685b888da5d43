package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records pipeline outcomes. A nil *Metrics records nothing.
type Metrics struct {
	stages      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	artifacts   *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obsadmin",
			Subsystem: "schedule",
			Name:      "stage_results_total",
			Help:      "Schedule pipeline stage executions by outcome.",
		}, []string{"stage", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "obsadmin",
			Subsystem: "schedule",
			Name:      "run_duration_seconds",
			Help:      "Wall time of schedule pipeline runs by final state.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"state"}),
		artifacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obsadmin",
			Subsystem: "schedule",
			Name:      "artifacts_total",
			Help:      "Insert artifacts produced per table.",
		}, []string{"table"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obsadmin",
			Subsystem: "schedule",
			Name:      "diagnostics_total",
			Help:      "Non-fatal diagnostics by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.stages, m.duration, m.artifacts, m.diagnostics)
	return m
}

func (m *Metrics) stage(stage Stage, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.stages.WithLabelValues(string(stage), outcome).Inc()
}

func (m *Metrics) run(state State, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(string(state)).Observe(elapsed.Seconds())
}

func (m *Metrics) result(r *Report) {
	if m == nil || r == nil {
		return
	}
	for table, n := range r.Counts {
		m.artifacts.WithLabelValues(table).Add(float64(n))
	}
	for _, d := range r.Diagnostics {
		m.diagnostics.WithLabelValues(string(d.Kind)).Inc()
	}
}
