package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	stepDuration  *prometheus.HistogramVec
	agentDuration *prometheus.HistogramVec
	decisions     *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		stepDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradescope_step_duration_seconds",
				Help:    "Duration of data collection steps in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"step"},
		),
		agentDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradescope_agent_duration_seconds",
				Help:    "Duration of analysis agents in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent"},
		),
		decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradescope_decisions_total",
				Help: "Total number of synthesized decisions by signal",
			},
			[]string{"signal"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradescope_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradescope_result_cache_lookups_total",
				Help: "Cached analysis lookups by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordStepDuration records one collection step's duration in seconds.
func (r *Recorder) RecordStepDuration(step string, seconds float64) {
	r.stepDuration.WithLabelValues(step).Observe(seconds)
}

// RecordAgentDuration records one agent's duration in seconds.
func (r *Recorder) RecordAgentDuration(agent string, seconds float64) {
	r.agentDuration.WithLabelValues(agent).Observe(seconds)
}

// RecordDecision records a synthesized decision by signal.
func (r *Recorder) RecordDecision(signal string) {
	r.decisions.WithLabelValues(signal).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordCacheHit records a result cache lookup outcome.
func (r *Recorder) RecordCacheHit(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheLookups.WithLabelValues(outcome).Inc()
}
