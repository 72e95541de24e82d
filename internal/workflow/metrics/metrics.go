package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the moderation workflow.
// Tracks submissions, decisions, queue depth and activity mirroring.
type Metrics struct {
	Submissions      *prometheus.CounterVec
	Decisions        *prometheus.CounterVec
	DecisionDuration *prometheus.HistogramVec
	QueueDepth       prometheus.Gauge
	MirrorFailures   prometheus.Counter
}

// New registers the workflow metrics with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "commission_workflow_submissions_total",
			Help: "Total number of submissions entering the audit queue",
		}, []string{"entity_type"}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "commission_workflow_decisions_total",
			Help: "Total number of reviewer decisions by outcome",
		}, []string{"entity_type", "decision", "outcome"}),
		DecisionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "commission_workflow_decision_duration_seconds",
			Help:    "Duration of decision operations including lock wait",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"entity_type"}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "commission_audit_queue_depth",
			Help: "Number of entries awaiting review, sampled after each change",
		}),
		MirrorFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "commission_activity_mirror_failures_total",
			Help: "Activity entries that could not be published to Kafka",
		}),
	}
}

func (m *Metrics) IncrementSubmission(entityType string) {
	m.Submissions.WithLabelValues(entityType).Inc()
}

// ObserveDecision records one decision. outcome is "ok" or the error code.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveDecision(entityType, decision, outcome string, start time.Time) {
	m.Decisions.WithLabelValues(entityType, decision, outcome).Inc()
	m.DecisionDuration.WithLabelValues(entityType).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetQueueDepth(n int) {
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) AddMirrorFailures(n int) {
	m.MirrorFailures.Add(float64(n))
}
