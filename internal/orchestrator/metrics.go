package orchestrator

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments the orchestrator. A nil *Metrics records nothing.
type Metrics struct {
	Attempts        *prometheus.CounterVec
	Jobs            *prometheus.CounterVec
	AttemptDuration *prometheus.HistogramVec
}

// AttemptBuckets spans short documents to book-length runs, in seconds.
var AttemptBuckets = []float64{1, 5, 15, 60, 300, 900, 1800, 3600, 7200}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booktran_attempts_total",
				Help: "Engine attempts by submit mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		Jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booktran_jobs_total",
				Help: "Jobs by terminal state",
			},
			[]string{"state"},
		),
		AttemptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "booktran_attempt_duration_seconds",
				Help:    "Duration of engine attempts",
				Buckets: AttemptBuckets,
			},
			[]string{"mode"},
		),
	}
	reg.MustRegister(m.Attempts, m.Jobs, m.AttemptDuration)
	return m
}

func (m *Metrics) observeAttempt(a Attempt) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(a.Mode.ID(), a.Outcome.Kind.String()).Inc()
	m.AttemptDuration.WithLabelValues(a.Mode.ID()).Observe(a.Elapsed.Seconds())
}

func (m *Metrics) observeJob(s State) {
	if m == nil {
		return
	}
	m.Jobs.WithLabelValues(s.String()).Inc()
}
