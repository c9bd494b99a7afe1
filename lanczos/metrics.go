package lanczos

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors updated by a Solver. A nil *Metrics
// records nothing.
type Metrics struct {
	OperatorCalls        prometheus.Counter
	Restarts             prometheus.Counter
	AcceptedPairs        prometheus.Counter
	Reorthogonalizations prometheus.Counter
	Solves               *prometheus.CounterVec // label: status
	Duration             prometheus.Histogram
}

// NewMetrics creates the solver collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	const ns, sub = "laso", "lanczos"
	m := &Metrics{
		OperatorCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "operator_calls_total",
			Help: "Block operator applications.",
		}),
		Restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "restarts_total",
			Help: "Lanczos restarts from a new starting block.",
		}),
		AcceptedPairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "accepted_pairs_total",
			Help: "Eigenpairs moved into the permanent set.",
		}),
		Reorthogonalizations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "reorthogonalizations_total",
			Help: "Selective reorthogonalizations of a Lanczos block against a known vector.",
		}),
		Solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "solves_total",
			Help: "Completed solves by final status.",
		}, []string{"status"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: sub,
			Name:    "solve_duration_seconds",
			Help:    "Wall time of a solve.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.OperatorCalls, m.Restarts, m.AcceptedPairs, m.Reorthogonalizations, m.Solves, m.Duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("lanczos: register metrics: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) operatorCall() {
	if m != nil {
		m.OperatorCalls.Inc()
	}
}

func (m *Metrics) restart() {
	if m != nil {
		m.Restarts.Inc()
	}
}

func (m *Metrics) accepted(k int) {
	if m != nil && k > 0 {
		m.AcceptedPairs.Add(float64(k))
	}
}

func (m *Metrics) reorthogonalized() {
	if m != nil {
		m.Reorthogonalizations.Inc()
	}
}

func (m *Metrics) solved(s Status, d time.Duration) {
	if m != nil {
		m.Solves.WithLabelValues(s.String()).Inc()
		m.Duration.Observe(d.Seconds())
	}
}
