package tx

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the engine's prometheus collectors.
type Metrics struct {
	Transactions   *prometheus.CounterVec
	Instructions   *prometheus.CounterVec
	CommitAttempts prometheus.Histogram
	Conflicts      prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "escrowd",
			Subsystem: "engine",
			Name:      "transactions_total",
			Help:      "Submitted transactions by result.",
		}, []string{"result"}),
		Instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "escrowd",
			Subsystem: "engine",
			Name:      "instructions_total",
			Help:      "Dispatched instructions by program, nested invocations included.",
		}, []string{"program"}),
		CommitAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "escrowd",
			Subsystem: "engine",
			Name:      "commit_attempts",
			Help:      "Evaluations needed per transaction.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 16},
		}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "escrowd",
			Subsystem: "engine",
			Name:      "commit_conflicts_total",
			Help:      "Commits rejected because state moved underneath the transaction.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Transactions, m.Instructions, m.CommitAttempts, m.Conflicts)
	}
	return m
}
