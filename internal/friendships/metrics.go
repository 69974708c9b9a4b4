package friendships

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records lifecycle transition outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	transitions *prometheus.CounterVec
	retries     *prometheus.CounterVec
}

// NewMetrics registers the friendship collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "friendgraph",
			Subsystem: "friendship",
			Name:      "transitions_total",
			Help:      "Friendship lifecycle operations by outcome.",
		}, []string{"operation", "outcome"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "friendgraph",
			Subsystem: "friendship",
			Name:      "tx_retries_total",
			Help:      "Friendship transactions re-run after a store conflict.",
		}, []string{"operation"}),
	}
}

func (m *Metrics) observe(operation string, err error) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) retried(operation string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(operation).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isDomainError(err):
		return "rejected"
	default:
		return "error"
	}
}
