package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout state transitions and end-to-end durations.
type CheckoutMetrics struct {
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_transitions_total",
		Help: "Checkout state machine transitions by target state.",
	}, []string{"state"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2, 3, 5, 10},
	}, []string{"outcome"})
	reg.MustRegister(transitions, duration)
	return &CheckoutMetrics{
		transitions: transitions,
		duration:    duration,
	}
}

// Transition counts entry into the given state.
func (m *CheckoutMetrics) Transition(state string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(state)).Inc()
}

// ObserveDuration records how long a checkout attempt took for its outcome.
func (m *CheckoutMetrics) ObserveDuration(outcome string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(outcome)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
