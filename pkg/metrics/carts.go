package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics tracks the in-memory cart registry.
type CartMetrics struct {
	active  prometheus.Gauge
	evicted prometheus.Counter
}

func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "carts_active",
		Help: "Carts currently held in memory.",
	})
	evicted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "carts_evicted_total",
		Help: "Idle carts evicted by the sweeper.",
	})
	reg.MustRegister(active, evicted)
	return &CartMetrics{active: active, evicted: evicted}
}

// Swept records the outcome of one sweeper pass.
func (m *CartMetrics) Swept(active, evicted int) {
	if m == nil || m.active == nil {
		return
	}
	m.active.Set(float64(active))
	if evicted > 0 {
		m.evicted.Add(float64(evicted))
	}
}
