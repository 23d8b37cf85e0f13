package executor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Bundle and item status label values.
const (
	StatusSimulated        = "simulated"
	StatusCommitted        = "committed"
	StatusSimulationFailed = "simulation_failed"
	StatusCommitFailed     = "commit_failed"

	StatusSubmitted = "submitted"
	StatusFailed    = "failed"
)

// Metrics are executor counters. Nil Metrics is valid and counts nothing.
type Metrics struct {
	bundles *prometheus.CounterVec
	items   *prometheus.CounterVec
}

// NewMetrics creates executor metrics and registers them in reg (the
// default registerer if it's nil). It panics if they're already registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		bundles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Help:      "Number of processed bundles by status",
				Name:      "bundles_total",
				Namespace: "coinops",
			},
			[]string{"status"},
		),
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Help:      "Number of processed items by status",
				Name:      "items_total",
				Namespace: "coinops",
			},
			[]string{"status"},
		),
	}
	reg.MustRegister(m.bundles, m.items)
	return m
}

func (m *Metrics) bundle(status string) {
	if m != nil {
		m.bundles.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) item(status string, n int) {
	if m != nil && n > 0 {
		m.items.WithLabelValues(status).Add(float64(n))
	}
}
