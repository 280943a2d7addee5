package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeChanged  = "changed"
	OutcomeNoop     = "noop"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// CartMetrics records cart mutations, checkout totals and live sessions.
type CartMetrics struct {
	mutations *prometheus.CounterVec
	payable   prometheus.Histogram
	sessions  prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart and checkout commands by operation and outcome.",
	}, []string{"op", "outcome"})
	payable := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_total_payable",
		Help:    "Total payable at proceed-to-checkout, in currency units.",
		Buckets: []float64{0, 500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
	})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_sessions_active",
		Help: "Cart sessions currently open.",
	})
	reg.MustRegister(mutations, payable, sessions)
	return &CartMetrics{
		mutations: mutations,
		payable:   payable,
		sessions:  sessions,
	}
}

// IncMutation counts one command for op with the given outcome.
func (c *CartMetrics) IncMutation(op, outcome string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// ObservePayable records the total payable of a checkout.
func (c *CartMetrics) ObservePayable(total int) {
	if c == nil || c.payable == nil {
		return
	}
	c.payable.Observe(float64(total))
}

// SessionStarted bumps the live-session gauge.
func (c *CartMetrics) SessionStarted() {
	if c == nil || c.sessions == nil {
		return
	}
	c.sessions.Inc()
}

// SessionEnded drops the live-session gauge.
func (c *CartMetrics) SessionEnded() {
	if c == nil || c.sessions == nil {
		return
	}
	c.sessions.Dec()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
