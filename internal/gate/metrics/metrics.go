package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the gate module.
type Metrics struct {
	// Fact gathering latencies by family
	FactFetchLatency *prometheus.HistogramVec

	// Fact families that failed to gather, by family
	UnknownFamilies *prometheus.CounterVec

	// Evaluation outcomes: "passed" or "blocked"
	EvaluationOutcome *prometheus.CounterVec

	// Gates observed active, by gate id
	ActiveGates *prometheus.CounterVec

	// Overall refresh latency including fact gathering
	RefreshLatency prometheus.Histogram
}

// New creates a new Metrics instance with all gate module metrics registered.
func New() *Metrics {
	return &Metrics{
		FactFetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gatehouse_fact_fetch_duration_seconds",
			Help:    "Duration of fact gathering operations by family",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"family"}),

		UnknownFamilies: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_fact_families_unknown_total",
			Help: "Total fact gathering failures by family",
		}, []string{"family"}),

		EvaluationOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_evaluations_total",
			Help: "Total gate evaluations by outcome",
		}, []string{"outcome"}),

		ActiveGates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_active_gates_total",
			Help: "Total times each gate was observed active",
		}, []string{"gate_id"}),

		RefreshLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatehouse_refresh_duration_seconds",
			Help:    "Duration of a full session refresh including fact gathering",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// ObserveFactFetch records the duration of fetching one fact family.
func (m *Metrics) ObserveFactFetch(family string, d time.Duration) {
	if m != nil {
		m.FactFetchLatency.WithLabelValues(family).Observe(d.Seconds())
	}
}

// IncrementUnknownFamily records a fact family that could not be gathered.
func (m *Metrics) IncrementUnknownFamily(family string) {
	if m != nil {
		m.UnknownFamilies.WithLabelValues(family).Inc()
	}
}

// IncrementOutcome records an evaluation outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.EvaluationOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementActiveGate records one active gate observation.
func (m *Metrics) IncrementActiveGate(gateID string) {
	if m != nil {
		m.ActiveGates.WithLabelValues(gateID).Inc()
	}
}

// ObserveRefresh records the total refresh duration.
func (m *Metrics) ObserveRefresh(d time.Duration) {
	if m != nil {
		m.RefreshLatency.Observe(d.Seconds())
	}
}
