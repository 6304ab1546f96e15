package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for reconciliation activity. A nil
// *Metrics records nothing.
type Metrics struct {
	mutations       *prometheus.CounterVec
	inFlight        prometheus.Gauge
	refreshDuration *prometheus.HistogramVec
	dropped         *prometheus.CounterVec
}

// MustNewMetrics registers the collectors with reg and panics on duplicate
// registration, like the promauto helpers.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	mutations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "okrs",
			Subsystem: "controller",
			Name:      "mutations_total",
			Help:      "Mutations submitted to the persistence service by outcome.",
		},
		[]string{"op", "outcome"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "okrs",
			Subsystem: "controller",
			Name:      "mutations_in_flight",
			Help:      "Mutations currently in the submitting state.",
		},
	)
	refreshDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "okrs",
			Subsystem: "controller",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of full collection refreshes.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
	dropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "okrs",
			Subsystem: "controller",
			Name:      "dropped_results_total",
			Help:      "Remote results discarded because they were stale or the controller was closed.",
		},
		[]string{"reason"},
	)

	reg.MustRegister(mutations, inFlight, refreshDuration, dropped)

	return &Metrics{
		mutations:       mutations,
		inFlight:        inFlight,
		refreshDuration: refreshDuration,
		dropped:         dropped,
	}
}

func (m *Metrics) begin() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}

func (m *Metrics) mutation(op, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) refresh(start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.refreshDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func (m *Metrics) drop(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}
