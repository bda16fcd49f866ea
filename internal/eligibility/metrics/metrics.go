package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Checks    *prometheus.CounterVec
	Fallbacks *prometheus.CounterVec
	Latency   prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Checks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "votacao_eligibility_checks_total",
			Help: "Eligibility checks by mode and verdict",
		}, []string{"mode", "verdict"}),
		Fallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "votacao_eligibility_fallbacks_total",
			Help: "Eligibility checks answered by the UnableToVote fallback, by failure reason",
		}, []string{"reason"}),
		Latency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "votacao_eligibility_check_duration_seconds",
			Help:    "Strict eligibility check latency including retries",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5},
		}),
	}
}

func (m *Metrics) ObserveCheck(mode, verdict string, seconds float64) {
	if m == nil {
		return
	}
	m.Checks.WithLabelValues(mode, verdict).Inc()
	if mode == "strict" {
		m.Latency.Observe(seconds)
	}
}

func (m *Metrics) IncFallback(reason string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(reason).Inc()
}
