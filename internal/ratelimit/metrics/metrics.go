package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Rejected prometheus.Counter
	Errors   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Rejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "votacao_ratelimit_rejected_total",
			Help: "Vote requests rejected by the per-IP rate limit",
		}),
		Errors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "votacao_ratelimit_errors_total",
			Help: "Rate limit checks that failed and let the request through",
		}),
	}
}

func (m *Metrics) IncRejected() {
	if m == nil {
		return
	}
	m.Rejected.Inc()
}

func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.Errors.Inc()
}
