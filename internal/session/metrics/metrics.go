package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SessionsOpened prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		SessionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "votacao_sessions_opened_total",
			Help: "Voting sessions opened",
		}),
	}
}

func (m *Metrics) IncSessionsOpened() {
	if m == nil {
		return
	}
	m.SessionsOpened.Inc()
}
