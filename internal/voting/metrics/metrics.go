package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for vote admission and result streaming.
type Metrics struct {
	Votes            *prometheus.CounterVec
	Subscribers      prometheus.Gauge
	DroppedSnapshots prometheus.Counter
	PublishFailures  *prometheus.CounterVec
	TallyDrift       prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Votes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "votacao_votes_total",
			Help: "Vote submissions by outcome",
		}, []string{"outcome"}),
		Subscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "votacao_result_subscribers",
			Help: "Open result stream subscriptions",
		}),
		DroppedSnapshots: promauto.NewCounter(prometheus.CounterOpts{
			Name: "votacao_result_snapshots_dropped_total",
			Help: "Snapshots coalesced away for slow subscribers",
		}),
		PublishFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "votacao_vote_publish_failures_total",
			Help: "Vote event publish failures by sink",
		}, []string{"sink"}),
		TallyDrift: promauto.NewCounter(prometheus.CounterOpts{
			Name: "votacao_tally_increment_failures_total",
			Help: "Admitted votes whose cached tally increment failed",
		}),
	}
}

func (m *Metrics) IncVote(outcome string) {
	if m == nil {
		return
	}
	m.Votes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddSubscribers(delta float64) {
	if m == nil {
		return
	}
	m.Subscribers.Add(delta)
}

func (m *Metrics) IncDropped() {
	if m == nil {
		return
	}
	m.DroppedSnapshots.Inc()
}

func (m *Metrics) IncPublishFailure(sink string) {
	if m == nil {
		return
	}
	m.PublishFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) IncTallyDrift() {
	if m == nil {
		return
	}
	m.TallyDrift.Inc()
}
