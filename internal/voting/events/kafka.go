package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"votacao/internal/voting/metrics"
	"votacao/internal/voting/models"
	"votacao/pkg/platform/privacy"
)

// VoteEvent is the record value written for each admitted vote. The voter
// is pseudonymized.
type VoteEvent struct {
	EventID  string    `json:"event_id"`
	AgendaID string    `json:"agenda_id"`
	Voter    string    `json:"voter"`
	Choice   string    `json:"choice"`
	VotedAt  time.Time `json:"voted_at"`
}

type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// KafkaPublisher produces vote events keyed by agenda, so each agenda's
// events stay ordered within a partition.
type KafkaPublisher struct {
	producer producer
	topic    string
	hasher   *privacy.Hasher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type KafkaOption func(*KafkaPublisher)

func WithLogger(logger *slog.Logger) KafkaOption {
	return func(k *KafkaPublisher) {
		k.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) KafkaOption {
	return func(k *KafkaPublisher) {
		k.metrics = m
	}
}

func WithHasher(h *privacy.Hasher) KafkaOption {
	return func(k *KafkaPublisher) {
		k.hasher = h
	}
}

func NewKafka(p producer, topic string, opts ...KafkaOption) (*KafkaPublisher, error) {
	if p == nil {
		return nil, errors.New("kafka producer is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	k := &KafkaPublisher{producer: p, topic: topic, logger: slog.Default()}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// PublishVote enqueues the event and returns. Delivery failures are logged
// from the produce callback.
func (k *KafkaPublisher) PublishVote(ctx context.Context, vote *models.Vote) error {
	value, err := json.Marshal(VoteEvent{
		EventID:  vote.ID.String(),
		AgendaID: vote.AgendaID.String(),
		Voter:    k.hasher.Voter(string(vote.VoterID)),
		Choice:   vote.Choice.DBValue(),
		VotedAt:  vote.VotedAt,
	})
	if err != nil {
		return fmt.Errorf("encode vote event: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(vote.AgendaID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte("vote_admitted")},
		},
	}
	// detached so a finished request does not abort buffered delivery
	k.producer.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err == nil {
			return
		}
		k.metrics.IncPublishFailure("kafka")
		k.logger.Error("vote event delivery failed",
			"topic", r.Topic,
			"agenda_id", string(r.Key),
			"error", err,
		)
	})
	return nil
}
