package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"votacao/internal/voting/models"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/privacy"
)

type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.mu.Lock()
	f.records = append(f.records, r)
	f.mu.Unlock()
	promise(r, f.err)
}

type recordingPublisher struct {
	votes []*models.Vote
	err   error
}

func (r *recordingPublisher) PublishVote(_ context.Context, v *models.Vote) error {
	r.votes = append(r.votes, v)
	return r.err
}

func testVote() *models.Vote {
	return &models.Vote{
		ID:       id.NewVoteID(),
		AgendaID: id.NewAgendaID(),
		VoterID:  "52998224725",
		Choice:   models.ChoiceNo,
		VotedAt:  time.Date(2025, 3, 1, 9, 0, 30, 0, time.UTC),
	}
}

func TestKafkaPublisherRecord(t *testing.T) {
	p := &fakeProducer{}
	k, err := NewKafka(p, "votacao.votes", WithHasher(privacy.NewHasher("k")))
	require.NoError(t, err)

	v := testVote()
	require.NoError(t, k.PublishVote(context.Background(), v))
	require.Len(t, p.records, 1)

	r := p.records[0]
	assert.Equal(t, "votacao.votes", r.Topic)
	assert.Equal(t, v.AgendaID.String(), string(r.Key))

	var ev VoteEvent
	require.NoError(t, json.Unmarshal(r.Value, &ev))
	assert.Equal(t, v.ID.String(), ev.EventID)
	assert.Equal(t, "NO", ev.Choice)
	assert.NotContains(t, string(r.Value), "52998224725", "voter id is pseudonymized")
}

func TestKafkaPublisherDeliveryFailureIsOnlyLogged(t *testing.T) {
	p := &fakeProducer{err: errors.New("broker unreachable")}
	k, err := NewKafka(p, "votacao.votes", WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	assert.NoError(t, k.PublishVote(context.Background(), testVote()))
}

func TestNewKafkaValidation(t *testing.T) {
	_, err := NewKafka(nil, "t")
	assert.Error(t, err)
	_, err = NewKafka(&fakeProducer{}, "")
	assert.Error(t, err)
}

func TestMultiFansOutAndJoinsErrors(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("boom")}
	v := testVote()

	err := Multi{ok, nil, failing}.PublishVote(context.Background(), v)
	assert.ErrorContains(t, err, "boom")
	assert.Len(t, ok.votes, 1)
	assert.Len(t, failing.votes, 1)

	assert.NoError(t, Multi{ok}.PublishVote(context.Background(), v))
}
