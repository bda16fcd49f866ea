// Package broadcast pushes tally snapshots to result-stream subscribers.
//
// Each agenda with at least one subscriber has a topic. Snapshots are
// computed inside the topic lock, so every subscriber sees a non-decreasing
// sequence that ends with exactly one Closed snapshot.
package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"votacao/internal/voting/metrics"
	"votacao/internal/voting/models"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/clock"
)

// DefaultBufferSize is the per-subscriber backlog before coalescing.
const DefaultBufferSize = 16

// retryDelay spaces expiry checks after a failed snapshot read.
const retryDelay = time.Second

// Source computes snapshots and session deadlines.
type Source interface {
	Results(ctx context.Context, agendaID id.AgendaID) (models.TallySnapshot, error)
	SessionEnd(ctx context.Context, agendaID id.AgendaID) (time.Time, error)
}

type Broadcaster struct {
	source     Source
	clock      clock.Clock
	bufferSize int
	metrics    *metrics.Metrics
	logger     *slog.Logger

	mu     sync.Mutex
	topics map[id.AgendaID]*topic
}

type Option func(*Broadcaster)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Broadcaster) {
		b.logger = logger
	}
}

func WithClock(c clock.Clock) Option {
	return func(b *Broadcaster) {
		b.clock = c
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Broadcaster) {
		b.metrics = m
	}
}

func WithBufferSize(n int) Option {
	return func(b *Broadcaster) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

func New(source Source, opts ...Option) (*Broadcaster, error) {
	if source == nil {
		return nil, errors.New("snapshot source is required")
	}
	b := &Broadcaster{
		source:     source,
		clock:      clock.System{},
		bufferSize: DefaultBufferSize,
		logger:     slog.Default(),
		topics:     make(map[id.AgendaID]*topic),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

type topic struct {
	agendaID id.AgendaID

	// mu serializes snapshot computation and delivery. Lock order is
	// Broadcaster.mu before topic.mu.
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	timer  clock.Timer
	closed bool

	// last is the most recent snapshot handed to subscribers. Counts read
	// from the cache and from a store recount can disagree, so deliveries
	// never fall below it.
	last *models.TallySnapshot
}

// Subscribe registers for snapshots of agendaID. The first snapshot is the
// current one. Errors from the source, such as a missing session, are
// returned as is.
func (b *Broadcaster) Subscribe(ctx context.Context, agendaID id.AgendaID) (*Subscription, error) {
	for {
		t := b.acquire(agendaID)
		sub, retry, err := b.join(ctx, t)
		if retry {
			continue
		}
		return sub, err
	}
}

// acquire returns the agenda's topic, creating it if needed.
func (b *Broadcaster) acquire(agendaID id.AgendaID) *topic {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[agendaID]
	if !ok {
		t = &topic{agendaID: agendaID, subs: make(map[*Subscription]struct{})}
		b.topics[agendaID] = t
	}
	return t
}

// join adds a subscriber to t. retry is set when t was torn down between
// acquire and join.
func (b *Broadcaster) join(ctx context.Context, t *topic) (sub *Subscription, retry bool, err error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		b.forget(t)
		return nil, true, nil
	}

	snap, err := b.source.Results(ctx, t.agendaID)
	if err != nil {
		teardown := b.abandonLocked(t)
		t.mu.Unlock()
		if teardown {
			b.forget(t)
		}
		return nil, false, err
	}

	sub = newSubscription(b, t, b.bufferSize)
	t.subs[sub] = struct{}{}
	b.metrics.AddSubscribers(1)
	b.deliverLocked(t, snap)

	if !t.closed && t.timer == nil {
		b.scheduleLocked(ctx, t)
	}
	closed := t.closed
	t.mu.Unlock()

	if closed {
		b.forget(t)
		return sub, false, nil
	}
	go sub.watch(ctx)
	return sub, false, nil
}

// PublishVote recomputes and fans out the snapshot of the vote's agenda.
// Agendas without subscribers are skipped.
func (b *Broadcaster) PublishVote(ctx context.Context, vote *models.Vote) error {
	b.mu.Lock()
	t := b.topics[vote.AgendaID]
	b.mu.Unlock()
	if t == nil {
		return nil
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	snap, err := b.source.Results(ctx, t.agendaID)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	b.deliverLocked(t, snap)
	closed := t.closed
	t.mu.Unlock()

	if closed {
		b.forget(t)
	}
	return nil
}

// Topics reports how many agendas currently have subscribers.
func (b *Broadcaster) Topics() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics)
}

// Shutdown ends every subscription without a final snapshot.
func (b *Broadcaster) Shutdown() {
	b.mu.Lock()
	topics := make([]*topic, 0, len(b.topics))
	for _, t := range b.topics {
		topics = append(topics, t)
	}
	b.topics = make(map[id.AgendaID]*topic)
	b.mu.Unlock()

	for _, t := range topics {
		t.mu.Lock()
		for sub := range t.subs {
			b.finishLocked(t, sub)
		}
		b.closeLocked(t)
		t.mu.Unlock()
	}
}

// deliverLocked offers snap, raised to at least the last delivered counts,
// to every subscriber. A Closed snapshot ends every subscription and closes
// the topic.
func (b *Broadcaster) deliverLocked(t *topic, snap models.TallySnapshot) {
	if t.last != nil {
		snap = t.last.Merge(snap)
	}
	t.last = &snap
	for sub := range t.subs {
		if sub.offer(snap) {
			b.metrics.IncDropped()
		}
	}
	if !snap.Closed() {
		return
	}
	for sub := range t.subs {
		b.finishLocked(t, sub)
	}
	b.closeLocked(t)
}

func (b *Broadcaster) finishLocked(t *topic, sub *Subscription) {
	if _, ok := t.subs[sub]; !ok {
		return
	}
	delete(t.subs, sub)
	close(sub.updates)
	close(sub.done)
	b.metrics.AddSubscribers(-1)
}

func (b *Broadcaster) closeLocked(t *topic) {
	t.closed = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// abandonLocked closes t when it has no subscribers left.
func (b *Broadcaster) abandonLocked(t *topic) bool {
	if len(t.subs) > 0 || t.closed {
		return false
	}
	b.closeLocked(t)
	return true
}

// forget removes t from the registry if it is still the registered topic.
func (b *Broadcaster) forget(t *topic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.topics[t.agendaID] == t {
		delete(b.topics, t.agendaID)
	}
}

// scheduleLocked arms the expiry timer just past the session end.
func (b *Broadcaster) scheduleLocked(ctx context.Context, t *topic) {
	end, err := b.source.SessionEnd(ctx, t.agendaID)
	delay := retryDelay
	if err != nil {
		b.logger.WarnContext(ctx, "failed to read session end, retrying",
			"agenda_id", t.agendaID.String(),
			"error", err,
		)
	} else {
		delay = end.Sub(b.clock.Now()) + time.Nanosecond
	}
	// a non-positive delay would fire synchronously under t.mu
	if delay <= 0 {
		delay = time.Nanosecond
	}
	t.timer = b.clock.AfterFunc(delay, func() { b.expire(t) })
}

func (b *Broadcaster) expire(t *topic) {
	ctx := context.Background()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	snap, err := b.source.Results(ctx, t.agendaID)
	if err != nil {
		b.logger.WarnContext(ctx, "failed to compute closing snapshot",
			"agenda_id", t.agendaID.String(),
			"error", err,
		)
		t.timer = b.clock.AfterFunc(retryDelay, func() { b.expire(t) })
		t.mu.Unlock()
		return
	}
	if !snap.Closed() {
		b.scheduleLocked(ctx, t)
		t.mu.Unlock()
		return
	}
	b.deliverLocked(t, snap)
	t.mu.Unlock()

	b.forget(t)
	b.logger.InfoContext(ctx, "result stream closed",
		"event", "results_closed",
		"agenda_id", t.agendaID.String(),
		"yes", snap.Yes,
		"no", snap.No,
	)
}

// leave removes one subscriber, closing the topic when it was the last.
func (b *Broadcaster) leave(sub *Subscription) {
	t := sub.topic
	t.mu.Lock()
	b.finishLocked(t, sub)
	teardown := b.abandonLocked(t)
	t.mu.Unlock()
	if teardown {
		b.forget(t)
	}
}
