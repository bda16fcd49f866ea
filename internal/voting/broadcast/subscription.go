package broadcast

import (
	"context"

	"votacao/internal/voting/models"
)

// Subscription receives snapshots for one agenda until the session closes,
// the subscribe context ends, or Close is called.
type Subscription struct {
	b       *Broadcaster
	topic   *topic
	updates chan models.TallySnapshot
	done    chan struct{}
}

func newSubscription(b *Broadcaster, t *topic, size int) *Subscription {
	return &Subscription{
		b:       b,
		topic:   t,
		updates: make(chan models.TallySnapshot, size),
		done:    make(chan struct{}),
	}
}

// Updates is closed after the Closed snapshot or on cancellation.
func (s *Subscription) Updates() <-chan models.TallySnapshot {
	return s.updates
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close ends this subscription only. Safe to call more than once.
func (s *Subscription) Close() {
	s.b.leave(s)
}

func (s *Subscription) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		s.Close()
	case <-s.done:
	}
}

// offer enqueues snap, dropping the oldest pending snapshot when the buffer
// is full. Called with the topic lock held, so it is the only sender. It
// reports whether anything was dropped.
func (s *Subscription) offer(snap models.TallySnapshot) (dropped bool) {
	for {
		select {
		case s.updates <- snap:
			return dropped
		default:
		}
		select {
		case <-s.updates:
			dropped = true
		default:
		}
	}
}
