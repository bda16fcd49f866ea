// Package circuit implements a count-based circuit breaker.
//
// The breaker keeps the outcomes of the last N calls in a ring. Once at least
// minimumCalls outcomes are recorded and the failure rate reaches the
// threshold, it opens and rejects calls for openDuration. It then admits a
// limited number of trial calls (half-open); if their failure rate stays
// below the threshold it closes, otherwise it opens again.
package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	"votacao/pkg/platform/clock"
)

// ErrOpen is returned without calling through while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Change describes a transition caused by a recorded outcome.
type Change struct {
	Opened bool
	Closed bool
}

type Breaker struct {
	name string

	windowSize    int
	minimumCalls  int
	threshold     float64
	openDuration  time.Duration
	halfOpenCalls int
	clock         clock.Clock
	isFailure     func(error) bool
	onChange      func(name string, from, to State)

	mu       sync.Mutex
	state    State
	ring     []bool
	pos      int
	filled   int
	failures int
	openedAt time.Time

	trialsAdmitted int
	trialsDone     int
	trialFailures  int
}

type Option func(*Breaker)

// WithWindow sets the number of most recent outcomes considered.
func WithWindow(size int) Option {
	return func(b *Breaker) {
		if size > 0 {
			b.windowSize = size
		}
	}
}

// WithMinimumCalls sets how many outcomes must be recorded before the
// failure rate is evaluated.
func WithMinimumCalls(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.minimumCalls = n
		}
	}
}

// WithFailureRate sets the opening threshold as a percentage (0-100].
func WithFailureRate(percent float64) Option {
	return func(b *Breaker) {
		if percent > 0 && percent <= 100 {
			b.threshold = percent
		}
	}
}

func WithOpenDuration(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.openDuration = d
		}
	}
}

// WithHalfOpenCalls sets how many trial calls are admitted after the open
// period.
func WithHalfOpenCalls(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.halfOpenCalls = n
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(b *Breaker) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithFailureClassifier decides which errors count as failures. Errors it
// rejects are recorded as successes. By default every non-nil error except
// context.Canceled is a failure.
func WithFailureClassifier(fn func(error) bool) Option {
	return func(b *Breaker) {
		if fn != nil {
			b.isFailure = fn
		}
	}
}

// WithStateChange registers a hook invoked after every transition.
func WithStateChange(fn func(name string, from, to State)) Option {
	return func(b *Breaker) {
		b.onChange = fn
	}
}

// New builds a breaker. Defaults: window 100, minimum calls 100, failure
// rate 50%, open for 60s, 10 half-open trials.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:          name,
		windowSize:    100,
		minimumCalls:  100,
		threshold:     50,
		openDuration:  60 * time.Second,
		halfOpenCalls: 10,
		clock:         clock.System{},
		isFailure:     defaultIsFailure,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.minimumCalls > b.windowSize {
		b.minimumCalls = b.windowSize
	}
	b.ring = make([]bool, b.windowSize)
	return b
}

func defaultIsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

func (b *Breaker) Name() string { return b.name }

// State returns the current state, moving Open to HalfOpen once the open
// period has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	from, to := b.refreshLocked()
	b.mu.Unlock()
	b.notify(from, to)
	return to
}

// IsOpen reports whether calls are currently being rejected outright.
func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// Allow reserves permission for one call. Every successful Allow must be
// followed by exactly one RecordSuccess or RecordFailure.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	from, to := b.refreshLocked()
	err := b.admitLocked()
	b.mu.Unlock()
	b.notify(from, to)
	return err
}

func (b *Breaker) admitLocked() error {
	switch b.state {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if b.trialsAdmitted >= b.halfOpenCalls {
			return ErrOpen
		}
		b.trialsAdmitted++
	}
	return nil
}

// Record classifies err and records the outcome.
func (b *Breaker) Record(err error) Change {
	if b.isFailure(err) {
		return b.RecordFailure()
	}
	return b.RecordSuccess()
}

func (b *Breaker) RecordSuccess() Change {
	return b.record(false)
}

func (b *Breaker) RecordFailure() Change {
	return b.record(true)
}

// Attempt runs call if the breaker admits it and records the outcome.
func (b *Breaker) Attempt(ctx context.Context, call func(context.Context) error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := call(ctx)
	b.Record(err)
	return err
}

// Reset forces the breaker closed with an empty window.
func (b *Breaker) Reset() {
	b.mu.Lock()
	from := b.state
	b.closeLocked()
	b.mu.Unlock()
	b.notify(from, StateClosed)
}

func (b *Breaker) record(failed bool) Change {
	b.mu.Lock()
	from := b.state
	var change Change

	switch b.state {
	case StateClosed:
		b.pushLocked(failed)
		if b.filled >= b.minimumCalls && b.rateLocked() >= b.threshold {
			b.openLocked()
			change.Opened = true
		}
	case StateHalfOpen:
		b.trialsDone++
		if failed {
			b.trialFailures++
		}
		if b.trialsDone >= b.halfOpenCalls {
			rate := float64(b.trialFailures) * 100 / float64(b.trialsDone)
			if rate >= b.threshold {
				b.openLocked()
				change.Opened = true
			} else {
				b.closeLocked()
				change.Closed = true
			}
		}
	case StateOpen:
		// Late result of a call admitted before the breaker opened.
	}
	to := b.state
	b.mu.Unlock()
	b.notify(from, to)
	return change
}

func (b *Breaker) pushLocked(failed bool) {
	if b.filled == b.windowSize && b.ring[b.pos] {
		b.failures--
	}
	b.ring[b.pos] = failed
	if failed {
		b.failures++
	}
	b.pos = (b.pos + 1) % b.windowSize
	if b.filled < b.windowSize {
		b.filled++
	}
}

func (b *Breaker) rateLocked() float64 {
	if b.filled == 0 {
		return 0
	}
	return float64(b.failures) * 100 / float64(b.filled)
}

func (b *Breaker) openLocked() {
	b.state = StateOpen
	b.openedAt = b.clock.Now()
	b.trialsAdmitted, b.trialsDone, b.trialFailures = 0, 0, 0
}

func (b *Breaker) closeLocked() {
	b.state = StateClosed
	clear(b.ring)
	b.pos, b.filled, b.failures = 0, 0, 0
	b.trialsAdmitted, b.trialsDone, b.trialFailures = 0, 0, 0
}

func (b *Breaker) refreshLocked() (State, State) {
	from := b.state
	if b.state == StateOpen && !b.clock.Now().Before(b.openedAt.Add(b.openDuration)) {
		b.state = StateHalfOpen
		b.trialsAdmitted, b.trialsDone, b.trialFailures = 0, 0, 0
	}
	return from, b.state
}

// notify runs the hook. Callers must not hold b.mu.
func (b *Breaker) notify(from, to State) {
	if from != to && b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}
