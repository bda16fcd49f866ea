// Package clock provides the time source for expiry logic. Production code
// uses System; tests drive a Manual clock so elapsed time is deterministic.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock reports the current time and schedules callbacks against it.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f once d has elapsed on this clock.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped the timer before it fired.
	Stop() bool
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Manual is a clock that only moves when told to. Callbacks scheduled with
// AfterFunc run synchronously inside Advance/Set once their deadline is
// reached, in deadline order.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock    *Manual
	deadline time.Time
	f        func()
	fired    bool
	stopped  bool
}

// NewManual returns a Manual clock set to start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	t := &manualTimer{clock: m, deadline: m.now.Add(d), f: f}
	m.timers = append(m.timers, t)
	m.mu.Unlock()
	if d <= 0 {
		m.fireDue()
	}
	return t
}

// Advance moves the clock forward by d and fires due timers.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
	m.fireDue()
}

// Set moves the clock to t and fires due timers.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
	m.fireDue()
}

// fireDue runs callbacks outside the lock so they may read the clock or
// schedule new timers.
func (m *Manual) fireDue() {
	for {
		m.mu.Lock()
		sort.SliceStable(m.timers, func(i, j int) bool {
			return m.timers[i].deadline.Before(m.timers[j].deadline)
		})
		var due *manualTimer
		kept := m.timers[:0]
		for _, t := range m.timers {
			if t.stopped || t.fired {
				continue
			}
			if due == nil && !t.deadline.After(m.now) {
				due = t
				t.fired = true
				continue
			}
			kept = append(kept, t)
		}
		m.timers = kept
		m.mu.Unlock()
		if due == nil {
			return
		}
		due.f()
	}
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
