// Package resilience composes fault-tolerance guards around calls to
// unreliable dependencies.
//
// A Pipeline is an ordered list of guards. The first guard is the outermost:
// New(bulkhead, breaker, retry, timeLimit) runs a call as
// bulkhead(breaker(retry(timeLimit(call)))).
package resilience

import (
	"context"
	"errors"
	"sync"

	"votacao/pkg/platform/circuit"
)

// Call is a unit of work guarded by a pipeline.
type Call = func(ctx context.Context) error

// Guard wraps a call with one resilience concern.
type Guard interface {
	Attempt(ctx context.Context, call Call) error
}

// GuardFunc adapts a function to Guard.
type GuardFunc func(ctx context.Context, call Call) error

func (f GuardFunc) Attempt(ctx context.Context, call Call) error { return f(ctx, call) }

var (
	// ErrRejected is returned when the bulkhead is at capacity.
	ErrRejected = errors.New("bulkhead full")
	// ErrTimeout is returned when an attempt exceeds its time limit.
	ErrTimeout = errors.New("call timed out")
	// ErrOpen is returned while the circuit breaker is open.
	ErrOpen = circuit.ErrOpen
)

type Pipeline struct {
	guards []Guard
}

// New builds a pipeline from guards, outermost first. Nil guards are skipped.
func New(guards ...Guard) *Pipeline {
	p := &Pipeline{}
	for _, g := range guards {
		if g != nil {
			p.guards = append(p.guards, g)
		}
	}
	return p
}

// Execute runs call through every guard.
func (p *Pipeline) Execute(ctx context.Context, call Call) error {
	wrapped := call
	for i := len(p.guards) - 1; i >= 0; i-- {
		g, next := p.guards[i], wrapped
		wrapped = func(ctx context.Context) error {
			return g.Attempt(ctx, next)
		}
	}
	return wrapped(ctx)
}

// Do runs fn through p and returns its value. A timed-out attempt may still
// finish in the background; its value is discarded.
func Do[T any](ctx context.Context, p *Pipeline, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		mu  sync.Mutex
		out T
	)
	err := p.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		out = v
		mu.Unlock()
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	mu.Lock()
	defer mu.Unlock()
	return out, nil
}

// Reason names the guard that produced err, for logs and metric labels.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrRejected):
		return "rejected"
	case errors.Is(err, ErrOpen):
		return "circuit_open"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
