package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry re-attempts failed calls with exponential backoff.
type Retry struct {
	maxAttempts int
	initial     time.Duration
	maxInterval time.Duration
	retryable   func(error) bool
	abort       func() bool
}

type RetryOption func(*Retry)

// WithBackoff sets the first wait and the cap between attempts.
func WithBackoff(initial, maxInterval time.Duration) RetryOption {
	return func(r *Retry) {
		if initial > 0 {
			r.initial = initial
		}
		if maxInterval > 0 {
			r.maxInterval = maxInterval
		}
	}
}

// WithRetryIf restricts retries to errors fn accepts.
func WithRetryIf(fn func(error) bool) RetryOption {
	return func(r *Retry) {
		if fn != nil {
			r.retryable = fn
		}
	}
}

// WithAbortWhen stops retrying once fn reports true, typically when the
// enclosing circuit breaker has opened.
func WithAbortWhen(fn func() bool) RetryOption {
	return func(r *Retry) {
		r.abort = fn
	}
}

// NewRetry makes at most maxAttempts calls in total.
func NewRetry(maxAttempts int, opts ...RetryOption) *Retry {
	r := &Retry{
		maxAttempts: maxAttempts,
		initial:     500 * time.Millisecond,
		maxInterval: 5 * time.Second,
		retryable:   DefaultRetryable,
	}
	if r.maxAttempts < 1 {
		r.maxAttempts = 1
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultRetryable retries everything except cancellation and guard
// rejections that another attempt cannot fix.
func DefaultRetryable(err error) bool {
	return err != nil &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, ErrOpen) &&
		!errors.Is(err, ErrRejected)
}

func (r *Retry) Attempt(ctx context.Context, call Call) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initial
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.maxAttempts-1)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		if attempt > 0 && r.abort != nil && r.abort() {
			return backoff.Permanent(ErrOpen)
		}
		attempt++
		err := call(ctx)
		if err != nil && !r.retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}
