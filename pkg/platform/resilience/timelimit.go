package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeLimit aborts an attempt that exceeds a fixed deadline. The call's
// context is cancelled; if the call ignores it, its result is discarded.
type TimeLimit struct {
	timeout time.Duration
}

func NewTimeLimit(timeout time.Duration) *TimeLimit {
	return &TimeLimit{timeout: timeout}
}

func (t *TimeLimit) Attempt(ctx context.Context, call Call) error {
	attemptCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- call(attemptCtx)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return ErrTimeout
		}
		return err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTimeout
	}
}
