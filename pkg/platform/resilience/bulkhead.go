package resilience

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Bulkhead caps concurrent in-flight calls. Calls beyond the cap fail
// immediately with ErrRejected rather than queueing.
type Bulkhead struct {
	sem *semaphore.Weighted
}

func NewBulkhead(maxConcurrent int) *Bulkhead {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Bulkhead{sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

func (b *Bulkhead) Attempt(ctx context.Context, call Call) error {
	if !b.sem.TryAcquire(1) {
		return ErrRejected
	}
	defer b.sem.Release(1)
	return call(ctx)
}
