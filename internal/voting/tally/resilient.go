package tally

import (
	"context"

	"votacao/internal/voting/models"
	"votacao/internal/voting/store"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/resilience"
)

// Resilient guards a remote cache with a storage pipeline.
type Resilient struct {
	next     Cache
	pipeline *resilience.Standard
}

func NewResilient(next Cache, pipeline *resilience.Standard) *Resilient {
	return &Resilient{next: next, pipeline: pipeline}
}

func (r *Resilient) Seed(ctx context.Context, agendaID id.AgendaID) error {
	return resilience.SurfaceStorage(r.pipeline.Execute(ctx, func(ctx context.Context) error {
		return r.next.Seed(ctx, agendaID)
	}))
}

// Increment is not idempotent, so it is never retried.
func (r *Resilient) Increment(ctx context.Context, agendaID id.AgendaID, choice models.Choice) error {
	return resilience.SurfaceStorage(r.pipeline.Breaker.Attempt(ctx, func(ctx context.Context) error {
		return r.next.Increment(ctx, agendaID, choice)
	}))
}

func (r *Resilient) Counts(ctx context.Context, agendaID id.AgendaID) (int64, int64, error) {
	c, err := resilience.Do(ctx, r.pipeline.Pipeline, func(ctx context.Context) (store.Counts, error) {
		yes, no, err := r.next.Counts(ctx, agendaID)
		return store.Counts{Yes: yes, No: no}, err
	})
	if err != nil {
		return 0, 0, resilience.SurfaceStorage(err)
	}
	return c.Yes, c.No, nil
}

func (r *Resilient) Set(ctx context.Context, agendaID id.AgendaID, yes, no int64) error {
	return resilience.SurfaceStorage(r.pipeline.Execute(ctx, func(ctx context.Context) error {
		return r.next.Set(ctx, agendaID, yes, no)
	}))
}
