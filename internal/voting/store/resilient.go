package store

import (
	"context"

	"votacao/internal/voting/models"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/resilience"
)

// Resilient runs every call of a durable store through a storage pipeline.
// InsertIfAbsent is safe to retry because the postgres insert is idempotent
// per vote ID.
type Resilient struct {
	next     Store
	pipeline *resilience.Standard
}

func NewResilient(next Store, pipeline *resilience.Standard) *Resilient {
	return &Resilient{next: next, pipeline: pipeline}
}

type insertResult struct {
	vote     *models.Vote
	inserted bool
}

func (r *Resilient) InsertIfAbsent(ctx context.Context, vote *models.Vote) (*models.Vote, bool, error) {
	res, err := resilience.Do(ctx, r.pipeline.Pipeline, func(ctx context.Context) (insertResult, error) {
		stored, inserted, err := r.next.InsertIfAbsent(ctx, vote)
		return insertResult{vote: stored, inserted: inserted}, err
	})
	if err != nil {
		return nil, false, resilience.SurfaceStorage(err)
	}
	return res.vote, res.inserted, nil
}

func (r *Resilient) CountsByAgenda(ctx context.Context, agendaID id.AgendaID) (int64, int64, error) {
	c, err := resilience.Do(ctx, r.pipeline.Pipeline, func(ctx context.Context) (Counts, error) {
		yes, no, err := r.next.CountsByAgenda(ctx, agendaID)
		return Counts{Yes: yes, No: no}, err
	})
	return c.Yes, c.No, resilience.SurfaceStorage(err)
}

func (r *Resilient) ListByAgenda(ctx context.Context, agendaID id.AgendaID) ([]*models.Vote, error) {
	out, err := resilience.Do(ctx, r.pipeline.Pipeline, func(ctx context.Context) ([]*models.Vote, error) {
		return r.next.ListByAgenda(ctx, agendaID)
	})
	return out, resilience.SurfaceStorage(err)
}

func (r *Resilient) CountsAll(ctx context.Context) (map[id.AgendaID]Counts, error) {
	out, err := resilience.Do(ctx, r.pipeline.Pipeline, r.next.CountsAll)
	return out, resilience.SurfaceStorage(err)
}
