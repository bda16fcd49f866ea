package store

import (
	"context"

	"votacao/internal/agenda/models"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/resilience"
)

// Resilient runs every call of a durable store through a storage pipeline.
type Resilient struct {
	next     Store
	pipeline *resilience.Standard
}

func NewResilient(next Store, pipeline *resilience.Standard) *Resilient {
	return &Resilient{next: next, pipeline: pipeline}
}

func (r *Resilient) Create(ctx context.Context, agenda *models.Agenda) error {
	err := r.pipeline.Execute(ctx, func(ctx context.Context) error {
		return r.next.Create(ctx, agenda)
	})
	return resilience.SurfaceStorage(err)
}

func (r *Resilient) FindByID(ctx context.Context, agendaID id.AgendaID) (*models.Agenda, error) {
	a, err := resilience.Do(ctx, r.pipeline.Pipeline, func(ctx context.Context) (*models.Agenda, error) {
		return r.next.FindByID(ctx, agendaID)
	})
	return a, resilience.SurfaceStorage(err)
}

func (r *Resilient) List(ctx context.Context) ([]*models.Agenda, error) {
	out, err := resilience.Do(ctx, r.pipeline.Pipeline, r.next.List)
	return out, resilience.SurfaceStorage(err)
}
