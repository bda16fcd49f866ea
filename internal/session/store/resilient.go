package store

import (
	"context"

	"votacao/internal/session/models"
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

func (r *Resilient) Insert(ctx context.Context, session *models.Session) error {
	err := r.pipeline.Execute(ctx, func(ctx context.Context) error {
		return r.next.Insert(ctx, session)
	})
	return resilience.SurfaceStorage(err)
}

func (r *Resilient) FindByAgendaID(ctx context.Context, agendaID id.AgendaID) (*models.Session, error) {
	s, err := resilience.Do(ctx, r.pipeline.Pipeline, func(ctx context.Context) (*models.Session, error) {
		return r.next.FindByAgendaID(ctx, agendaID)
	})
	return s, resilience.SurfaceStorage(err)
}
