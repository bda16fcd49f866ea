// Package store persists agendas. The memory and postgres stores satisfy the
// same contract; Resilient guards a durable store at the repository boundary.
package store

import (
	"context"

	"votacao/internal/agenda/models"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/sentinel"
)

// ErrNotFound is returned when an agenda does not exist.
var ErrNotFound = sentinel.ErrNotFound

// Store is the agenda repository contract.
type Store interface {
	Create(ctx context.Context, agenda *models.Agenda) error
	FindByID(ctx context.Context, agendaID id.AgendaID) (*models.Agenda, error)
	// List returns agendas oldest first.
	List(ctx context.Context) ([]*models.Agenda, error)
}
