// Package store persists voting sessions with one-session-per-agenda
// enforced atomically by every implementation.
package store

import (
	"context"

	"votacao/internal/session/models"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	// ErrAlreadyExists is returned by Insert when the agenda already has a session.
	ErrAlreadyExists = sentinel.ErrAlreadyUsed
)

type Store interface {
	// Insert stores session unless its agenda already has one.
	Insert(ctx context.Context, session *models.Session) error
	FindByAgendaID(ctx context.Context, agendaID id.AgendaID) (*models.Session, error)
}
