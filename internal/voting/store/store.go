// Package store persists votes. InsertIfAbsent is the single point where
// concurrent submissions for the same voter are arbitrated.
package store

import (
	"context"

	"votacao/internal/voting/models"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/sentinel"
)

var ErrNotFound = sentinel.ErrNotFound

// Counts is a yes/no pair for one agenda.
type Counts struct {
	Yes int64
	No  int64
}

type Store interface {
	// InsertIfAbsent stores vote unless the voter already voted on the
	// agenda. When inserted is false the returned vote is the existing one.
	InsertIfAbsent(ctx context.Context, vote *models.Vote) (stored *models.Vote, inserted bool, err error)
	CountsByAgenda(ctx context.Context, agendaID id.AgendaID) (yes, no int64, err error)
	ListByAgenda(ctx context.Context, agendaID id.AgendaID) ([]*models.Vote, error)
	// CountsAll returns counts for every agenda with at least one vote.
	CountsAll(ctx context.Context) (map[id.AgendaID]Counts, error)
}
