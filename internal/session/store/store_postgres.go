package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"votacao/internal/platform/postgres"
	"votacao/internal/session/models"
	id "votacao/pkg/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Insert relies on the unique agenda_id constraint. When the row already
// exists with this session's own ID, an earlier attempt committed and the
// insert counts as done.
func (s *PostgresStore) Insert(ctx context.Context, session *models.Session) error {
	var inserted uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO voting_sessions (id, agenda_id, duration_minutes, created_at, end_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (agenda_id) DO NOTHING
		RETURNING id
	`, uuid.UUID(session.ID), uuid.UUID(session.AgendaID), session.DurationMinutes,
		session.CreatedAt, session.EndTime).Scan(&inserted)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		existing, findErr := s.FindByAgendaID(ctx, session.AgendaID)
		if findErr != nil {
			return fmt.Errorf("load conflicting session: %w", findErr)
		}
		if existing.ID == session.ID {
			return nil
		}
		return ErrAlreadyExists
	case postgres.IsForeignKeyViolation(err):
		return fmt.Errorf("agenda %s: %w", session.AgendaID, ErrNotFound)
	default:
		return fmt.Errorf("insert session: %w", err)
	}
}

func (s *PostgresStore) FindByAgendaID(ctx context.Context, agendaID id.AgendaID) (*models.Session, error) {
	var (
		rawID, rawAgenda uuid.UUID
		out              models.Session
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, agenda_id, duration_minutes, created_at, end_time
		FROM voting_sessions
		WHERE agenda_id = $1
	`, uuid.UUID(agendaID)).Scan(&rawID, &rawAgenda, &out.DurationMinutes, &out.CreatedAt, &out.EndTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	out.ID = id.SessionID(rawID)
	out.AgendaID = id.AgendaID(rawAgenda)
	return &out, nil
}
