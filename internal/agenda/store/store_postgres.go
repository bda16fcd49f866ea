package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"votacao/internal/agenda/models"
	id "votacao/pkg/domain"
)

// PostgresStore persists agendas in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts agenda. Re-running it with the same ID is a no-op, so a
// retried attempt whose first try committed still succeeds.
func (s *PostgresStore) Create(ctx context.Context, agenda *models.Agenda) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agendas (id, title, description, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, uuid.UUID(agenda.ID), agenda.Title, agenda.Description, agenda.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert agenda: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, agendaID id.AgendaID) (*models.Agenda, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, created_at
		FROM agendas
		WHERE id = $1
	`, uuid.UUID(agendaID))
	a, err := scanAgenda(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find agenda: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Agenda, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, created_at
		FROM agendas
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list agendas: %w", err)
	}
	defer rows.Close()

	var out []*models.Agenda
	for rows.Next() {
		a, err := scanAgenda(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agenda: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list agendas: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAgenda(row scanner) (*models.Agenda, error) {
	var (
		rawID uuid.UUID
		a     models.Agenda
	)
	if err := row.Scan(&rawID, &a.Title, &a.Description, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ID = id.AgendaID(rawID)
	return &a, nil
}
