package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"votacao/internal/platform/postgres"
	"votacao/internal/voting/models"
	id "votacao/pkg/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// InsertIfAbsent relies on the (agenda_id, voter_id) unique constraint. A
// conflicting row carrying this vote's own ID means an earlier attempt
// committed, which still counts as inserted.
func (s *PostgresStore) InsertIfAbsent(ctx context.Context, vote *models.Vote) (*models.Vote, bool, error) {
	var inserted uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO votes (id, agenda_id, voter_id, choice, voted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (agenda_id, voter_id) DO NOTHING
		RETURNING id
	`, uuid.UUID(vote.ID), uuid.UUID(vote.AgendaID), string(vote.VoterID),
		vote.Choice.DBValue(), vote.VotedAt).Scan(&inserted)
	switch {
	case err == nil:
		out := *vote
		return &out, true, nil
	case errors.Is(err, sql.ErrNoRows):
		existing, findErr := s.findByVoter(ctx, vote.AgendaID, vote.VoterID)
		if findErr != nil {
			return nil, false, fmt.Errorf("load conflicting vote: %w", findErr)
		}
		return existing, existing.ID == vote.ID, nil
	case postgres.IsForeignKeyViolation(err):
		return nil, false, fmt.Errorf("agenda %s: %w", vote.AgendaID, ErrNotFound)
	default:
		return nil, false, fmt.Errorf("insert vote: %w", err)
	}
}

func (s *PostgresStore) findByVoter(ctx context.Context, agendaID id.AgendaID, voterID id.VoterID) (*models.Vote, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, agenda_id, voter_id, choice, voted_at
		FROM votes
		WHERE agenda_id = $1 AND voter_id = $2
	`, uuid.UUID(agendaID), string(voterID))
	v, err := scanVote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *PostgresStore) CountsByAgenda(ctx context.Context, agendaID id.AgendaID) (int64, int64, error) {
	var yes, no int64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE choice = 'YES'),
			COUNT(*) FILTER (WHERE choice = 'NO')
		FROM votes
		WHERE agenda_id = $1
	`, uuid.UUID(agendaID)).Scan(&yes, &no)
	if err != nil {
		return 0, 0, fmt.Errorf("count votes: %w", err)
	}
	return yes, no, nil
}

func (s *PostgresStore) ListByAgenda(ctx context.Context, agendaID id.AgendaID) ([]*models.Vote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agenda_id, voter_id, choice, voted_at
		FROM votes
		WHERE agenda_id = $1
		ORDER BY voted_at
	`, uuid.UUID(agendaID))
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	var out []*models.Vote
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountsAll(ctx context.Context) (map[id.AgendaID]Counts, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			agenda_id,
			COUNT(*) FILTER (WHERE choice = 'YES'),
			COUNT(*) FILTER (WHERE choice = 'NO')
		FROM votes
		GROUP BY agenda_id
	`)
	if err != nil {
		return nil, fmt.Errorf("count all votes: %w", err)
	}
	defer rows.Close()

	out := make(map[id.AgendaID]Counts)
	for rows.Next() {
		var (
			agendaID uuid.UUID
			c        Counts
		)
		if err := rows.Scan(&agendaID, &c.Yes, &c.No); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}
		out[id.AgendaID(agendaID)] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count all votes: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVote(row scanner) (*models.Vote, error) {
	var (
		rawID, rawAgenda uuid.UUID
		voter, choice    string
		v                models.Vote
	)
	if err := row.Scan(&rawID, &rawAgenda, &voter, &choice, &v.VotedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan vote: %w", err)
	}
	parsed, err := models.ParseChoice(choice)
	if err != nil {
		return nil, fmt.Errorf("stored choice %q: %w", choice, err)
	}
	v.ID = id.VoteID(rawID)
	v.AgendaID = id.AgendaID(rawAgenda)
	v.VoterID = id.VoterID(voter)
	v.Choice = parsed
	return &v, nil
}
