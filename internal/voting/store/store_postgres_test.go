package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"votacao/internal/voting/models"
	id "votacao/pkg/domain"
)

type PostgresStoreSuite struct {
	suite.Suite
	db    *sql.DB
	mock  sqlmock.Sqlmock
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.db, s.mock = db, mock
	s.store = NewPostgres(db)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

var voteColumns = []string{"id", "agenda_id", "voter_id", "choice", "voted_at"}

func (s *PostgresStoreSuite) vote() *models.Vote {
	return &models.Vote{
		ID:       id.NewVoteID(),
		AgendaID: id.NewAgendaID(),
		VoterID:  "52998224725",
		Choice:   models.ChoiceYes,
		VotedAt:  time.Date(2025, 3, 1, 9, 0, 30, 0, time.UTC),
	}
}

func (s *PostgresStoreSuite) TestInsertIfAbsentInserts() {
	v := s.vote()
	s.mock.ExpectQuery("INSERT INTO votes").
		WithArgs(uuid.UUID(v.ID), uuid.UUID(v.AgendaID), "52998224725", "YES", v.VotedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.UUID(v.ID).String()))

	stored, inserted, err := s.store.InsertIfAbsent(s.ctx, v)
	s.Require().NoError(err)
	s.True(inserted)
	s.Equal(v.ID, stored.ID)
}

func (s *PostgresStoreSuite) TestInsertIfAbsentDuplicate() {
	v := s.vote()
	existing := uuid.New()
	s.mock.ExpectQuery("INSERT INTO votes").WillReturnError(sql.ErrNoRows)
	s.mock.ExpectQuery("SELECT id, agenda_id, voter_id, choice, voted_at FROM votes WHERE agenda_id = \\$1 AND voter_id").
		WithArgs(uuid.UUID(v.AgendaID), "52998224725").
		WillReturnRows(sqlmock.NewRows(voteColumns).
			AddRow(existing.String(), uuid.UUID(v.AgendaID).String(), "52998224725", "NO", v.VotedAt))

	stored, inserted, err := s.store.InsertIfAbsent(s.ctx, v)
	s.Require().NoError(err)
	s.False(inserted)
	s.Equal(id.VoteID(existing), stored.ID)
	s.Equal(models.ChoiceNo, stored.Choice)
}

func (s *PostgresStoreSuite) TestInsertIfAbsentRetryAfterCommit() {
	v := s.vote()
	s.mock.ExpectQuery("INSERT INTO votes").WillReturnError(sql.ErrNoRows)
	s.mock.ExpectQuery("SELECT id, agenda_id, voter_id").
		WillReturnRows(sqlmock.NewRows(voteColumns).
			AddRow(uuid.UUID(v.ID).String(), uuid.UUID(v.AgendaID).String(), "52998224725", "YES", v.VotedAt))

	_, inserted, err := s.store.InsertIfAbsent(s.ctx, v)
	s.Require().NoError(err)
	s.True(inserted, "own row from an earlier committed attempt")
}

func (s *PostgresStoreSuite) TestInsertIfAbsentWrapsErrors() {
	s.mock.ExpectQuery("INSERT INTO votes").WillReturnError(errors.New("connection reset"))
	_, _, err := s.store.InsertIfAbsent(s.ctx, s.vote())
	s.Require().Error(err)
	s.Contains(err.Error(), "insert vote")
}

func (s *PostgresStoreSuite) TestCountsByAgenda() {
	agendaID := id.NewAgendaID()
	s.mock.ExpectQuery("SELECT COUNT").
		WithArgs(uuid.UUID(agendaID)).
		WillReturnRows(sqlmock.NewRows([]string{"yes", "no"}).AddRow(7, 3))

	yes, no, err := s.store.CountsByAgenda(s.ctx, agendaID)
	s.Require().NoError(err)
	s.Equal(int64(7), yes)
	s.Equal(int64(3), no)
}

func (s *PostgresStoreSuite) TestCountsAll() {
	a, b := uuid.New(), uuid.New()
	s.mock.ExpectQuery("GROUP BY agenda_id").
		WillReturnRows(sqlmock.NewRows([]string{"agenda_id", "yes", "no"}).
			AddRow(a.String(), 2, 1).
			AddRow(b.String(), 0, 4))

	all, err := s.store.CountsAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(Counts{Yes: 2, No: 1}, all[id.AgendaID(a)])
	s.Equal(Counts{No: 4}, all[id.AgendaID(b)])
}

func (s *PostgresStoreSuite) TestListByAgenda() {
	v := s.vote()
	s.mock.ExpectQuery("SELECT id, agenda_id, voter_id, choice, voted_at FROM votes WHERE agenda_id = \\$1 ORDER BY voted_at").
		WithArgs(uuid.UUID(v.AgendaID)).
		WillReturnRows(sqlmock.NewRows(voteColumns).
			AddRow(uuid.UUID(v.ID).String(), uuid.UUID(v.AgendaID).String(), "52998224725", "YES", v.VotedAt))

	list, err := s.store.ListByAgenda(s.ctx, v.AgendaID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(v.VoterID, list[0].VoterID)
}
