package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"votacao/internal/voting/models"
	id "votacao/pkg/domain"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func newVote(agendaID id.AgendaID, voter string, choice models.Choice) *models.Vote {
	return &models.Vote{
		ID:       id.NewVoteID(),
		AgendaID: agendaID,
		VoterID:  id.VoterID(voter),
		Choice:   choice,
		VotedAt:  time.Now(),
	}
}

func (s *InMemoryStoreSuite) TestInsertIfAbsent() {
	agendaID := id.NewAgendaID()
	first := newVote(agendaID, "12345678901", models.ChoiceYes)

	stored, inserted, err := s.store.InsertIfAbsent(s.ctx, first)
	s.Require().NoError(err)
	s.True(inserted)
	s.Equal(first.ID, stored.ID)

	stored, inserted, err = s.store.InsertIfAbsent(s.ctx, newVote(agendaID, "12345678901", models.ChoiceNo))
	s.Require().NoError(err)
	s.False(inserted)
	s.Equal(first.ID, stored.ID, "existing vote is returned")
	s.Equal(models.ChoiceYes, stored.Choice)

	_, inserted, err = s.store.InsertIfAbsent(s.ctx, newVote(id.NewAgendaID(), "12345678901", models.ChoiceNo))
	s.Require().NoError(err)
	s.True(inserted, "same voter may vote on another agenda")
}

func (s *InMemoryStoreSuite) TestConcurrentIdenticalInsertsHaveOneWinner() {
	agendaID := id.NewAgendaID()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			_, inserted, err := s.store.InsertIfAbsent(s.ctx, newVote(agendaID, "12345678901", models.ChoiceYes))
			if err == nil && inserted {
				wins.Add(1)
			}
		})
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())

	yes, no, err := s.store.CountsByAgenda(s.ctx, agendaID)
	s.Require().NoError(err)
	s.Equal(int64(1), yes)
	s.Zero(no)
}

func (s *InMemoryStoreSuite) TestCounts() {
	a, b := id.NewAgendaID(), id.NewAgendaID()
	for i := range 5 {
		choice := models.ChoiceYes
		if i%2 == 1 {
			choice = models.ChoiceNo
		}
		_, _, err := s.store.InsertIfAbsent(s.ctx, newVote(a, fmt.Sprintf("%011d", i), choice))
		s.Require().NoError(err)
	}
	_, _, err := s.store.InsertIfAbsent(s.ctx, newVote(b, "00000000009", models.ChoiceNo))
	s.Require().NoError(err)

	yes, no, err := s.store.CountsByAgenda(s.ctx, a)
	s.Require().NoError(err)
	s.Equal(int64(3), yes)
	s.Equal(int64(2), no)

	all, err := s.store.CountsAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(Counts{Yes: 3, No: 2}, all[a])
	s.Equal(Counts{No: 1}, all[b])

	list, err := s.store.ListByAgenda(s.ctx, a)
	s.Require().NoError(err)
	s.Len(list, 5)
}
