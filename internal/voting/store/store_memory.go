package store

import (
	"context"
	"sync"

	"votacao/internal/voting/models"
	id "votacao/pkg/domain"
)

type voteKey struct {
	agenda id.AgendaID
	voter  id.VoterID
}

type InMemoryStore struct {
	mu       sync.RWMutex
	votes    map[voteKey]*models.Vote
	byAgenda map[id.AgendaID][]*models.Vote
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		votes:    make(map[voteKey]*models.Vote),
		byAgenda: make(map[id.AgendaID][]*models.Vote),
	}
}

func (s *InMemoryStore) InsertIfAbsent(_ context.Context, vote *models.Vote) (*models.Vote, bool, error) {
	key := voteKey{agenda: vote.AgendaID, voter: vote.VoterID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.votes[key]; ok {
		out := *existing
		return &out, false, nil
	}
	stored := *vote
	s.votes[key] = &stored
	s.byAgenda[vote.AgendaID] = append(s.byAgenda[vote.AgendaID], &stored)
	out := stored
	return &out, true, nil
}

func (s *InMemoryStore) CountsByAgenda(_ context.Context, agendaID id.AgendaID) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := count(s.byAgenda[agendaID])
	return c.Yes, c.No, nil
}

func (s *InMemoryStore) ListByAgenda(_ context.Context, agendaID id.AgendaID) ([]*models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Vote, 0, len(s.byAgenda[agendaID]))
	for _, v := range s.byAgenda[agendaID] {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) CountsAll(_ context.Context) (map[id.AgendaID]Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.AgendaID]Counts, len(s.byAgenda))
	for agendaID, votes := range s.byAgenda {
		out[agendaID] = count(votes)
	}
	return out, nil
}

func count(votes []*models.Vote) Counts {
	var c Counts
	for _, v := range votes {
		switch v.Choice {
		case models.ChoiceYes:
			c.Yes++
		case models.ChoiceNo:
			c.No++
		}
	}
	return c
}
