package store

import (
	"context"
	"sync"

	"votacao/internal/session/models"
	id "votacao/pkg/domain"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	byAgenda map[id.AgendaID]*models.Session
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{byAgenda: make(map[id.AgendaID]*models.Session)}
}

func (s *InMemoryStore) Insert(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byAgenda[session.AgendaID]; exists {
		return ErrAlreadyExists
	}
	stored := *session
	s.byAgenda[session.AgendaID] = &stored
	return nil
}

func (s *InMemoryStore) FindByAgendaID(_ context.Context, agendaID id.AgendaID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found, ok := s.byAgenda[agendaID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *found
	return &out, nil
}
