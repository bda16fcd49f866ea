package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"votacao/internal/agenda/models"
	id "votacao/pkg/domain"
)

// InMemoryStore keeps agendas in a map. Suitable for single-process runs
// and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	agendas map[id.AgendaID]*models.Agenda
	order   []id.AgendaID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{agendas: make(map[id.AgendaID]*models.Agenda)}
}

func (s *InMemoryStore) Create(_ context.Context, agenda *models.Agenda) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.agendas[agenda.ID]; exists {
		return fmt.Errorf("agenda %s already exists", agenda.ID)
	}
	stored := *agenda
	s.agendas[agenda.ID] = &stored
	s.order = append(s.order, agenda.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, agendaID id.AgendaID) (*models.Agenda, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agendas[agendaID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *a
	return &out, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Agenda, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Agenda, 0, len(s.order))
	for _, agendaID := range s.order {
		a := *s.agendas[agendaID]
		out = append(out, &a)
	}
	slices.SortStableFunc(out, func(a, b *models.Agenda) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}
