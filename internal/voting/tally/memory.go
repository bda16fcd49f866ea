package tally

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"votacao/internal/voting/models"
	id "votacao/pkg/domain"
)

type counters struct {
	yes atomic.Int64
	no  atomic.Int64
}

// MemoryCache holds lock-free counters per agenda.
type MemoryCache struct {
	agendas sync.Map // id.AgendaID -> *counters
}

func NewMemory() *MemoryCache {
	return &MemoryCache{}
}

func (m *MemoryCache) counters(agendaID id.AgendaID) *counters {
	if c, ok := m.agendas.Load(agendaID); ok {
		return c.(*counters)
	}
	c, _ := m.agendas.LoadOrStore(agendaID, &counters{})
	return c.(*counters)
}

func (m *MemoryCache) Seed(_ context.Context, agendaID id.AgendaID) error {
	m.counters(agendaID)
	return nil
}

func (m *MemoryCache) Increment(_ context.Context, agendaID id.AgendaID, choice models.Choice) error {
	c := m.counters(agendaID)
	switch choice {
	case models.ChoiceYes:
		c.yes.Add(1)
	case models.ChoiceNo:
		c.no.Add(1)
	default:
		return fmt.Errorf("invalid choice %d", int(choice))
	}
	return nil
}

func (m *MemoryCache) Counts(_ context.Context, agendaID id.AgendaID) (int64, int64, error) {
	v, ok := m.agendas.Load(agendaID)
	if !ok {
		return 0, 0, nil
	}
	c := v.(*counters)
	return c.yes.Load(), c.no.Load(), nil
}

func (m *MemoryCache) Set(_ context.Context, agendaID id.AgendaID, yes, no int64) error {
	c := m.counters(agendaID)
	c.yes.Store(yes)
	c.no.Store(no)
	return nil
}
