package service

import (
	"sync"

	id "votacao/pkg/domain"
)

// agendaLocks hands out one RWMutex per agenda. Admissions hold the read
// side from the status check until the tally increment; tally rewrites and
// closing snapshots hold the write side so no admission is half applied
// while they read.
type agendaLocks struct {
	locks sync.Map // id.AgendaID -> *sync.RWMutex
}

func (l *agendaLocks) get(agendaID id.AgendaID) *sync.RWMutex {
	if mu, ok := l.locks.Load(agendaID); ok {
		return mu.(*sync.RWMutex)
	}
	mu, _ := l.locks.LoadOrStore(agendaID, &sync.RWMutex{})
	return mu.(*sync.RWMutex)
}
