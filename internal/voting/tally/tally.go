// Package tally keeps per-agenda yes/no counters outside the vote store so
// results can be read without a recount. The store stays the source of
// truth; Warm and Reconcile rebuild counters from it.
package tally

import (
	"context"
	"fmt"

	"votacao/internal/voting/models"
	"votacao/internal/voting/store"
	id "votacao/pkg/domain"
)

type Cache interface {
	// Seed makes the agenda's counters exist at zero without touching
	// existing values.
	Seed(ctx context.Context, agendaID id.AgendaID) error
	Increment(ctx context.Context, agendaID id.AgendaID, choice models.Choice) error
	Counts(ctx context.Context, agendaID id.AgendaID) (yes, no int64, err error)
	// Set overwrites the agenda's counters.
	Set(ctx context.Context, agendaID id.AgendaID, yes, no int64) error
}

// Source is the durable count the cache is derived from.
type Source interface {
	CountsByAgenda(ctx context.Context, agendaID id.AgendaID) (yes, no int64, err error)
	CountsAll(ctx context.Context) (map[id.AgendaID]store.Counts, error)
}

// Warm loads every agenda's counts from src. It runs before the server
// accepts traffic and returns the number of agendas loaded.
func Warm(ctx context.Context, cache Cache, src Source) (int, error) {
	all, err := src.CountsAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load counts: %w", err)
	}
	for agendaID, c := range all {
		if err := cache.Set(ctx, agendaID, c.Yes, c.No); err != nil {
			return 0, fmt.Errorf("warm tally %s: %w", agendaID, err)
		}
	}
	return len(all), nil
}

// Reconcile recounts one agenda from src and overwrites the cache. Callers
// keep admissions for the agenda out until it returns; an increment landing
// between the recount and the overwrite is lost.
func Reconcile(ctx context.Context, cache Cache, src Source, agendaID id.AgendaID) (yes, no int64, err error) {
	yes, no, err = src.CountsByAgenda(ctx, agendaID)
	if err != nil {
		return 0, 0, fmt.Errorf("recount %s: %w", agendaID, err)
	}
	if err := cache.Set(ctx, agendaID, yes, no); err != nil {
		return 0, 0, fmt.Errorf("reconcile tally %s: %w", agendaID, err)
	}
	return yes, no, nil
}
