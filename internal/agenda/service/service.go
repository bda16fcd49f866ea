package service

import (
	"context"
	"errors"
	"log/slog"

	"votacao/internal/agenda/models"
	"votacao/internal/agenda/store"
	id "votacao/pkg/domain"
	dErrors "votacao/pkg/domain-errors"
	"votacao/pkg/platform/clock"
	"votacao/pkg/platform/resilience"
)

// Service creates and reads agendas.
type Service struct {
	agendas store.Store
	clock   clock.Clock
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

func New(agendas store.Store, opts ...Option) (*Service, error) {
	if agendas == nil {
		return nil, errors.New("agenda store is required")
	}
	s := &Service{agendas: agendas, clock: clock.System{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create validates and stores a new agenda.
func (s *Service) Create(ctx context.Context, title, description string) (*models.Agenda, error) {
	a, err := models.NewAgenda(id.NewAgendaID(), title, description, s.clock.Now())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.agendas.Create(ctx, a); err != nil {
		return nil, resilience.DomainError(err, "failed to create agenda")
	}
	s.logger.InfoContext(ctx, "agenda created",
		"event", "agenda_created",
		"log_type", "audit",
		"agenda_id", a.ID.String(),
	)
	return a, nil
}

// Get returns an agenda or CodeNotFound.
func (s *Service) Get(ctx context.Context, agendaID id.AgendaID) (*models.Agenda, error) {
	a, err := s.agendas.FindByID(ctx, agendaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "agenda not found")
		}
		return nil, resilience.DomainError(err, "failed to load agenda")
	}
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Agenda, error) {
	list, err := s.agendas.List(ctx)
	if err != nil {
		return nil, resilience.DomainError(err, "failed to list agendas")
	}
	if list == nil {
		list = []*models.Agenda{}
	}
	return list, nil
}
