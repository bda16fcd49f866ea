package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	agendamodels "votacao/internal/agenda/models"
	agendastore "votacao/internal/agenda/store"
	"votacao/internal/session/metrics"
	"votacao/internal/session/models"
	"votacao/internal/session/store"
	id "votacao/pkg/domain"
	dErrors "votacao/pkg/domain-errors"
	"votacao/pkg/platform/clock"
	"votacao/pkg/platform/resilience"
)

// AgendaReader is the slice of the agenda store sessions depend on.
type AgendaReader interface {
	FindByID(ctx context.Context, agendaID id.AgendaID) (*agendamodels.Agenda, error)
}

// TallySeeder prepares zeroed counters for a freshly opened session.
type TallySeeder interface {
	Seed(ctx context.Context, agendaID id.AgendaID) error
}

// Service opens voting sessions and derives their status from the clock.
type Service struct {
	sessions store.Store
	agendas  AgendaReader
	tally    TallySeeder
	clock    clock.Clock
	metrics  *metrics.Metrics
	logger   *slog.Logger
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTallySeeder(t TallySeeder) Option {
	return func(s *Service) {
		s.tally = t
	}
}

func New(sessions store.Store, agendas AgendaReader, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if agendas == nil {
		return nil, errors.New("agenda reader is required")
	}
	s := &Service{
		sessions: sessions,
		agendas:  agendas,
		clock:    clock.System{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open starts the single voting session of an agenda. A nil duration
// defaults to one minute.
func (s *Service) Open(ctx context.Context, agendaID id.AgendaID, durationMinutes *int) (*models.Session, error) {
	duration := models.DefaultDurationMinutes
	if durationMinutes != nil {
		duration = *durationMinutes
	}
	if duration <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "duration_minutes must be a positive integer")
	}

	if _, err := s.agendas.FindByID(ctx, agendaID); err != nil {
		if errors.Is(err, agendastore.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "agenda not found")
		}
		return nil, resilience.DomainError(err, "failed to load agenda")
	}

	// TIMESTAMPTZ keeps microseconds
	now := s.clock.Now().Truncate(time.Microsecond)
	session, err := models.NewSession(id.NewSessionID(), agendaID, duration, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, dErrors.New(dErrors.CodeConflict, "agenda already has a voting session")
		case errors.Is(err, store.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "agenda not found")
		default:
			return nil, resilience.DomainError(err, "failed to open voting session")
		}
	}

	if s.tally != nil {
		if err := s.tally.Seed(ctx, agendaID); err != nil {
			s.logger.WarnContext(ctx, "failed to seed tally",
				"agenda_id", agendaID.String(),
				"error", err,
			)
		}
	}
	s.metrics.IncSessionsOpened()
	s.logger.InfoContext(ctx, "voting session opened",
		"event", "session_opened",
		"log_type", "audit",
		"agenda_id", agendaID.String(),
		"session_id", session.ID.String(),
		"end_time", session.EndTime,
	)
	return session, nil
}

// Get returns the session of an agenda or CodeSessionNotFound.
func (s *Service) Get(ctx context.Context, agendaID id.AgendaID) (*models.Session, error) {
	session, err := s.sessions.FindByAgendaID(ctx, agendaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeSessionNotFound, "voting session not found")
		}
		return nil, resilience.DomainError(err, "failed to load voting session")
	}
	return session, nil
}

func (s *Service) StatusOf(session *models.Session) models.Status {
	return session.StatusAt(s.clock.Now())
}
