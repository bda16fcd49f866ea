package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	eligibilitymodels "votacao/internal/eligibility/models"
	sessionmodels "votacao/internal/session/models"
	"votacao/internal/voting/events"
	"votacao/internal/voting/metrics"
	"votacao/internal/voting/models"
	"votacao/internal/voting/store"
	"votacao/internal/voting/tally"
	id "votacao/pkg/domain"
	dErrors "votacao/pkg/domain-errors"
	"votacao/pkg/platform/clock"
	"votacao/pkg/platform/privacy"
	"votacao/pkg/platform/resilience"
)

// Eligibility always answers with a verdict.
type Eligibility interface {
	Check(ctx context.Context, voterID id.VoterID) eligibilitymodels.Verdict
}

// Sessions is the part of the session service vote admission needs.
type Sessions interface {
	Get(ctx context.Context, agendaID id.AgendaID) (*sessionmodels.Session, error)
	StatusOf(session *sessionmodels.Session) sessionmodels.Status
}

// Service admits votes and reports results.
type Service struct {
	eligibility Eligibility
	sessions    Sessions
	votes       store.Store
	tally       tally.Cache
	publisher   events.Publisher
	clock       clock.Clock
	hasher      *privacy.Hasher
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	logger      *slog.Logger

	locks agendaLocks
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

func WithHasher(h *privacy.Hasher) Option {
	return func(s *Service) {
		s.hasher = h
	}
}

// WithPublisher sets where admitted votes are announced.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(eligibility Eligibility, sessions Sessions, votes store.Store, cache tally.Cache, opts ...Option) (*Service, error) {
	switch {
	case eligibility == nil:
		return nil, errors.New("eligibility checker is required")
	case sessions == nil:
		return nil, errors.New("session service is required")
	case votes == nil:
		return nil, errors.New("vote store is required")
	case cache == nil:
		return nil, errors.New("tally cache is required")
	}
	s := &Service{
		eligibility: eligibility,
		sessions:    sessions,
		votes:       votes,
		tally:       cache,
		clock:       clock.System{},
		tracer:      otel.Tracer("votacao/voting"),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetPublisher replaces the publisher after construction. The broadcaster
// reads results from this service, so it can only be attached afterwards.
func (s *Service) SetPublisher(p events.Publisher) {
	s.publisher = p
}

// Submit admits one vote. Checks run in a fixed order: voter id format,
// eligibility, session existence, session status, then the atomic insert.
func (s *Service) Submit(ctx context.Context, agendaID id.AgendaID, rawVoterID string, choice models.Choice) (*models.Vote, error) {
	ctx, span := s.tracer.Start(ctx, "voting.submit",
		trace.WithAttributes(attribute.String("agenda.id", agendaID.String())))
	defer span.End()

	vote, outcome, err := s.admit(ctx, agendaID, rawVoterID, choice)
	span.SetAttributes(attribute.String("vote.outcome", outcome))
	s.metrics.IncVote(outcome)
	if err != nil {
		if outcome == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, "vote admission failed")
		}
		s.logger.InfoContext(ctx, "vote rejected",
			"event", "vote_rejected",
			"log_type", "audit",
			"agenda_id", agendaID.String(),
			"voter", s.hasher.Voter(rawVoterID),
			"outcome", outcome,
		)
		return nil, err
	}
	s.logger.InfoContext(ctx, "vote submitted",
		"event", "vote_submitted",
		"log_type", "audit",
		"agenda_id", agendaID.String(),
		"vote_id", vote.ID.String(),
		"voter", s.hasher.Voter(rawVoterID),
	)
	return vote, nil
}

func (s *Service) admit(ctx context.Context, agendaID id.AgendaID, rawVoterID string, choice models.Choice) (*models.Vote, string, error) {
	voterID, err := id.ParseVoterID(rawVoterID)
	if err != nil {
		return nil, "invalid_voter_id", err
	}
	if choice != models.ChoiceYes && choice != models.ChoiceNo {
		return nil, "invalid_choice", dErrors.New(dErrors.CodeValidation, `vote must be "Yes" or "No"`)
	}

	if s.eligibility.Check(ctx, voterID) != eligibilitymodels.AbleToVote {
		return nil, "not_eligible", dErrors.New(dErrors.CodeNotEligible, "CPF is not able to vote")
	}

	session, err := s.sessions.Get(ctx, agendaID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeSessionNotFound) {
			return nil, "session_not_found", err
		}
		return nil, "error", err
	}
	stored, outcome, err := s.record(ctx, agendaID, session, voterID, choice)
	if err != nil {
		return nil, outcome, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishVote(ctx, stored); err != nil {
			s.metrics.IncPublishFailure("fanout")
			s.logger.WarnContext(ctx, "vote publish failed",
				"agenda_id", agendaID.String(),
				"error", err,
			)
		}
	}
	return stored, "admitted", nil
}

// record runs the status check, the insert and the tally increment under the
// agenda's read lock, so a closing snapshot or a reconcile never observes an
// admission between its insert and its increment.
func (s *Service) record(ctx context.Context, agendaID id.AgendaID, session *sessionmodels.Session, voterID id.VoterID, choice models.Choice) (*models.Vote, string, error) {
	mu := s.locks.get(agendaID)
	mu.RLock()
	defer mu.RUnlock()

	if s.sessions.StatusOf(session) == sessionmodels.StatusClosed {
		return nil, "session_closed", dErrors.New(dErrors.CodeSessionClosed, "voting session is closed")
	}

	vote := &models.Vote{
		ID:       id.NewVoteID(),
		AgendaID: agendaID,
		VoterID:  voterID,
		Choice:   choice,
		VotedAt:  s.clock.Now(),
	}
	stored, inserted, err := s.votes.InsertIfAbsent(ctx, vote)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "session_not_found", dErrors.New(dErrors.CodeSessionNotFound, "voting session not found")
		}
		return nil, "error", resilience.DomainError(err, "failed to record vote")
	}
	if !inserted {
		return nil, "duplicate", dErrors.New(dErrors.CodeDuplicateVote, "CPF has already voted on this agenda")
	}

	if err := s.tally.Increment(ctx, agendaID, choice); err != nil {
		s.metrics.IncTallyDrift()
		s.logger.ErrorContext(ctx, "tally increment failed, reconcile required",
			"agenda_id", agendaID.String(),
			"error", err,
		)
	}
	return stored, "", nil
}

// Results returns the current snapshot. Counts come from the tally cache,
// falling back to a recount when the cache cannot be read. Once the session
// is closed the counts are read only after every admission that passed the
// status check has reached the tally.
func (s *Service) Results(ctx context.Context, agendaID id.AgendaID) (models.TallySnapshot, error) {
	session, err := s.sessions.Get(ctx, agendaID)
	if err != nil {
		return models.TallySnapshot{}, err
	}
	status := s.sessions.StatusOf(session)
	if status == sessionmodels.StatusClosed {
		mu := s.locks.get(agendaID)
		mu.Lock()
		defer mu.Unlock()
	}
	yes, no, err := s.tally.Counts(ctx, agendaID)
	if err != nil {
		s.logger.WarnContext(ctx, "tally read failed, recounting from store",
			"agenda_id", agendaID.String(),
			"error", err,
		)
		yes, no, err = s.votes.CountsByAgenda(ctx, agendaID)
		if err != nil {
			return models.TallySnapshot{}, resilience.DomainError(err, "failed to count votes")
		}
	}
	return models.TallySnapshot{
		AgendaID: agendaID,
		Yes:      yes,
		No:       no,
		Status:   status,
	}, nil
}

// SessionEnd returns when the agenda's session stops admitting votes.
func (s *Service) SessionEnd(ctx context.Context, agendaID id.AgendaID) (time.Time, error) {
	session, err := s.sessions.Get(ctx, agendaID)
	if err != nil {
		return time.Time{}, err
	}
	return session.EndTime, nil
}

// Votes lists the agenda's admitted votes.
func (s *Service) Votes(ctx context.Context, agendaID id.AgendaID) ([]*models.Vote, error) {
	if _, err := s.sessions.Get(ctx, agendaID); err != nil {
		return nil, err
	}
	list, err := s.votes.ListByAgenda(ctx, agendaID)
	if err != nil {
		return nil, resilience.DomainError(err, "failed to list votes")
	}
	if list == nil {
		list = []*models.Vote{}
	}
	return list, nil
}

// Reconcile overwrites the cached tally with a recount from the vote store.
// Admissions for the agenda wait until the cache has been rewritten.
func (s *Service) Reconcile(ctx context.Context, agendaID id.AgendaID) (models.TallySnapshot, error) {
	session, err := s.sessions.Get(ctx, agendaID)
	if err != nil {
		return models.TallySnapshot{}, err
	}
	mu := s.locks.get(agendaID)
	mu.Lock()
	yes, no, err := tally.Reconcile(ctx, s.tally, s.votes, agendaID)
	mu.Unlock()
	if err != nil {
		return models.TallySnapshot{}, resilience.DomainError(err, "failed to reconcile tally")
	}
	s.logger.InfoContext(ctx, "tally reconciled",
		"event", "tally_reconciled",
		"log_type", "audit",
		"agenda_id", agendaID.String(),
		"yes", yes,
		"no", no,
	)
	return models.TallySnapshot{AgendaID: agendaID, Yes: yes, No: no, Status: s.sessions.StatusOf(session)}, nil
}

// Warm loads cached tallies from the vote store before traffic is served.
func (s *Service) Warm(ctx context.Context) error {
	n, err := tally.Warm(ctx, s.tally, s.votes)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "tally cache warmed", "agendas", n)
	return nil
}
