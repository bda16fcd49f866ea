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

	"votacao/internal/eligibility/client"
	"votacao/internal/eligibility/metrics"
	"votacao/internal/eligibility/models"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/privacy"
	"votacao/pkg/platform/resilience"
)

// Client asks the authority for a verdict.
type Client interface {
	Classify(ctx context.Context, voterID id.VoterID) (models.Verdict, error)
}

// Checker decides eligibility. In strict mode every pipeline failure
// degrades to UnableToVote, so callers only ever see a verdict.
type Checker struct {
	mode     models.Mode
	client   Client
	pipeline *resilience.Pipeline
	hasher   *privacy.Hasher
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

type Option func(*Checker)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Checker) {
		c.metrics = m
	}
}

func WithHasher(h *privacy.Hasher) Option {
	return func(c *Checker) {
		c.hasher = h
	}
}

// New builds a checker. Strict mode requires a client; the pipeline may be
// nil, in which case the client is called directly.
func New(mode models.Mode, c Client, pipeline *resilience.Pipeline, opts ...Option) (*Checker, error) {
	if mode == models.ModeStrict && c == nil {
		return nil, errors.New("eligibility client is required in strict mode")
	}
	if pipeline == nil {
		pipeline = resilience.New()
	}
	checker := &Checker{
		mode:     mode,
		client:   c,
		pipeline: pipeline,
		tracer:   otel.Tracer("votacao/eligibility"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(checker)
	}
	return checker, nil
}

func (c *Checker) Mode() models.Mode {
	return c.mode
}

// Check never fails. voterID must already be well-formed.
func (c *Checker) Check(ctx context.Context, voterID id.VoterID) models.Verdict {
	if c.mode != models.ModeStrict {
		c.metrics.ObserveCheck(string(c.mode), string(models.AbleToVote), 0)
		return models.AbleToVote
	}

	ctx, span := c.tracer.Start(ctx, "eligibility.check",
		trace.WithAttributes(attribute.String("eligibility.mode", string(c.mode))))
	defer span.End()

	start := time.Now()
	verdict, err := resilience.Do(ctx, c.pipeline, func(ctx context.Context) (models.Verdict, error) {
		return c.client.Classify(ctx, voterID)
	})
	if err != nil {
		reason := resilience.Reason(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		c.metrics.IncFallback(reason)
		c.logger.WarnContext(ctx, "eligibility check failed, treating voter as unable to vote",
			"voter", c.hasher.Voter(string(voterID)),
			"reason", reason,
			"category", string(client.Category(err)),
			"error", err,
		)
		verdict = models.UnableToVote
	}
	span.SetAttributes(attribute.String("eligibility.verdict", string(verdict)))
	c.metrics.ObserveCheck(string(c.mode), string(verdict), time.Since(start).Seconds())
	return verdict
}

// IsPipelineFailure classifies authority errors for the breaker. Everything
// but cancellation counts.
func IsPipelineFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// IsRetryable retries transient authority failures and per-attempt timeouts.
func IsRetryable(err error) bool {
	return client.IsRetryable(err) || errors.Is(err, resilience.ErrTimeout)
}

// NewPipeline builds the standard eligibility pipeline for p.
func NewPipeline(p resilience.Policy, opts ...resilience.StandardOption) *resilience.Standard {
	base := []resilience.StandardOption{
		resilience.WithFailures(IsPipelineFailure),
		resilience.WithRetryable(IsRetryable),
	}
	return resilience.NewStandard("eligibility", p, append(base, opts...)...)
}
