package service

import (
	"bytes"
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"votacao/internal/eligibility/client"
	"votacao/internal/eligibility/models"
	"votacao/internal/eligibility/service/mocks"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/resilience"
)

//go:generate mockgen -source=checker.go -destination=mocks/mocks.go -package=mocks Client

const voter = id.VoterID("52998224725")

type CheckerSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	client *mocks.MockClient
	logs   *bytes.Buffer
	ctx    context.Context
}

func TestCheckerSuite(t *testing.T) {
	suite.Run(t, new(CheckerSuite))
}

func (s *CheckerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.client = mocks.NewMockClient(s.ctrl)
	s.logs = &bytes.Buffer{}
	s.ctx = context.Background()
}

func (s *CheckerSuite) policy() resilience.Policy {
	return resilience.Policy{
		MaxConcurrent:  2,
		Window:         4,
		MinimumCalls:   4,
		FailureRate:    50,
		OpenDuration:   time.Minute,
		HalfOpenCalls:  1,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Timeout:        50 * time.Millisecond,
	}
}

func (s *CheckerSuite) checker(mode models.Mode, pipeline *resilience.Pipeline) *Checker {
	c, err := New(mode, s.client, pipeline, WithLogger(slog.New(slog.NewTextHandler(s.logs, nil))))
	s.Require().NoError(err)
	return c
}

func (s *CheckerSuite) TestStrictRequiresClient() {
	_, err := New(models.ModeStrict, nil, nil)
	s.Error(err)
	_, err = New(models.ModeLenient, nil, nil)
	s.NoError(err)
}

func (s *CheckerSuite) TestLenientNeverCallsAuthority() {
	s.client.EXPECT().Classify(gomock.Any(), gomock.Any()).Times(0)
	s.Equal(models.AbleToVote, s.checker(models.ModeLenient, nil).Check(s.ctx, voter))
}

func (s *CheckerSuite) TestStrictReturnsAuthorityVerdict() {
	c := s.checker(models.ModeStrict, NewPipeline(s.policy()).Pipeline)

	s.client.EXPECT().Classify(gomock.Any(), voter).Return(models.AbleToVote, nil)
	s.Equal(models.AbleToVote, c.Check(s.ctx, voter))

	s.client.EXPECT().Classify(gomock.Any(), voter).Return(models.UnableToVote, nil)
	s.Equal(models.UnableToVote, c.Check(s.ctx, voter))
}

func (s *CheckerSuite) TestTransientFailureIsRetried() {
	c := s.checker(models.ModeStrict, NewPipeline(s.policy()).Pipeline)
	outage := &client.ProviderError{Category: client.ErrorProviderOutage, Retryable: true}

	gomock.InOrder(
		s.client.EXPECT().Classify(gomock.Any(), voter).Return(models.Verdict(""), outage),
		s.client.EXPECT().Classify(gomock.Any(), voter).Return(models.AbleToVote, nil),
	)
	s.Equal(models.AbleToVote, c.Check(s.ctx, voter))
}

func (s *CheckerSuite) TestPermanentFailureFallsBackWithoutRetry() {
	c := s.checker(models.ModeStrict, NewPipeline(s.policy()).Pipeline)
	bad := &client.ProviderError{Category: client.ErrorBadData}

	s.client.EXPECT().Classify(gomock.Any(), voter).Return(models.Verdict(""), bad).Times(1)
	s.Equal(models.UnableToVote, c.Check(s.ctx, voter))
	s.Contains(s.logs.String(), "reason=error")
}

func (s *CheckerSuite) TestHangingAuthorityFallsBackWithinDeadline() {
	c := s.checker(models.ModeStrict, NewPipeline(s.policy()).Pipeline)
	s.client.EXPECT().Classify(gomock.Any(), voter).
		DoAndReturn(func(ctx context.Context, _ id.VoterID) (models.Verdict, error) {
			time.Sleep(time.Second)
			return models.AbleToVote, nil
		}).Times(3)

	start := time.Now()
	verdict := c.Check(s.ctx, voter)
	s.Equal(models.UnableToVote, verdict)
	s.Less(time.Since(start), 500*time.Millisecond, "three attempts of 50ms plus backoff")
	s.Contains(s.logs.String(), "reason=timeout")
}

func (s *CheckerSuite) TestOpenBreakerFailsFast() {
	standard := NewPipeline(s.policy())
	c := s.checker(models.ModeStrict, standard.Pipeline)
	outage := &client.ProviderError{Category: client.ErrorProviderOutage, Retryable: true}

	var calls atomic.Int32
	s.client.EXPECT().Classify(gomock.Any(), voter).
		DoAndReturn(func(context.Context, id.VoterID) (models.Verdict, error) {
			calls.Add(1)
			return "", outage
		}).AnyTimes()

	// one breaker outcome per check; four reach the minimum
	for range 4 {
		s.Equal(models.UnableToVote, c.Check(s.ctx, voter))
	}
	s.True(standard.Breaker.IsOpen())
	before := calls.Load()

	s.Equal(models.UnableToVote, c.Check(s.ctx, voter))
	s.Equal(before, calls.Load(), "open breaker short-circuits the authority")
	s.Contains(s.logs.String(), "reason=circuit_open")
}
