package resilience

import (
	"context"
	"errors"
	"time"

	"votacao/pkg/platform/circuit"
	"votacao/pkg/platform/clock"
)

// Policy holds the tunables of a standard four-guard pipeline.
type Policy struct {
	MaxConcurrent  int
	Window         int
	MinimumCalls   int
	FailureRate    float64
	OpenDuration   time.Duration
	HalfOpenCalls  int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Timeout        time.Duration
}

// DefaultPolicy mirrors the usual resilience4j defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxConcurrent:  25,
		Window:         100,
		MinimumCalls:   100,
		FailureRate:    50,
		OpenDuration:   60 * time.Second,
		HalfOpenCalls:  10,
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Timeout:        time.Second,
	}
}

// Standard is a bulkhead, breaker, retry, time-limit pipeline with its
// breaker exposed for health reporting.
type Standard struct {
	*Pipeline
	Breaker *circuit.Breaker
}

type standardConfig struct {
	isFailure     func(error) bool
	retryable     func(error) bool
	clock         clock.Clock
	onStateChange func(name string, from, to circuit.State)
}

type StandardOption func(*standardConfig)

// WithFailures sets which errors count against the breaker and are retried.
// Cancellation and guard rejections are never retried regardless.
func WithFailures(fn func(error) bool) StandardOption {
	return func(c *standardConfig) { c.isFailure = fn }
}

// WithRetryable further narrows which failures are worth another attempt.
func WithRetryable(fn func(error) bool) StandardOption {
	return func(c *standardConfig) { c.retryable = fn }
}

func WithBreakerClock(c clock.Clock) StandardOption {
	return func(cfg *standardConfig) { cfg.clock = c }
}

func WithBreakerStateChange(fn func(name string, from, to circuit.State)) StandardOption {
	return func(c *standardConfig) { c.onStateChange = fn }
}

// NewStandard assembles the fixed-order pipeline for p.
func NewStandard(name string, p Policy, opts ...StandardOption) *Standard {
	cfg := standardConfig{
		isFailure: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		clock: clock.System{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	breaker := circuit.New(name,
		circuit.WithWindow(p.Window),
		circuit.WithMinimumCalls(p.MinimumCalls),
		circuit.WithFailureRate(p.FailureRate),
		circuit.WithOpenDuration(p.OpenDuration),
		circuit.WithHalfOpenCalls(p.HalfOpenCalls),
		circuit.WithClock(cfg.clock),
		circuit.WithFailureClassifier(cfg.isFailure),
		circuit.WithStateChange(cfg.onStateChange),
	)
	retry := NewRetry(p.MaxAttempts,
		WithBackoff(p.InitialBackoff, p.MaxBackoff),
		WithRetryIf(func(err error) bool {
			if !cfg.isFailure(err) || !DefaultRetryable(err) {
				return false
			}
			return cfg.retryable == nil || cfg.retryable(err)
		}),
		WithAbortWhen(breaker.IsOpen),
	)

	return &Standard{
		Pipeline: New(NewBulkhead(p.MaxConcurrent), breaker, retry, NewTimeLimit(p.Timeout)),
		Breaker:  breaker,
	}
}
