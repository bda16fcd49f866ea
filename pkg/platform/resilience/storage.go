package resilience

import (
	"context"
	"errors"
	"fmt"

	dErrors "votacao/pkg/domain-errors"
	"votacao/pkg/platform/sentinel"
)

// IsStorageFailure classifies repository errors. Domain outcomes such as
// not-found or already-used are answers, not failures.
func IsStorageFailure(err error) bool {
	return err != nil && !sentinel.IsOutcome(err) && !errors.Is(err, context.Canceled)
}

// NewStorage builds the standard pipeline for a repository boundary.
func NewStorage(name string, p Policy, opts ...StandardOption) *Standard {
	return NewStandard(name, p, append([]StandardOption{WithFailures(IsStorageFailure)}, opts...)...)
}

// SurfaceStorage converts an exhausted storage failure into
// sentinel.ErrUnavailable. Outcomes, rejections and cancellation pass
// through unchanged.
func SurfaceStorage(err error) error {
	if err == nil || !IsStorageFailure(err) || errors.Is(err, ErrRejected) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
}

// DomainError maps an unexpected store error to a domain error, keeping the
// back-off signals distinct from internal failures.
func DomainError(err error, msg string) error {
	switch {
	case errors.Is(err, ErrRejected):
		return dErrors.Wrap(err, dErrors.CodeRejected, "too many concurrent requests, retry shortly")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "storage temporarily unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
