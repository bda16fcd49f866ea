package client

import (
	"errors"
	"fmt"
)

// ErrorCategory normalizes authority failures.
type ErrorCategory string

const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorProviderOutage ErrorCategory = "provider_outage"
	ErrorRateLimited    ErrorCategory = "rate_limited"
	ErrorRejected       ErrorCategory = "rejected"
	ErrorInternal       ErrorCategory = "internal"
)

// ProviderError is a failed exchange with the eligibility authority. A
// negative verdict is never a ProviderError.
type ProviderError struct {
	Category   ErrorCategory
	StatusCode int
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("eligibility authority [%s]: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("eligibility authority [%s]: %s", e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

func newProviderError(category ErrorCategory, status int, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		StatusCode: status,
		Message:    message,
		Underlying: underlying,
		Retryable: category == ErrorTimeout ||
			category == ErrorProviderOutage ||
			category == ErrorRateLimited,
	}
}

// IsRetryable reports whether err is a provider failure worth another attempt.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// Category returns the category of a provider failure, or ErrorInternal.
func Category(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}
