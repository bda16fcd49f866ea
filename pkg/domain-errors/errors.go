// Package domainerrors defines the error kinds services return to transport
// layers. Stores return sentinel errors; services translate them into these.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies a class of domain failure. Codes are part of the public API
// and appear verbatim in error responses.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"

	// Voting kinds.
	CodeInvalidVoterID  Code = "invalid_voter_id"
	CodeNotEligible     Code = "not_eligible"
	CodeSessionNotFound Code = "session_not_found"
	CodeSessionClosed   Code = "session_closed"
	CodeDuplicateVote   Code = "duplicate_vote"
	CodeRejected        Code = "rejected"
	CodeUnavailable     Code = "unavailable"
	CodeTooManyRequests Code = "too_many_requests"
)

// Error is a domain error carrying a Code and a client-safe message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a domain error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Is reports whether err is a domain error, returning it if so.
func Is(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	de, ok := Is(err)
	return ok && de.Code == code
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput, CodeInvalidVoterID,
		CodeSessionClosed, CodeDuplicateVote:
		return http.StatusBadRequest
	case CodeNotFound, CodeNotEligible, CodeSessionNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeRejected, CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
