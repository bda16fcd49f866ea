package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: entity does not exist in store
//   - ErrAlreadyUsed: a write-once key (session per agenda) is already taken
//   - ErrUnavailable: the backing store is unreachable after retries
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)

// IsOutcome reports whether err is a domain outcome rather than an
// infrastructure failure. Outcomes are never retried and never trip breakers.
func IsOutcome(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyUsed)
}
