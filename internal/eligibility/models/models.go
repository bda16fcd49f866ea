package models

import "fmt"

// Verdict is the authority's answer for a voter. It is never persisted.
type Verdict string

const (
	AbleToVote   Verdict = "ABLE_TO_VOTE"
	UnableToVote Verdict = "UNABLE_TO_VOTE"
)

func (v Verdict) IsValid() bool {
	return v == AbleToVote || v == UnableToVote
}

// Mode selects how eligibility is decided. It is static configuration.
type Mode string

const (
	// ModeLenient admits every well-formed voter id without a network call.
	ModeLenient Mode = "lenient"
	// ModeStrict asks the external authority through the resilience pipeline.
	ModeStrict Mode = "strict"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLenient, ModeStrict:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown eligibility mode %q", s)
	}
}

// StatusResponse is the authority's wire format.
type StatusResponse struct {
	Status Verdict `json:"status"`
}
