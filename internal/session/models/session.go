package models

import (
	"time"

	id "votacao/pkg/domain"
	dErrors "votacao/pkg/domain-errors"
)

// DefaultDurationMinutes applies when an open request names no duration.
const DefaultDurationMinutes = 1

// Status is derived from the clock and never stored.
type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
)

// Session is the voting window of an agenda. An agenda has at most one
// session, and a session is never replaced or reopened.
type Session struct {
	ID              id.SessionID `json:"id"`
	AgendaID        id.AgendaID  `json:"agenda_id"`
	DurationMinutes int          `json:"duration_minutes"`
	CreatedAt       time.Time    `json:"created_at"`
	EndTime         time.Time    `json:"end_time"`
}

// NewSession computes EndTime from now. durationMinutes must be positive.
func NewSession(sessionID id.SessionID, agendaID id.AgendaID, durationMinutes int, now time.Time) (*Session, error) {
	if durationMinutes <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "duration_minutes must be a positive integer")
	}
	return &Session{
		ID:              sessionID,
		AgendaID:        agendaID,
		DurationMinutes: durationMinutes,
		CreatedAt:       now,
		EndTime:         now.Add(time.Duration(durationMinutes) * time.Minute),
	}, nil
}

// StatusAt is Open up to and including EndTime, Closed strictly after.
func (s *Session) StatusAt(now time.Time) Status {
	if now.After(s.EndTime) {
		return StatusClosed
	}
	return StatusOpen
}
