package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "votacao/pkg/domain"
	dErrors "votacao/pkg/domain-errors"
)

const MaxTitleLength = 255

// Agenda is a topic put to a yes/no vote. It is immutable once created.
//
// Invariants:
//   - Title is non-blank and at most 255 characters
//   - CreatedAt is set at construction and never changes
type Agenda struct {
	ID          id.AgendaID `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewAgenda validates invariants and builds an Agenda.
func NewAgenda(agendaID id.AgendaID, title, description string, now time.Time) (*Agenda, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "title must be at most 255 characters")
	}
	return &Agenda{
		ID:          agendaID,
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
	}, nil
}
