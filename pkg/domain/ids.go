// Package domain holds identifier types shared across modules.
package domain

import (
	"github.com/google/uuid"

	dErrors "votacao/pkg/domain-errors"
)

// Typed identifiers. Distinct types keep an AgendaID from being passed where
// a SessionID is expected.
type (
	AgendaID  uuid.UUID
	SessionID uuid.UUID
	VoteID    uuid.UUID
)

func NewAgendaID() AgendaID   { return AgendaID(uuid.New()) }
func NewSessionID() SessionID { return SessionID(uuid.New()) }
func NewVoteID() VoteID       { return VoteID(uuid.New()) }

func (id AgendaID) String() string  { return uuid.UUID(id).String() }
func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id VoteID) String() string    { return uuid.UUID(id).String() }

func (id AgendaID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id AgendaID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id SessionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id VoteID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }

// ParseAgendaID parses a non-nil UUID.
func ParseAgendaID(s string) (AgendaID, error) {
	u, err := parseUUID(s, "agenda")
	return AgendaID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session")
	return SessionID(u), err
}

func ParseVoteID(s string) (VoteID, error) {
	u, err := parseUUID(s, "vote")
	return VoteID(u), err
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" ID required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" ID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" ID cannot be nil")
	}
	return u, nil
}
