package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "votacao/pkg/domain"
	dErrors "votacao/pkg/domain-errors"
)

func TestNewSession(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	s, err := NewSession(id.NewSessionID(), id.NewAgendaID(), 5, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(5*time.Minute), s.EndTime)

	for _, d := range []int{0, -1} {
		_, err := NewSession(id.NewSessionID(), id.NewAgendaID(), d, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	}
}

func TestStatusAt_Boundary(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s, err := NewSession(id.NewSessionID(), id.NewAgendaID(), 1, now)
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, s.StatusAt(now))
	assert.Equal(t, StatusOpen, s.StatusAt(s.EndTime), "end time itself is still open")
	assert.Equal(t, StatusClosed, s.StatusAt(s.EndTime.Add(time.Nanosecond)))
}
