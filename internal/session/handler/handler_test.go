package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agendamodels "votacao/internal/agenda/models"
	agendastore "votacao/internal/agenda/store"
	"votacao/internal/session/service"
	"votacao/internal/session/store"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/clock"
	"votacao/pkg/testutil"
)

func newSessionRouter(t *testing.T) (http.Handler, id.AgendaID) {
	t.Helper()
	ctx := context.Background()
	c := clock.NewManual(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	agendas := agendastore.NewInMemory()
	a, err := agendamodels.NewAgenda(id.NewAgendaID(), "Budget 2025", "", c.Now())
	require.NoError(t, err)
	require.NoError(t, agendas.Create(ctx, a))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc, err := service.New(store.NewInMemory(), agendas, service.WithClock(c), service.WithLogger(logger))
	require.NoError(t, err)

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r, a.ID
}

func open(router http.Handler, agendaID string, body string) *httptest.ResponseRecorder {
	path := "/api/agendas/" + agendaID + "/voting-session"
	return testutil.DoRequest(router, testutil.NewRequestWithBody(http.MethodPost, path, body))
}

func TestOpenSessionWithoutBody(t *testing.T) {
	router, agendaID := newSessionRouter(t)

	rec := open(router, agendaID.String(), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	got := testutil.UnmarshalResponse[Response](t, rec)
	assert.Equal(t, 1, got.DurationMinutes)
	assert.Equal(t, "Open", string(got.Status))
	assert.Equal(t, got.CreatedAt.Add(time.Minute), got.EndTime)
}

func TestOpenSessionResponses(t *testing.T) {
	tests := []struct {
		name     string
		agendaID func(id.AgendaID) string
		body     string
		want     int
	}{
		{"explicit duration", func(a id.AgendaID) string { return a.String() }, `{"duration_minutes":10}`, http.StatusCreated},
		{"zero duration", func(a id.AgendaID) string { return a.String() }, `{"duration_minutes":0}`, http.StatusBadRequest},
		{"non numeric duration", func(a id.AgendaID) string { return a.String() }, `{"duration_minutes":"ten"}`, http.StatusBadRequest},
		{"unknown agenda", func(id.AgendaID) string { return uuid.NewString() }, ``, http.StatusNotFound},
		{"malformed agenda id", func(id.AgendaID) string { return "abc" }, ``, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, agendaID := newSessionRouter(t)
			rec := open(router, tt.agendaID(agendaID), tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestOpenSessionTwiceConflicts(t *testing.T) {
	testutil.Given(t, "an agenda with an open session", func(t *testing.T) {
		router, agendaID := newSessionRouter(t)
		require.Equal(t, http.StatusCreated, open(router, agendaID.String(), "").Code)

		testutil.When(t, "a second session is requested", func(t *testing.T) {
			rec := open(router, agendaID.String(), `{"duration_minutes":5}`)

			testutil.Then(t, "it conflicts", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rec, http.StatusConflict, "conflict")
			})
		})
	})
}
