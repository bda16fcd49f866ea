package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"votacao/internal/agenda/service"
	"votacao/internal/agenda/store"
	"votacao/pkg/testutil"
)

func newAgendaRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc, err := service.New(store.NewInMemory(), service.WithLogger(logger))
	require.NoError(t, err)

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r
}

func TestCreateListAndGetAgenda(t *testing.T) {
	router := newAgendaRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/agendas", CreateRequest{
		Title:       "Budget 2025",
		Description: "yearly budget",
	})
	rec := testutil.DoRequest(router, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	created := testutil.UnmarshalResponse[struct {
		ID    uuid.UUID `json:"id"`
		Title string    `json:"title"`
	}](t, rec)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Budget 2025", created.Title)

	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/api/agendas", nil))
	require.Equal(t, http.StatusOK, listRec.Code)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(listRec.Body).Decode(&list))
	assert.Len(t, list, 1)

	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/api/agendas/"+created.ID.String(), nil))
	assert.Equal(t, http.StatusOK, getRec.Code)
}

func TestCreateAgendaValidation(t *testing.T) {
	router := newAgendaRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing title", `{"description":"x"}`, http.StatusBadRequest},
		{"malformed json", `{"title":`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/agendas", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetAgendaErrors(t *testing.T) {
	router := newAgendaRouter(t)

	rec := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/api/agendas/not-a-uuid", nil))
	testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "invalid_input")

	rec = testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/api/agendas/"+uuid.NewString(), nil))
	testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")
}
