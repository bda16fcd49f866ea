package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	sessionmodels "votacao/internal/session/models"
	"votacao/internal/voting/broadcast"
	"votacao/internal/voting/handler/mocks"
	"votacao/internal/voting/models"
	id "votacao/pkg/domain"
	dErrors "votacao/pkg/domain-errors"
	"votacao/pkg/platform/clock"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type HandlerSuite struct {
	suite.Suite
	service  *mocks.MockService
	router   chi.Router
	agendaID id.AgendaID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, nil, discard).Register(s.router)
	s.agendaID = id.NewAgendaID()
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func (s *HandlerSuite) votesPath() string {
	return "/api/agendas/" + s.agendaID.String() + "/votes"
}

func (s *HandlerSuite) TestSubmitCreated() {
	vote := &models.Vote{ID: id.NewVoteID(), AgendaID: s.agendaID, VoterID: "52998224725", Choice: models.ChoiceYes}
	s.service.EXPECT().Submit(gomock.Any(), s.agendaID, "52998224725", models.ChoiceYes).Return(vote, nil)

	rec := s.do(http.MethodPost, s.votesPath(), `{"cpf":"52998224725","vote":"Yes"}`)
	s.Equal(http.StatusCreated, rec.Code)

	var got map[string]any
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&got))
	s.Equal("Yes", got["vote"])
	s.Equal("52998224725", got["cpf"])
}

func (s *HandlerSuite) TestSubmitErrorMapping() {
	tests := []struct {
		code dErrors.Code
		want int
	}{
		{dErrors.CodeInvalidVoterID, http.StatusBadRequest},
		{dErrors.CodeNotEligible, http.StatusNotFound},
		{dErrors.CodeSessionNotFound, http.StatusNotFound},
		{dErrors.CodeSessionClosed, http.StatusBadRequest},
		{dErrors.CodeDuplicateVote, http.StatusBadRequest},
		{dErrors.CodeRejected, http.StatusTooManyRequests},
		{dErrors.CodeUnavailable, http.StatusServiceUnavailable},
		{dErrors.CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		s.Run(string(tt.code), func() {
			s.service.EXPECT().Submit(gomock.Any(), s.agendaID, gomock.Any(), gomock.Any()).
				Return(nil, dErrors.New(tt.code, "msg"))
			rec := s.do(http.MethodPost, s.votesPath(), `{"cpf":"52998224725","vote":"No"}`)
			s.Equal(tt.want, rec.Code)
			s.Contains(rec.Body.String(), `"error":"`)
		})
	}
}

func (s *HandlerSuite) TestSubmitBadRequests() {
	for _, body := range []string{`{"cpf":"52998224725","vote":"Maybe"}`, `{`, ``} {
		rec := s.do(http.MethodPost, s.votesPath(), body)
		s.Equal(http.StatusBadRequest, rec.Code, body)
	}
	rec := s.do(http.MethodPost, "/api/agendas/nope/votes", `{"cpf":"52998224725","vote":"Yes"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestResultsAndReconcile() {
	snap := models.TallySnapshot{AgendaID: s.agendaID, Yes: 3, No: 1, Status: sessionmodels.StatusOpen}
	s.service.EXPECT().Results(gomock.Any(), s.agendaID).Return(snap, nil)
	rec := s.do(http.MethodGet, "/api/agendas/"+s.agendaID.String()+"/results", "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"agenda_id":"`+s.agendaID.String()+`","yes":3,"no":1,"status":"Open"}`, rec.Body.String())

	s.service.EXPECT().Reconcile(gomock.Any(), s.agendaID).Return(snap, nil)
	rec = s.do(http.MethodPost, "/api/agendas/"+s.agendaID.String()+"/results/reconcile", "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestListVotes() {
	s.service.EXPECT().Votes(gomock.Any(), s.agendaID).Return([]*models.Vote{}, nil)
	rec := s.do(http.MethodGet, s.votesPath(), "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *HandlerSuite) TestVoteLimiterWrapsOnlySubmission() {
	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	r := chi.NewRouter()
	New(s.service, nil, discard, WithVoteLimiter(blocked)).Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, s.votesPath(), strings.NewReader(`{}`)))
	s.Equal(http.StatusTooManyRequests, rec.Code)

	s.service.EXPECT().Votes(gomock.Any(), s.agendaID).Return(nil, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, s.votesPath(), nil))
	s.Equal(http.StatusOK, rec.Code)
}

// streamSource serves a fixed session for SSE tests.
type streamSource struct {
	clock *clock.Manual
	end   time.Time
	yes   atomic.Int64
}

func (f *streamSource) Results(_ context.Context, agendaID id.AgendaID) (models.TallySnapshot, error) {
	status := sessionmodels.StatusOpen
	if f.clock.Now().After(f.end) {
		status = sessionmodels.StatusClosed
	}
	return models.TallySnapshot{AgendaID: agendaID, Yes: f.yes.Load(), Status: status}, nil
}

func (f *streamSource) SessionEnd(context.Context, id.AgendaID) (time.Time, error) {
	return f.end, nil
}

func TestStreamEndsAfterClosedSnapshot(t *testing.T) {
	c := clock.NewManual(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	src := &streamSource{clock: c, end: c.Now().Add(time.Minute)}
	b, err := broadcast.New(src, broadcast.WithClock(c))
	require.NoError(t, err)

	r := chi.NewRouter()
	New(nil, b, discard).Register(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	agendaID := id.NewAgendaID()
	resp, err := http.Get(srv.URL + "/api/agendas/" + agendaID.String() + "/results/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	first := readEvent(t, reader)
	assert.Contains(t, first, `"status":"Open"`)

	src.yes.Store(1)
	require.NoError(t, b.PublishVote(context.Background(), &models.Vote{AgendaID: agendaID}))
	assert.Contains(t, readEvent(t, reader), `"yes":1`)

	c.Advance(time.Minute + time.Nanosecond)
	assert.Contains(t, readEvent(t, reader), `"status":"Closed"`)

	rest, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(rest)), "stream closes after the closed snapshot")
}

func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var lines []string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" {
			if len(lines) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		lines = append(lines, line)
	}
	require.Equal(t, "event: result", lines[0])
	return strings.Join(lines[1:], "\n")
}
