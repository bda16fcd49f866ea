package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"votacao/internal/voting/broadcast"
	"votacao/internal/voting/models"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/httputil"
	"votacao/pkg/requestcontext"
)

const heartbeatInterval = 15 * time.Second

// Service defines the voting operations exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, agendaID id.AgendaID, rawVoterID string, choice models.Choice) (*models.Vote, error)
	Results(ctx context.Context, agendaID id.AgendaID) (models.TallySnapshot, error)
	Votes(ctx context.Context, agendaID id.AgendaID) ([]*models.Vote, error)
	Reconcile(ctx context.Context, agendaID id.AgendaID) (models.TallySnapshot, error)
}

// Subscriber opens live result streams.
type Subscriber interface {
	Subscribe(ctx context.Context, agendaID id.AgendaID) (*broadcast.Subscription, error)
}

type Handler struct {
	service     Service
	subscriber  Subscriber
	voteLimiter func(http.Handler) http.Handler
	logger      *slog.Logger
}

type Option func(*Handler)

// WithVoteLimiter wraps vote submission only.
func WithVoteLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.voteLimiter = mw
	}
}

func New(service Service, subscriber Subscriber, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, subscriber: subscriber, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	submit := http.Handler(http.HandlerFunc(h.HandleSubmit))
	if h.voteLimiter != nil {
		submit = h.voteLimiter(submit)
	}
	r.Method(http.MethodPost, "/api/agendas/{agendaId}/votes", submit)
	r.Get("/api/agendas/{agendaId}/votes", h.HandleListVotes)
	r.Get("/api/agendas/{agendaId}/results", h.HandleResults)
	r.Post("/api/agendas/{agendaId}/results/reconcile", h.HandleReconcile)
	r.Get("/api/agendas/{agendaId}/results/stream", h.HandleStream)
}

type SubmitRequest struct {
	CPF  string        `json:"cpf"`
	Vote models.Choice `json:"vote"`
}

// HandleSubmit handles POST /api/agendas/{agendaId}/votes.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agendaID, ok := h.agendaID(w, r)
	if !ok {
		return
	}
	var req SubmitRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	vote, err := h.service.Submit(ctx, agendaID, req.CPF, req.Vote)
	if err != nil {
		h.logger.DebugContext(ctx, "vote not admitted",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, vote)
}

// HandleListVotes handles GET /api/agendas/{agendaId}/votes.
func (h *Handler) HandleListVotes(w http.ResponseWriter, r *http.Request) {
	agendaID, ok := h.agendaID(w, r)
	if !ok {
		return
	}
	list, err := h.service.Votes(r.Context(), agendaID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

// HandleResults handles GET /api/agendas/{agendaId}/results.
func (h *Handler) HandleResults(w http.ResponseWriter, r *http.Request) {
	agendaID, ok := h.agendaID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Results(r.Context(), agendaID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

// HandleReconcile handles POST /api/agendas/{agendaId}/results/reconcile.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	agendaID, ok := h.agendaID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Reconcile(r.Context(), agendaID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

// HandleStream handles GET /api/agendas/{agendaId}/results/stream as
// server-sent events. Each snapshot is an "result" event; the stream ends
// after the Closed snapshot.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agendaID, ok := h.agendaID(w, r)
	if !ok {
		return
	}
	sub, err := h.subscriber.Subscribe(ctx, agendaID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer sub.Close()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
		case snap, ok := <-sub.Updates():
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				h.logger.ErrorContext(ctx, "failed to encode snapshot", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: result\ndata: %s\n\n", data); err != nil {
				return
			}
			_ = rc.Flush()
		}
	}
}

func (h *Handler) agendaID(w http.ResponseWriter, r *http.Request) (id.AgendaID, bool) {
	agendaID, err := id.ParseAgendaID(chi.URLParam(r, "agendaId"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.AgendaID{}, false
	}
	return agendaID, true
}
