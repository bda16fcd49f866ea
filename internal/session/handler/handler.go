package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"votacao/internal/session/models"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/httputil"
	"votacao/pkg/requestcontext"
)

// Service defines the session operations exposed over HTTP.
type Service interface {
	Open(ctx context.Context, agendaID id.AgendaID, durationMinutes *int) (*models.Session, error)
	StatusOf(session *models.Session) models.Status
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/agendas/{agendaId}/voting-session", h.HandleOpen)
}

type OpenRequest struct {
	DurationMinutes *int `json:"duration_minutes"`
}

type Response struct {
	ID              id.SessionID  `json:"id"`
	AgendaID        id.AgendaID   `json:"agenda_id"`
	DurationMinutes int           `json:"duration_minutes"`
	CreatedAt       time.Time     `json:"created_at"`
	EndTime         time.Time     `json:"end_time"`
	Status          models.Status `json:"status"`
}

// HandleOpen handles POST /api/agendas/{agendaId}/voting-session. The body
// is optional.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agendaID, err := id.ParseAgendaID(chi.URLParam(r, "agendaId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req OpenRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, err := h.service.Open(ctx, agendaID, req.DurationMinutes)
	if err != nil {
		h.logger.WarnContext(ctx, "open session failed",
			"request_id", requestcontext.RequestID(ctx),
			"agenda_id", agendaID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, Response{
		ID:              session.ID,
		AgendaID:        session.AgendaID,
		DurationMinutes: session.DurationMinutes,
		CreatedAt:       session.CreatedAt,
		EndTime:         session.EndTime,
		Status:          h.service.StatusOf(session),
	})
}
