package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"votacao/internal/agenda/models"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/httputil"
	"votacao/pkg/requestcontext"
)

// Service defines the agenda operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, title, description string) (*models.Agenda, error)
	Get(ctx context.Context, agendaID id.AgendaID) (*models.Agenda, error)
	List(ctx context.Context) ([]*models.Agenda, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts agenda endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/agendas", h.HandleCreate)
	r.Get("/api/agendas", h.HandleList)
	r.Get("/api/agendas/{agendaId}", h.HandleGet)
}

type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HandleCreate handles POST /api/agendas.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}
	a, err := h.service.Create(ctx, req.Title, req.Description)
	if err != nil {
		h.logger.WarnContext(ctx, "create agenda failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

// HandleList handles GET /api/agendas.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

// HandleGet handles GET /api/agendas/{agendaId}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	agendaID, err := id.ParseAgendaID(chi.URLParam(r, "agendaId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	a, err := h.service.Get(r.Context(), agendaID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}
