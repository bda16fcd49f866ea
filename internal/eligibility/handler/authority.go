// Package handler serves a stand-in for the external CPF authority, so that
// strict mode can run without a third-party endpoint.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"votacao/internal/eligibility/models"
	id "votacao/pkg/domain"
	"votacao/pkg/platform/httputil"
)

// Authority answers GET /api/cpf-validation/{cpf}. When strict, CPFs that
// fail the check-digit test are unknown (404).
type Authority struct {
	strict bool
	logger *slog.Logger
}

func NewAuthority(strict bool, logger *slog.Logger) *Authority {
	return &Authority{strict: strict, logger: logger}
}

func (a *Authority) Register(r chi.Router) {
	r.Get("/api/cpf-validation/{cpf}", a.HandleValidate)
}

func (a *Authority) HandleValidate(w http.ResponseWriter, r *http.Request) {
	voterID, err := id.ParseVoterID(chi.URLParam(r, "cpf"))
	if err != nil || (a.strict && !id.ValidCPFChecksum(voterID)) {
		a.logger.DebugContext(r.Context(), "cpf rejected by authority", "strict", a.strict)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.StatusResponse{Status: models.AbleToVote})
}
