// Package httptransport assembles the public HTTP surface: shared middleware,
// operational endpoints and the module handlers.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"votacao/internal/platform/metrics"
	"votacao/pkg/platform/httputil"
	"votacao/pkg/platform/middleware/metadata"
)

const healthTimeout = 2 * time.Second

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Router struct {
	metrics *metrics.Metrics
	checks  map[string]HealthCheck
	logger  *slog.Logger
}

type Option func(*Router)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithHealthCheck adds a named dependency to /health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(r *Router) {
		r.checks[name] = check
	}
}

// NewRouter wires shared middleware and every registrar onto one chi router.
func NewRouter(logger *slog.Logger, registrars []Registrar, opts ...Option) http.Handler {
	rt := &Router{checks: map[string]HealthCheck{}, logger: logger}
	for _, opt := range opts {
		opt(rt)
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(metadata.ClientMetadata)
	if rt.metrics != nil {
		r.Use(rt.metrics.Instrument)
	}

	r.Get("/health", rt.handleHealth)
	r.Handle("/metrics", metrics.Handler())
	for _, reg := range registrars {
		reg.Register(r)
	}
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok"}
	status := http.StatusOK
	if len(rt.checks) > 0 {
		resp.Checks = make(map[string]string, len(rt.checks))
	}
	for name, check := range rt.checks {
		if err := check(ctx); err != nil {
			rt.logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}
	httputil.WriteJSON(w, status, resp)
}
