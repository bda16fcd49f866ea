package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"votacao/internal/ratelimit/metrics"
	"votacao/internal/ratelimit/models"
	"votacao/internal/ratelimit/store"
	"votacao/pkg/platform/httputil"
	"votacao/pkg/platform/privacy"
	"votacao/pkg/requestcontext"
)

// Middleware limits requests per client IP over a sliding window.
type Middleware struct {
	store    store.Store
	limit    int
	window   time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns limiting off, for load tests and demos.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

func New(s store.Store, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{store: s, limit: limit, window: window, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("vote rate limiting disabled")
	}
	return m
}

// Limit wraps next. Store failures let the request through.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)

		result, err := m.store.Allow(ctx, "votes:"+ip, m.limit, m.window)
		if err != nil {
			m.metrics.IncErrors()
			m.logger.ErrorContext(ctx, "failed to check vote rate limit",
				"error", err,
				"ip_prefix", privacy.AnonymizeIP(ip),
			)
			next.ServeHTTP(w, r)
			return
		}

		addHeaders(w, result)
		if !result.Allowed {
			m.metrics.IncRejected()
			m.logger.WarnContext(ctx, "vote rate limit exceeded",
				"event", "rate_limited",
				"ip_prefix", privacy.AnonymizeIP(ip),
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteJSON(w, http.StatusTooManyRequests, models.ExceededResponse{
				Error:       "too_many_requests",
				Description: "Too many votes from this address. Please try again later.",
				RetryAfter:  result.RetryAfter,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func addHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
