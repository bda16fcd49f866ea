package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"votacao/pkg/platform/circuit"
)

// Metrics holds process-wide Prometheus metrics. Module metrics live with
// their modules.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	BreakerState    *prometheus.GaugeVec
	BreakerChanges  *prometheus.CounterVec
}

// New creates and registers the platform metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "votacao_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		BreakerState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "votacao_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half_open)",
		}, []string{"breaker"}),
		BreakerChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "votacao_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		}, []string{"breaker", "to"}),
	}
}

// ObserveBreaker records a breaker transition. Safe on a nil receiver.
func (m *Metrics) ObserveBreaker(name string, _, to circuit.State) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(to))
	m.BreakerChanges.WithLabelValues(name, to.String()).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request latency labelled by the matched chi route.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.RequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
