// Package httpapi assembles the service's HTTP surface. Module handlers
// register their own routes; this router owns the middleware chain and the
// operational endpoints.
package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alertcast/internal/platform/metrics"
	"alertcast/internal/platform/middleware"
)

// Registrar is implemented by module handlers that attach their own routes.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router needs from main.
type Deps struct {
	Logger    *slog.Logger
	Validator middleware.TokenValidator
	Metrics   *metrics.Metrics
	Health    func(r *http.Request) error
}

// NewRouter wires the full middleware chain around the module handlers.
// /healthz and /metrics stay outside the auth gate.
func NewRouter(deps Deps, modules ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(req); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(deps.Logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(deps.Logger))
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Use(latency(deps.Metrics))
		r.Use(middleware.RequirePrincipal(deps.Validator, deps.Logger))
		for _, m := range modules {
			m.Register(r)
		}
	})

	return r
}

// latency records request durations per route pattern and status.
func latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if m == nil {
				next.ServeHTTP(w, req)
				return
			}
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, req)
			route := chi.RouteContext(req.Context()).RoutePattern()
			m.RequestDuration.WithLabelValues(route, strconv.Itoa(sw.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
