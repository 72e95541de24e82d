package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"commission/internal/platform/metrics"
	"commission/pkg/platform/httputil"
	authmw "commission/pkg/platform/middleware/auth"
	"commission/pkg/platform/middleware/metadata"
	"commission/pkg/platform/middleware/request"
	"commission/pkg/platform/middleware/requesttime"
)

// Registrar mounts a module's routes on the authenticated router.
type Registrar interface {
	Register(r chi.Router)
}

// Config collects what the router needs. Metrics and MetricsHandler are
// optional.
type Config struct {
	Logger         *slog.Logger
	Validator      authmw.JWTValidator
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	// Health reports readiness of backing services for /healthz.
	Health  func(ctx context.Context) error
	Modules []Registrar
}

// NewRouter wires the ops endpoints and every module behind bearer auth.
// The handlers stay thin and delegate to the domain services.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.Recovery(cfg.Logger))
	r.Use(requesttime.Middleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				cfg.Logger.WarnContext(r.Context(), "health check failed", "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.Validator, cfg.Logger))
		for _, m := range cfg.Modules {
			m.Register(r)
		}
	})
	return r
}
