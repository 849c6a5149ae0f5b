package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/trace"

	apperrors "tbsu/internal/errors"
	"tbsu/internal/middleware"
)

// RouterConfig collects what NewRouter mounts. Nil handlers leave their
// routes unmounted.
type RouterConfig struct {
	Health       *HealthHandler
	Concord      *ConcordHandler
	Alerts       *AlertsHandler
	Epoch        *EpochHandler
	Metrics      http.Handler
	ErrorHandler *apperrors.ErrorHandler
	Tracer       trace.Tracer
	Logger       *slog.Logger
	MaxBodyBytes int64
}

// NewRouter builds the chi router of the service
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.Tracer != nil {
		r.Use(middleware.Tracing(cfg.Tracer))
	}
	r.Use(middleware.StructuredLogger(cfg.Logger))
	r.Use(cfg.ErrorHandler.Middleware)
	r.Use(middleware.SecurityHeaders)
	if cfg.MaxBodyBytes > 0 {
		r.Use(chimiddleware.RequestSize(cfg.MaxBodyBytes))
	}

	r.NotFound(cfg.ErrorHandler.NotFound)
	r.MethodNotAllowed(cfg.ErrorHandler.MethodNotAllowed)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		if cfg.Health != nil {
			r.Get("/health", cfg.Health.HealthCheck)
		}
		if cfg.Concord != nil {
			r.Post("/concord", cfg.Concord.Resolve)
		}
		if cfg.Alerts != nil {
			r.Post("/alerts", cfg.Alerts.Send)
		}
		if cfg.Epoch != nil {
			r.Post("/epoch/encode", cfg.Epoch.Encode)
			r.Get("/epoch/{code}", cfg.Epoch.Decode)
		}
	})

	return r
}
