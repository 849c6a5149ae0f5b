package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	version   string
	started   time.Time
	warehouse Pinger
	logger    *slog.Logger
}

// NewHealthHandler creates a new health handler. warehouse may be nil when
// no warehouse is configured.
func NewHealthHandler(version string, warehouse Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		version:   version,
		started:   time.Now(),
		warehouse: warehouse,
		logger:    logger.With(slog.String("handler", "health")),
	}
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Warehouse string `json:"warehouse"`
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Version:   h.version,
		Uptime:    time.Since(h.started).Truncate(time.Second).String(),
		Warehouse: "not configured",
	}

	if h.warehouse != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.warehouse.Ping(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "Warehouse unreachable", slog.String("error", err.Error()))
			resp.Status = "degraded"
			resp.Warehouse = "unreachable"
		} else {
			resp.Warehouse = "ok"
		}
	}

	render.JSON(w, r, resp)
}
