package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"tbsu/internal/concord"
	apperrors "tbsu/internal/errors"
	"tbsu/internal/frame"
)

// GroupResolver assigns group ids to linked keys
type GroupResolver interface {
	Resolve(ctx context.Context, f *frame.Frame, req concord.Request) (*frame.Frame, concord.Stats, error)
}

// ConcordRequest is the body of POST /api/concord
type ConcordRequest struct {
	Table   Table      `json:"table"`
	Keys    [][]string `json:"keys" validate:"dive,min=1,dive,required"`
	Within  []string   `json:"within" validate:"dive,required"`
	Expand  bool       `json:"expand"`
	KeepIDs bool       `json:"keep_ids"`
}

// ConcordStats mirrors concord.Stats on the wire
type ConcordStats struct {
	InputRows   int     `json:"input_rows"`
	UniqueLinks int     `json:"unique_links"`
	Groups      int     `json:"groups"`
	Iterations  int     `json:"iterations"`
	DurationMS  float64 `json:"duration_ms"`
}

// ConcordResponse is the body returned by POST /api/concord
type ConcordResponse struct {
	Table *Table       `json:"table"`
	Stats ConcordStats `json:"stats"`
}

// ConcordHandler exposes group concordance over HTTP
type ConcordHandler struct {
	resolver GroupResolver
	errors   *apperrors.ErrorHandler
	logger   *slog.Logger
}

// NewConcordHandler creates a new concord handler
func NewConcordHandler(resolver GroupResolver, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *ConcordHandler {
	return &ConcordHandler{
		resolver: resolver,
		errors:   errorHandler,
		logger:   logger.With(slog.String("handler", "concord")),
	}
}

// Resolve handles POST /api/concord
func (h *ConcordHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ConcordRequest
	if err := decodeRequest(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	f, err := req.Table.Frame()
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	creq := concord.Request{Within: req.Within, Expand: req.Expand, KeepIDs: req.KeepIDs}
	for _, cols := range req.Keys {
		creq.Keys = append(creq.Keys, concord.Columns(cols))
	}

	out, stats, err := h.resolver.Resolve(r.Context(), f, creq)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Concord request served",
		slog.Int("rows", stats.InputRows),
		slog.Int("groups", stats.Groups))

	render.JSON(w, r, ConcordResponse{
		Table: NewTable(out),
		Stats: ConcordStats{
			InputRows:   stats.InputRows,
			UniqueLinks: stats.UniqueLinks,
			Groups:      stats.Groups,
			Iterations:  stats.Iterations,
			DurationMS:  float64(stats.Duration.Microseconds()) / 1000,
		},
	})
}
