package http

import (
	"net/http"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "tbsu/internal/errors"
	"tbsu/internal/textutil"
)

// EpochRequest is the body of POST /api/epoch/encode
type EpochRequest struct {
	// Time accepts any common date format; zone-less values are UTC.
	Time string `json:"time" validate:"required"`
}

// EpochResponse pairs a code with the second it encodes
type EpochResponse struct {
	Code string    `json:"code"`
	Time time.Time `json:"time"`
}

// EpochHandler exposes the six character timestamp codec
type EpochHandler struct {
	errors *apperrors.ErrorHandler
}

// NewEpochHandler creates a new epoch handler
func NewEpochHandler(errorHandler *apperrors.ErrorHandler) *EpochHandler {
	return &EpochHandler{errors: errorHandler}
}

// Encode handles POST /api/epoch/encode
func (h *EpochHandler) Encode(w http.ResponseWriter, r *http.Request) {
	var req EpochRequest
	if err := decodeRequest(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	t, err := dateparse.ParseIn(req.Time, time.UTC)
	if err != nil {
		h.errors.HandleError(w, r, apperrors.NewParsingError("unrecognised time "+req.Time, err))
		return
	}

	code, err := textutil.EncodeEpoch64(t)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, EpochResponse{Code: code, Time: t.UTC().Truncate(time.Second)})
}

// Decode handles GET /api/epoch/{code}
func (h *EpochHandler) Decode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	t, err := textutil.DecodeEpoch64(code)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, EpochResponse{Code: code, Time: t})
}
