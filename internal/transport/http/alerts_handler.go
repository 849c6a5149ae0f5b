package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"tbsu/internal/alerts"
	apperrors "tbsu/internal/errors"
)

// AlertSender posts alert messages
type AlertSender interface {
	Alert(ctx context.Context, text string, target alerts.Target) error
}

// AlertRequest is the body of POST /api/alerts
type AlertRequest struct {
	Text    string `json:"text" validate:"required"`
	Channel string `json:"channel" validate:"required_without=Webhook"`
	Webhook string `json:"webhook" validate:"omitempty,url"`
	Alerter string `json:"alerter"`
	// Table is rendered below the text as an ascii table.
	Table *Table `json:"table,omitempty"`
}

// AlertsHandler exposes the Slack notifier over HTTP
type AlertsHandler struct {
	sender AlertSender
	errors *apperrors.ErrorHandler
	logger *slog.Logger
}

// NewAlertsHandler creates a new alerts handler
func NewAlertsHandler(sender AlertSender, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *AlertsHandler {
	return &AlertsHandler{
		sender: sender,
		errors: errorHandler,
		logger: logger.With(slog.String("handler", "alerts")),
	}
}

// Send handles POST /api/alerts
func (h *AlertsHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req AlertRequest
	if err := decodeRequest(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	text := req.Text
	if req.Table != nil {
		f, err := req.Table.Frame()
		if err != nil {
			h.errors.HandleError(w, r, err)
			return
		}
		text = alerts.MessageWithTable(text, f)
	}

	target := alerts.Target{Channel: req.Channel, Webhook: req.Webhook, AlerterID: req.Alerter}
	if err := h.sender.Alert(r.Context(), text, target); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{"status": "sent"})
}
