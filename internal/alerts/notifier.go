package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"tbsu/internal/config"
	apperrors "tbsu/internal/errors"
	"tbsu/internal/infrastructure"
)

// Target says where an alert goes and who it is posted as. Webhook wins
// over Channel; Alerter wins over AlerterID.
type Target struct {
	Channel   string
	Webhook   string
	Alerter   *Alerter
	AlerterID string
}

// Notifier posts alerts to Slack incoming webhooks
type Notifier struct {
	registry *Registry
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	metrics  *infrastructure.BusinessMetrics
}

// NotifierOption configures a Notifier
type NotifierOption func(*Notifier)

// WithHTTPClient replaces the HTTP client used for webhooks
func WithHTTPClient(client *http.Client) NotifierOption {
	return func(n *Notifier) { n.client = client }
}

// WithAlertMetrics records every delivery attempt
func WithAlertMetrics(metrics *infrastructure.BusinessMetrics) NotifierOption {
	return func(n *Notifier) { n.metrics = metrics }
}

// NewNotifier creates a notifier resolving ids through registry
func NewNotifier(cfg config.SlackConfig, registry *Registry, logger *slog.Logger, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		registry: registry,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		logger:   infrastructure.WithComponent(logger, "notifier"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Alert posts text to the target
func (n *Notifier) Alert(ctx context.Context, text string, target Target) error {
	msg, webhook, err := n.message(text, target)
	if err != nil {
		return err
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("alert rate limit: %w", err)
	}

	err = slack.PostWebhookCustomHTTPContext(ctx, webhook, n.client, msg)
	n.metrics.RecordAlert(ctx, err)
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to send alert",
			slog.String("channel", target.Channel),
			slog.String("error", err.Error()))
		return apperrors.NewNetworkError("failed to post slack webhook", err).
			WithContext("channel", target.Channel)
	}

	n.logger.InfoContext(ctx, "Alert sent",
		slog.String("channel", target.Channel),
		slog.String("username", msg.Username))
	return nil
}

func (n *Notifier) message(text string, target Target) (*slack.WebhookMessage, string, error) {
	webhook := target.Webhook
	if webhook == "" {
		if target.Channel == "" {
			return nil, "", apperrors.NewValidationError("one of channel or webhook must be set", nil)
		}
		url, err := n.registry.Webhook(target.Channel)
		if err != nil {
			return nil, "", err
		}
		webhook = url
	}

	msg := &slack.WebhookMessage{Text: text}

	alerter := target.Alerter
	if alerter == nil && target.AlerterID != "" {
		a, err := n.registry.Alerter(target.AlerterID)
		if err != nil {
			return nil, "", err
		}
		alerter = &a
	}
	if alerter != nil {
		msg.Username = alerter.Username
		msg.IconEmoji = alerter.Emoji
	}
	return msg, webhook, nil
}

// Monitor runs fn and alerts the target when it fails or panics. The
// original error is returned and a panic is re-raised after alerting.
// An inactive text suppresses the alert.
func (n *Notifier) Monitor(ctx context.Context, text AlertText, target Target, fn func(context.Context) error) error {
	defer func() {
		if rec := recover(); rec != nil {
			n.onFailure(ctx, text, target, fmt.Errorf("panic: %v", rec))
			panic(rec)
		}
	}()

	if err := fn(ctx); err != nil {
		n.onFailure(ctx, text, target, err)
		return err
	}
	return nil
}

func (n *Notifier) onFailure(ctx context.Context, text AlertText, target Target, cause error) {
	n.logger.WarnContext(ctx, "Monitored job failed",
		slog.String("error", cause.Error()),
		slog.Bool("alert_active", text.Active))

	if !text.Active {
		return
	}
	if err := n.Alert(ctx, text.Text, target); err != nil {
		n.logger.ErrorContext(ctx, "Could not deliver failure alert", slog.String("error", err.Error()))
	}
}
