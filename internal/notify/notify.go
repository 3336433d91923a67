package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/holdwatch/internal/contracts"
	"github.com/wonny/holdwatch/pkg/config"
	"github.com/wonny/holdwatch/pkg/httputil"
	"github.com/wonny/holdwatch/pkg/logger"
)

// Alert is one run's outcome as delivered to subscribers
type Alert struct {
	RunID    string                        `json:"run_id,omitempty"`
	Date     string                        `json:"date"`
	PrevDate string                        `json:"prev_date,omitempty"`
	Subject  string                        `json:"subject"`
	Markdown string                        `json:"markdown"`
	HTML     string                        `json:"-"`
	Results  []contracts.AttributionResult `json:"results"`
	Memos    []contracts.Memo              `json:"memos,omitempty"`
}

// Notifier delivers an alert to one channel
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Named gives a notifier a label for logs
type Named interface {
	Name() string
}

// Multi fans an alert out to every notifier and joins their errors
type Multi []Notifier

// Notify calls every notifier even when an earlier one fails
func (m Multi) Notify(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alert); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", nameOf(n), err))
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds the configured channels; unconfigured ones are left out.
// hub may be nil.
func FromConfig(cfg config.NotifyConfig, client *httputil.Client, hub *Hub, log *logger.Logger) Multi {
	var m Multi

	if cfg.ResendAPIKey != "" && cfg.FromEmail != "" && cfg.ToEmail != "" {
		m = append(m, NewEmailNotifier(client, cfg.ResendURL, cfg.ResendAPIKey, cfg.FromEmail, cfg.ToEmail))
	} else {
		log.Debug("Email notifier not configured")
	}

	if cfg.WebhookURL != "" {
		m = append(m, NewWebhookNotifier(client, cfg.WebhookURL))
	} else {
		log.Debug("Webhook notifier not configured")
	}

	if hub != nil {
		m = append(m, hub)
	}

	return m
}

func nameOf(n Notifier) string {
	if named, ok := n.(Named); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", n)
}
