package notify

import (
	"context"
	"fmt"

	"github.com/wonny/holdwatch/pkg/httputil"
)

// WebhookNotifier posts {"text": markdown} to a chat webhook
type WebhookNotifier struct {
	client *httputil.Client
	url    string
}

// NewWebhookNotifier creates a chat webhook notifier
func NewWebhookNotifier(client *httputil.Client, url string) *WebhookNotifier {
	return &WebhookNotifier{client: client, url: url}
}

// Name implements Named
func (n *WebhookNotifier) Name() string { return "webhook" }

// Notify posts the markdown report
func (n *WebhookNotifier) Notify(ctx context.Context, alert Alert) error {
	resp, err := n.client.PostJSON(ctx, n.url, map[string]string{"text": alert.Markdown})
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: status %d", resp.StatusCode)
	}
	return nil
}
