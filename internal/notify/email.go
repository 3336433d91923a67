package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"

	"github.com/wonny/holdwatch/pkg/httputil"
)

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// EmailNotifier sends alerts through the Resend API
type EmailNotifier struct {
	client *httputil.Client
	url    string
	apiKey string
	from   string
	to     string
}

// NewEmailNotifier creates a Resend email notifier
func NewEmailNotifier(client *httputil.Client, url, apiKey, from, to string) *EmailNotifier {
	return &EmailNotifier{
		client: client,
		url:    url,
		apiKey: apiKey,
		from:   from,
		to:     to,
	}
}

// Name implements Named
func (n *EmailNotifier) Name() string { return "email" }

// Notify sends the alert HTML, or the escaped markdown when no HTML was rendered
func (n *EmailNotifier) Notify(ctx context.Context, alert Alert) error {
	body := alert.HTML
	if body == "" {
		body = "<pre style=\"white-space: pre-wrap;\">" + html.EscapeString(alert.Markdown) + "</pre>"
	}

	payload, err := json.Marshal(emailRequest{
		From:    n.from,
		To:      []string{n.to},
		Subject: alert.Subject,
		HTML:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend: status %d", resp.StatusCode)
	}
	return nil
}
