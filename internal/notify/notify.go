package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Notifier delivers a user-facing notification. Failures are logged by
// callers, never propagated to the ingestion endpoint or the scheduler.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// WebhookNotifier posts notifications as JSON to a configured webhook.
type WebhookNotifier struct {
	url     string
	enabled bool
	http    *http.Client
}

// NewWebhookNotifier creates a webhook notifier. When disabled or when the
// URL is empty, notifications are written to the log instead.
func NewWebhookNotifier(url string, enabled bool) *WebhookNotifier {
	return &WebhookNotifier{
		url:     url,
		enabled: enabled,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify delivers a single notification.
func (n *WebhookNotifier) Notify(ctx context.Context, title, message string) error {
	if !n.enabled {
		return nil
	}
	if n.url == "" {
		log.Printf("[Notify] %s: %s", title, message)
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"title":   title,
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned %d", resp.StatusCode)
	}

	log.Printf("[Notify] sent: %s", title)
	return nil
}
