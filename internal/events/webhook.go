package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// WebhookPublisher POSTs events to configured integration URLs. Each URL
// is attempted; a failing integration never blocks the others.
type WebhookPublisher struct {
	urls       []string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookPublisher creates a publisher for the configured URLs.
func NewWebhookPublisher(urls []string, logger *zap.Logger) *WebhookPublisher {
	return &WebhookPublisher{
		urls: urls,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func (p *WebhookPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	var firstErr error
	for _, url := range p.urls {
		if err := p.post(ctx, url, body); err != nil {
			p.logger.Warn("webhook delivery failed",
				zap.String("url", url),
				zap.String("event", event.Name),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (p *WebhookPublisher) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
