package lead

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/snappy-gold/appraisal-api/internal/model"
)

// WebhookSink POSTs the lead payload as JSON to a configured endpoint
// (typically a Zapier or Make catch hook). Any 2xx response counts as
// delivered; the hook side owns everything past that.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a webhook sink for the given URL.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Deliver(ctx context.Context, lead model.Lead) error {
	body, err := json.Marshal(lead.Payload)
	if err != nil {
		return eris.Wrap(err, "webhook: marshal lead")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "webhook: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "webhook: post lead")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return eris.New(fmt.Sprintf("webhook: unexpected status %d", resp.StatusCode))
	}
	return nil
}
