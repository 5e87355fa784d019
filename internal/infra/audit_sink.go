package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AuditSinkPayload is the structured audit record forwarded to the external
// audit log: {actor, action, before?, after?, reason?, timestamp}.
type AuditSinkPayload struct {
	Actor     string  `json:"actor"`
	Action    string  `json:"action"`
	Subject   string  `json:"subject"`
	Before    *string `json:"before,omitempty"`
	After     *string `json:"after,omitempty"`
	Reason    *string `json:"reason,omitempty"`
	Timestamp string  `json:"timestamp"` // RFC 3339
}

// AuditSinkClient delivers audit events to the business's external audit
// collector over HTTP. The worker pool calls it through a circuit breaker so
// a downed collector cannot back up the queue with slow timeouts.
type AuditSinkClient struct {
	sinkURL    string
	httpClient *http.Client
}

func NewAuditSinkClient(sinkURL string) *AuditSinkClient {
	return &AuditSinkClient{
		sinkURL:    sinkURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether an external sink is configured. Persisting events
// locally still happens when it is not.
func (c *AuditSinkClient) Enabled() bool { return c.sinkURL != "" }

// Send POSTs one audit event to the collector.
func (c *AuditSinkClient) Send(ctx context.Context, payload AuditSinkPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("audit sink: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sinkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("audit sink: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("audit sink: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("audit sink: returned %d", resp.StatusCode)
	}
	return nil
}
