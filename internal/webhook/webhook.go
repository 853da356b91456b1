// Package webhook posts JSON payloads to spreadsheet-backed script endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrMissingURL       = errors.New("webhook URL is not configured")
	ErrUnexpectedStatus = errors.New("webhook returned unexpected status")
	ErrRequestFailed    = errors.New("webhook request failed")
)

// DefaultTimeout bounds a single delivery attempt
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 512

// Client delivers payloads with a single attempt and no retries
type Client struct {
	HTTPClient *http.Client
}

// NewClient creates a webhook client; a non-positive timeout uses DefaultTimeout
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// NewRequest builds a JSON POST for url. All validation and encoding happens here so
// callers can report problems before handing delivery off.
func NewRequest(ctx context.Context, url string, payload any) (*http.Request, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrMissingURL
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Do sends req and treats any non-2xx reply as a failure
func (c *Client) Do(req *http.Request) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Post builds and sends a JSON payload in one step
func (c *Client) Post(ctx context.Context, url string, payload any) error {
	req, err := NewRequest(ctx, url, payload)
	if err != nil {
		return err
	}
	return c.Do(req)
}
