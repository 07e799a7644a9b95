/*
Package client submits transactions to the remote entry endpoint.

PURPOSE:
  The one network call in the system: POST a transaction payload to
  {base}/api/txns and hand back the created record or a descriptive error.
  The caller (the form) does not interpret failures beyond surfacing the
  message.

CONFIGURATION:
  Base URL comes from WithBaseURL, falling back to the TXN_API_BASE
  environment variable. A trailing slash is trimmed so path joining stays
  predictable. The HTTP client is injectable for tests; transport-level
  timeouts belong to it, not to this package.

ERROR FORMAT:
  Non-2xx responses become a SubmissionError whose message reads
  "request failed: {status} - {detail}", where detail is the response
  body's message/error field when the body is JSON, else the raw body.

SEE ALSO:
  - form: Drives this client on submit
  - api: The server side of this contract
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/paydesk/txn-entry/allocation"
)

// EnvBaseURL is the environment variable consulted when no base URL option
// is given.
const EnvBaseURL = "TXN_API_BASE"

// TransactionPayload is the submit request body.
type TransactionPayload struct {
	Merchant     string               `json:"merchant"`
	Memo         string               `json:"memo"`
	UsedAt       string               `json:"usedAt,omitempty"`
	Amount       allocation.Amount    `json:"amount"`
	PlatformCode string               `json:"platformCode,omitempty"`
	Payments     []allocation.Payment `json:"payments"`
}

// TransactionRecord is the created entity returned by the server.
type TransactionRecord struct {
	ID           string               `json:"id"`
	CreatedAt    string               `json:"createdAt"`
	Merchant     string               `json:"merchant"`
	Memo         string               `json:"memo,omitempty"`
	UsedAt       string               `json:"usedAt,omitempty"`
	Amount       allocation.Amount    `json:"amount"`
	PlatformCode string               `json:"platformCode,omitempty"`
	Payments     []allocation.Payment `json:"payments"`
}

// SubmissionError is a failed remote call. The message is surfaced verbatim
// to the user.
type SubmissionError struct {
	StatusCode int
	Detail     string
}

func (e *SubmissionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("request failed: %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed: %d - %s", e.StatusCode, e.Detail)
}

// Client talks to the transaction entry API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API base URL explicitly.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client. Without WithBaseURL the TXN_API_BASE environment
// variable is used. One of the two must supply an absolute base URL.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: os.Getenv(EnvBaseURL),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimSuffix(c.baseURL, "/")
	return c
}

// CreateTransaction submits the payload and returns the created record.
func (c *Client) CreateTransaction(ctx context.Context, payload TransactionPayload) (*TransactionRecord, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/txns", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &SubmissionError{
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(resp.Body),
		}
	}

	var record TransactionRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &record, nil
}

// errorDetail extracts a human-readable message from an error response body.
// Prefers the JSON message/error fields; falls back to the raw text.
func errorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 8<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
