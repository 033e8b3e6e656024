/*
Package backend is the HTTP client for the external platform backend.

PURPOSE:
  The points, payments, and user services are owned by a remote REST
  backend; this repository only calls it. This package wraps those calls:
  bearer-token auth, the {success, message, data} response envelope, and
  translation of wire shapes into the points domain types.

ERROR CONTRACT:
  - Transport failures (connection refused, timeout, unreadable body,
    malformed JSON) wrap points.ErrRequestFailed. The original detail is
    preserved in the chain but callers display the generic message.
  - A well-formed response with success=false becomes *APIError carrying
    the backend's message verbatim - that message is meant for the user.

  No call here is retried. A failed submission surfaces to the caller, who
  may manually resubmit; deduplication of repeated submissions is the
  backend's responsibility.

SEE ALSO:
  - dto.go: wire shapes and domain conversion
  - withdraw/coordinator.go: the only writer through this client
*/
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/relayhq/points-engine/points"
)

const defaultTimeout = 30 * time.Second

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the platform backend. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests use this to
// point at an httptest server transport).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger attaches a logger for request-level debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the backend rooted at baseURL
// (e.g. "http://localhost:5000/api").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// API ERROR - The backend said no
// =============================================================================

// APIError is a well-formed backend response with success=false. Message
// is the backend's own text and is surfaced to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend request failed with status %d", e.StatusCode)
}

// =============================================================================
// TRANSPORT
// =============================================================================

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	return c.do(ctx, http.MethodGet, path, token, nil, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, payload, out any) error {
	url := c.baseURL + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", points.ErrRequestFailed, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", points.ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("backend request", zap.String("method", method), zap.String("url", url))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", points.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", points.ErrRequestFailed, err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("%w: decode response (status %d): %v", points.ErrRequestFailed, resp.StatusCode, err)
	}

	if !env.Success {
		c.logger.Debug("backend rejected request",
			zap.Int("status", resp.StatusCode), zap.String("message", env.Message))
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode response data: %v", points.ErrRequestFailed, err)
		}
	}
	return nil
}
