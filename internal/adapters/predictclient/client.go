// Package predictclient calls the prediction service's /predict endpoint.
package predictclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/okian/compass/pkg/errkind"
)

// RequestIDHeader carries the per-call correlation id.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 512

// Request is the /predict body.
type Request struct {
	Features [][]float64 `json:"features"`
}

// Response is the successful /predict body.
type Response struct {
	Predictions []int     `json:"predictions"`
	Confidences []float64 `json:"confidences"`
}

// Result pairs a response with the request id that produced it.
type Result struct {
	Response
	RequestID string
}

// Client wraps http.Client with the predict endpoint URL.
type Client struct {
	client *http.Client
	url    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// New creates a client for url. A zero timeout means no client-side timeout.
func New(url string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string { return c.url }

// Predict posts features and decodes the predictions.
func (c *Client) Predict(ctx context.Context, features [][]float64) (Result, error) {
	const op = "predictclient.predict"
	body, err := json.Marshal(Request{Features: features})
	if err != nil {
		return Result{}, errkind.Wrap(op, ErrRequest, fmt.Errorf("failed to marshal request body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, errkind.Wrap(op, ErrRequest, fmt.Errorf("failed to create request: %w", err))
	}
	id := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, id)

	resp, err := c.client.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return Result{}, errkind.Wrap(op, ErrConnection, fmt.Errorf("could not connect to API at %s: %w", c.url, err))
		}
		return Result{}, errkind.Wrap(op, ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, errkind.Wrap(op, ErrRequest, fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return Result{}, errkind.Wrap(op, ErrRequest,
			fmt.Errorf("%d %s for url %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), c.url, bytes.TrimSpace(raw)))
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, errkind.Wrap(op, ErrRequest, fmt.Errorf("failed to decode response: %w", err))
	}
	return Result{Response: out, RequestID: id}, nil
}

// isConnectionError reports failures to establish a connection: refused or
// unreachable hosts, DNS failures, and dial timeouts.
func isConnectionError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
