// Package client is the API gateway for the terminal app. Every request to
// the wallet backend goes through Client.do, which attaches the bearer
// token, tags unsafe requests with an idempotency key, and normalizes
// failures into the small error set the flows render from.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/mini-wallet/mini_wallet/internal/config"
)

// Messages shown when the server could not be reached at all.
const (
	msgTimeout   = "Request timeout. Please try again."
	msgTransport = "Network error. Please check your connection."
)

// ErrSessionExpired is returned for any 401. By the time a caller sees it
// the unauthorized hook has already run and the cached session is gone.
var ErrSessionExpired = errors.New("session expired, please log in again")

// APIError carries a business rejection the server reported explicitly.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// IsBusiness reports whether err is a server-reported rejection, as opposed
// to a transport failure or an expired session.
func IsBusiness(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// Message maps an API call error to the text shown to the user. Business
// errors surface the server's own message; transport failures get a generic
// message; anything else falls back.
func Message(err error, fallback string) string {
	var apiErr *APIError
	var urlErr *url.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.As(err, &urlErr):
		return msgTransport
	default:
		return fallback
	}
}

// TokenSource yields the current bearer token, empty when logged out.
type TokenSource interface {
	Token() string
}

// Client talks to the wallet API.
type Client struct {
	base           string
	http           *http.Client
	tokens         TokenSource
	logger         *slog.Logger
	onUnauthorized func()
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUnauthorizedHook registers the callback invoked on every 401 before
// the error is returned. Used to force a logout.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New builds a Client from the app config.
func New(cfg config.Client, tokens TokenSource, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		http:   &http.Client{Timeout: cfg.Timeout},
		tokens: tokens,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs one API call. out may be nil when the response body is not
// needed.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if method != http.MethodGet && method != http.MethodHead {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", "method", method, "path", path, "error", err)
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("%s %s: %w", method, path, context.DeadlineExceeded)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return ErrSessionExpired
	}

	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: serverMessage(raw, resp.StatusCode)}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// serverMessage extracts the error detail from a {"message": ...} body,
// falling back to the HTTP status text.
func serverMessage(raw []byte, status int) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return http.StatusText(status)
}
