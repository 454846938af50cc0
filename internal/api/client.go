// Package api is the HTTP gateway to the finance backend. Each method issues
// exactly one request and returns either the decoded payload or a typed error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jask/fintrack/internal/logging"
)

const maxBody = 4 << 20

// Client talks to the backend. The session lives in the cookie jar.
type Client struct {
	base *url.URL
	http *http.Client
	log  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying client. A cookie jar is added when missing.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = logging.For(l, logging.ComponentAPI) }
}

// New builds a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  logging.For(nil, logging.ComponentAPI),
	}
	for _, o := range opts {
		o(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

type response struct {
	status int
	body   []byte
}

func (r response) ok() bool { return r.status >= 200 && r.status < 300 }

// errorMessage pulls {"error": "..."} out of a failure body.
func (r response) errorMessage() string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func (r response) decode(op string, v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any) (response, error) {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return response{}, fmt.Errorf("%s: encode request: %w", op, err)
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return response{}, fmt.Errorf("%s: build request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("request failed",
			logging.FieldOperation, op,
			logging.FieldRequestID, reqID,
			logging.FieldMethod, method,
			logging.FieldPath, u.Path,
			logging.FieldError, err)
		return response{}, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return response{}, &NetworkError{Op: op, Err: err}
	}

	attrs := []any{
		logging.FieldOperation, op,
		logging.FieldRequestID, reqID,
		logging.FieldMethod, method,
		logging.FieldPath, u.Path,
		logging.FieldStatusCode, resp.StatusCode,
		logging.FieldDuration, time.Since(start).Milliseconds(),
	}
	switch {
	case resp.StatusCode >= 500:
		c.log.Error("request completed", attrs...)
	case resp.StatusCode >= 400:
		c.log.Warn("request completed", attrs...)
	default:
		c.log.Info("request completed", attrs...)
	}
	return response{status: resp.StatusCode, body: data}, nil
}

// authed runs an authenticated request and maps 401 to ErrSessionExpired
// before anything else looks at the status.
func (c *Client) authed(ctx context.Context, op, method, path string, query url.Values, body any) (response, error) {
	r, err := c.do(ctx, op, method, path, query, body)
	if err != nil {
		return r, err
	}
	if r.status == http.StatusUnauthorized {
		return r, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}
	return r, nil
}

// IsSessionExpired reports whether err carries the session-expired signal.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}
