// Package transport is the single point of egress for REST calls.
//
// It sets the fixed JSON headers, injects the bearer token from the session
// manager on every request, and ends the session on any 401 response.
package transport

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

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"tasktracker/internal/logging"
	"tasktracker/internal/session"
)

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// DefaultTimeout bounds each call when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// maxBody caps how much of a response body is read.
const maxBody = 4 << 20

// Session is the view of the session manager the transport depends on.
type Session interface {
	Token() (string, error)
	End(reason session.Reason) error
}

// Options configures a Client.
type Options struct {
	// BaseURL is prefixed to every request path.
	BaseURL string

	// Timeout bounds each call.
	Timeout time.Duration

	// Session supplies the token and receives 401 notifications. May be nil.
	Session Session

	// Base is the underlying round tripper. Defaults to http.DefaultTransport.
	Base http.RoundTripper

	Logger *log.Logger
}

// Client performs JSON requests against the REST API.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *log.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	rt := base
	if opts.Session != nil {
		rt = &bearerTransport{base: base, tokens: opts.Session, logger: logger}
		rt = WithUnauthorizedHook(rt, func(req *http.Request) {
			logger.Debug("session ended", "path", req.URL.Path, "request_id", req.Header.Get(HeaderRequestID))
			if err := opts.Session.End(session.ReasonUnauthorized); err != nil {
				logger.Warn("failed to clear session", "err", err)
			}
		})
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: timeout,
		http:    &http.Client{Transport: rt},
		logger:  logger,
	}
}

// Do sends a request with an optional JSON body and decodes a JSON response
// into out when out is non-nil. Non-2xx responses return *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(HeaderRequestID, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s %s: request timed out: %w", method, path, err)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	c.logger.Debug("request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Status: resp.StatusCode,
			Method: method,
			Path:   path,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
