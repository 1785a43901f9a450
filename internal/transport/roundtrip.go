package transport

import (
	"net/http"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

type tokenSource interface {
	Token() (string, error)
}

// bearerTransport attaches the current token to each request.
// Requests go out unauthenticated when no token is stored.
type bearerTransport struct {
	base   http.RoundTripper
	tokens tokenSource
	logger *log.Logger
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.tokens.Token()
	if err != nil {
		t.logger.Warn("failed to read session", "err", err)
	}
	if tok == "" {
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}).SetAuthHeader(r)
	return t.base.RoundTrip(r)
}

type unauthorizedTransport struct {
	base http.RoundTripper
	hook func(*http.Request)
}

// WithUnauthorizedHook wraps base so that hook runs once for every response
// with status 401. The response is still returned to the caller.
func WithUnauthorizedHook(base http.RoundTripper, hook func(*http.Request)) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &unauthorizedTransport{base: base, hook: hook}
}

func (t *unauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err == nil && resp.StatusCode == http.StatusUnauthorized && t.hook != nil {
		t.hook(req)
	}
	return resp, err
}
