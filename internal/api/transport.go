package api

import (
	"context"
	"io"
	"net/http"
)

// TokenSource supplies the current access token and the renewal operation.
// session.Manager satisfies it.
type TokenSource interface {
	// AccessToken returns the stored access token without touching the
	// network. The bool reports whether a token is stored.
	AccessToken() (string, bool)

	// Refresh renews the session and returns the new access token.
	Refresh(ctx context.Context) (string, error)
}

// authTransport attaches the session's bearer token to outbound requests and,
// on a 401 response, renews the session and replays the request exactly once.
// A second 401 (or a failed renewal) is surfaced to the caller unchanged, so a
// backend that persistently rejects tokens cannot cause a renewal loop.
type authTransport struct {
	source TokenSource
	base   http.RoundTripper
}

// Compile-time check that authTransport implements http.RoundTripper.
var _ http.RoundTripper = (*authTransport)(nil)

// NewAuthTransport wraps base with bearer authentication driven by source.
// A nil base uses http.DefaultTransport.
func NewAuthTransport(source TokenSource, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{
		source: source,
		base:   base,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	attempt := req.Clone(req.Context())
	if token, ok := t.source.AccessToken(); ok {
		attempt.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(attempt)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// A request whose body is already consumed cannot be replayed.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	token, refreshErr := t.source.Refresh(req.Context())
	if refreshErr != nil {
		// Renewal failed; the session is cleared. The original 401 is
		// the caller's signal that the user must log in again.
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+token)

	return t.base.RoundTrip(retry)
}
