// Package googleauth runs the Google OAuth2 sign-in flow for the CLI.
//
// The flow is authorization-code with PKCE against a loopback redirect: the
// user opens the printed URL in a browser, Google redirects to a short-lived
// local listener, and the resulting Google access token is handed to the
// backend's OAuth login endpoint, which verifies it and issues the session
// token pair. The Google token itself is never stored.
package googleauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Endpoint defines Google's OAuth2 endpoints.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// scopes requested from Google; the backend only needs the profile email.
var scopes = []string{"openid", "email", "profile"}

// Config holds the OAuth client settings for the sign-in flow.
type Config struct {
	ClientID     string
	ClientSecret string

	// ListenAddr is the loopback address for the redirect listener.
	// Port 0 picks a free port; Google requires the client to be
	// registered with a loopback redirect for this to work.
	ListenAddr string

	// Notify receives the authorization URL the user must open.
	// Required: the flow cannot proceed without user interaction.
	Notify func(authURL string)
}

// callbackResult carries the redirect outcome from the HTTP handler.
type callbackResult struct {
	code string
	err  error
}

// SignIn runs the browser flow and returns a Google access token.
// Blocks until the redirect arrives or ctx is cancelled.
func SignIn(ctx context.Context, cfg Config) (string, error) {
	if cfg.ClientID == "" {
		return "", errors.New("google client id is required")
	}
	if cfg.Notify == nil {
		return "", errors.New("notify callback is required")
	}

	addr := cfg.ListenAddr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	defer func() { _ = listener.Close() }()

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       scopes,
		Endpoint:     Endpoint,
		RedirectURL:  fmt.Sprintf("http://%s/callback", listener.Addr().String()),
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	server := &http.Server{
		Handler:     callbackHandler(state, results),
		ReadTimeout: 10 * time.Second,
	}
	go func() { _ = server.Serve(listener) }()
	defer func() { _ = server.Close() }()

	cfg.Notify(oauthCfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)))

	var code string
	select {
	case res := <-results:
		if res.err != nil {
			return "", res.err
		}
		code = res.code
	case <-ctx.Done():
		return "", ctx.Err()
	}

	token, err := oauthCfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token.AccessToken, nil
}

// callbackHandler serves the loopback redirect exactly once.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if errCode := q.Get("error"); errCode != "" {
			http.Error(w, "Sign-in failed. You can close this tab.", http.StatusBadRequest)
			sendResult(results, callbackResult{err: fmt.Errorf("google sign-in denied: %s", errCode)})
			return
		}
		if q.Get("state") != state {
			http.Error(w, "Sign-in failed. You can close this tab.", http.StatusBadRequest)
			sendResult(results, callbackResult{err: errors.New("oauth state mismatch")})
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "Sign-in failed. You can close this tab.", http.StatusBadRequest)
			sendResult(results, callbackResult{err: errors.New("redirect carried no authorization code")})
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, "<html><body>Signed in. You can close this tab.</body></html>")
		sendResult(results, callbackResult{code: code})
	})
	return mux
}

// sendResult delivers the first result; later redirects are dropped.
func sendResult(results chan<- callbackResult, res callbackResult) {
	select {
	case results <- res:
	default:
	}
}
