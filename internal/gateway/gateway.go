// Package gateway runs a local authenticating gateway in front of the
// property-listing backend. A frontend served during development calls the
// gateway instead of the backend directly; the gateway injects the session's
// bearer token and transparently renews it after a 401, so no credentials
// ever live in the browser.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/nestquest/nestquest-cli/internal/api"
)

// Gateway is the local HTTP server fronting the backend.
type Gateway struct {
	mux    *http.ServeMux
	server *http.Server
}

// Compile-time check that Gateway implements http.Handler
var _ http.Handler = (*Gateway)(nil)

// Option configures a Gateway.
type Option func(*config)

type config struct {
	baseTransport http.RoundTripper
}

// WithTransport sets a custom base transport for upstream requests.
// If not provided, http.DefaultTransport is used.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *config) {
		c.baseTransport = transport
	}
}

// New creates a gateway that forwards API and media requests to the backend
// at baseURL, authenticated through source.
func New(source api.TokenSource, baseURL string, opts ...Option) (*Gateway, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	upstream, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("backend URL must be absolute: %s", baseURL)
	}

	transport := api.NewAuthTransport(source, cfg.baseTransport)

	reverseProxyHandler := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Scheme = upstream.Scheme
			pr.Out.URL.Host = upstream.Host
			pr.Out.Host = upstream.Host
		},
		Transport: transport,
	}

	logger := slog.Default()

	mux := http.NewServeMux()

	// Everything under /api/ and /media/ goes upstream with the session's token attached.
	forward := applyMiddlewares(reverseProxyHandler,
		Logging(logger),
		Recovery,
	)
	mux.Handle("/api/", forward)
	mux.Handle("/media/", forward)

	// Local-only endpoint the frontend polls to learn login state.
	mux.Handle("GET /session", applyMiddlewares(sessionStateHandler(source),
		Logging(logger),
		Recovery,
	))

	return &Gateway{mux: mux}, nil
}

// sessionStateHandler reports whether an access token is currently held.
func sessionStateHandler(source api.TokenSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authenticated := source.AccessToken()
		writeJSON(r.Context(), w, SessionStateResponse{Authenticated: authenticated}, http.StatusOK)
	})
}

// ServeHTTP implements http.Handler interface
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mux.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (g *Gateway) Start(ctx context.Context, address string) (<-chan error, error) {
	// Startup phase: Create listener synchronously to catch port-in-use errors immediately
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	g.server = &http.Server{
		Handler:      g,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // image uploads through the gateway can be slow
		IdleTimeout:  90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := g.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
// Returns error if shutdown fails or times out.
func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	if err := g.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = g.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
