package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/nestquest/nestquest-cli/internal/api"
	"github.com/nestquest/nestquest-cli/internal/gateway"
	"github.com/nestquest/nestquest-cli/internal/session"
)

// App wires the credential store, session manager, backend client and local
// gateway together for one configured environment.
type App struct {
	cfg     *Config
	sess    *session.Manager
	client  *api.Client
	gateway *gateway.Gateway
}

// New creates a new App instance. No I/O is performed; the session loads its
// stored credentials on first use.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := cfg.Auth.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create credential store: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.Backend.Timeout}

	// Renewal bypasses the auth transport: the renewal endpoint must not
	// trigger its own 401-retry handling.
	renewClient, err := api.NewClient(cfg.Backend.BaseURL, api.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create renewal client: %w", err)
	}

	sess := session.NewManager(store, func(ctx context.Context, refreshToken string) (string, string, error) {
		pair, err := renewClient.RenewTokens(ctx, refreshToken)
		if err != nil {
			return "", "", err
		}
		return pair.Access, pair.Refresh, nil
	})

	client, err := api.NewClient(cfg.Backend.BaseURL, api.WithHTTPClient(httpClient), api.WithTokenSource(sess))
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	gw, err := gateway.New(sess, cfg.Backend.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	return &App{
		cfg:     cfg,
		sess:    sess,
		client:  client,
		gateway: gw,
	}, nil
}

// Session returns the session token manager.
func (a *App) Session() *session.Manager {
	return a.sess
}

// Client returns the authenticated backend client.
func (a *App) Client() *api.Client {
	return a.client
}

// StartGateway starts the local gateway and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and coordinated cleanup.
func (a *App) StartGateway(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	address := a.cfg.Gateway.Host + ":" + strconv.FormatUint(uint64(a.cfg.Gateway.Port), 10)
	var shutdownFuncs []func(context.Context) error

	slog.InfoContext(gCtx, "starting gateway", "address", address, "backend", a.cfg.Backend.BaseURL)
	gatewayErrCh, err := a.gateway.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("gateway startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.gateway.Shutdown)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-gatewayErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "gateway runtime error", "error", err)
				return fmt.Errorf("gateway: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	slog.InfoContext(gCtx, "gateway ready", "address", address)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("gateway stopped")
	return nil
}
