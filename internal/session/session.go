package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nestquest/nestquest-cli/internal/tokenstore"
)

var (
	// ErrNotAuthenticated is returned by Refresh when no refresh token is
	// stored. There is nothing to exchange; the user must log in.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRenewalRejected is returned when the backend explicitly rejects
	// the refresh token (expired or revoked). The session is cleared.
	ErrRenewalRejected = errors.New("session renewal rejected")

	// ErrRenewalFailed is returned when a nominally successful renewal
	// response carries no access token. The session is cleared.
	ErrRenewalFailed = errors.New("session renewal failed")
)

// RenewFunc exchanges a refresh token at the backend's renewal endpoint.
// It returns the new access token and, if the backend rotated it, a new
// refresh token (empty string when not rotated).
type RenewFunc func(ctx context.Context, refreshToken string) (access, refresh string, err error)

// httpStatusError is implemented by transport errors that carry an HTTP
// status code (api.Error does). Used to tell an explicit rejection apart
// from a network failure.
type httpStatusError interface {
	HTTPStatus() int
}

// Manager is the single source of truth for one session's credential pair.
// All mutations go through a single mutex, so a reader never observes one
// token of the pair updated and the other not.
type Manager struct {
	store tokenstore.Store
	renew RenewFunc

	// load performs the one-time initial read from the store. Deferred to
	// first use to avoid I/O during construction.
	load func()

	mu    sync.Mutex
	creds tokenstore.Credentials

	group singleflight.Group
}

// NewManager creates a Manager backed by the given store. No I/O is performed
// until the first operation. The renew function may be nil for a manager that
// only stores tokens and never renews them.
func NewManager(store tokenstore.Store, renew RenewFunc) *Manager {
	m := &Manager{
		store: store,
		renew: renew,
	}
	m.load = sync.OnceFunc(m.loadFromStore)
	return m
}

// loadFromStore seeds the in-memory pair from persistent storage. A missing
// pair is the normal logged-out state; a corrupt or unreadable store is
// logged and treated the same way rather than wedging every accessor.
func (m *Manager) loadFromStore() {
	// Accessors have no context parameter, so the one-time read uses the
	// background context.
	creds, err := m.store.Read(context.Background())
	if err != nil {
		if !errors.Is(err, tokenstore.ErrNotFound) {
			slog.Warn("failed to load stored session credentials", "error", err)
		}
		return
	}

	m.mu.Lock()
	m.creds = creds
	m.mu.Unlock()
}

// SetTokens stores a new access token and, if refresh is non-empty, a new
// refresh token. An empty refresh leaves the prior refresh token in place so
// a renewal without rotation keeps the existing one. The pair is written
// through to persistent storage as a unit.
func (m *Manager) SetTokens(ctx context.Context, access, refresh string) error {
	m.load()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.creds.Access = access
	if refresh != "" {
		m.creds.Refresh = refresh
	}

	if err := m.store.Write(ctx, m.creds); err != nil {
		return fmt.Errorf("persisting session credentials: %w", err)
	}
	return nil
}

// AccessToken returns the currently stored access token. Never blocks on the
// network.
func (m *Manager) AccessToken() (string, bool) {
	m.load()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds.Access, m.creds.Access != ""
}

// RefreshToken returns the currently stored refresh token.
func (m *Manager) RefreshToken() (string, bool) {
	m.load()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds.Refresh, m.creds.Refresh != ""
}

// Clear removes both tokens from memory and from persistent storage.
// Idempotent: clearing an already-empty session is a no-op.
func (m *Manager) Clear(ctx context.Context) error {
	m.load()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clearLocked(ctx)
}

// clearLocked resets the pair and deletes the persisted copy. The in-memory
// pair is always cleared, even if the storage delete fails.
func (m *Manager) clearLocked(ctx context.Context) error {
	m.creds = tokenstore.Credentials{}
	if err := m.store.Delete(ctx); err != nil {
		return fmt.Errorf("deleting stored credentials: %w", err)
	}
	return nil
}

// Refresh exchanges the stored refresh token for a new access token and
// returns it. Renewal is fail-closed: every failure path clears the pair
// before the error is returned. Concurrent callers collapse onto a single
// in-flight renewal and share its result.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	// The renewal request runs under the first caller's context; late
	// callers joining the flight share its outcome.
	v, err, _ := m.group.Do("refresh", func() (any, error) {
		return m.doRefresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) doRefresh(ctx context.Context) (string, error) {
	m.load()

	if m.renew == nil {
		return "", fmt.Errorf("session manager has no renew function")
	}

	m.mu.Lock()
	refresh := m.creds.Refresh
	if refresh == "" {
		err := m.clearLocked(ctx)
		m.mu.Unlock()
		if err != nil {
			slog.Warn("failed to clear session storage", "error", err)
		}
		return "", ErrNotAuthenticated
	}
	m.mu.Unlock()

	// The lock is not held across the network call.
	access, rotated, err := m.renew(ctx, refresh)
	if err != nil {
		m.failClosed(ctx)
		var statusErr httpStatusError
		if errors.As(err, &statusErr) {
			if code := statusErr.HTTPStatus(); code == 401 || code == 403 {
				return "", errors.Join(ErrRenewalRejected, err)
			}
		}
		return "", fmt.Errorf("renewing session: %w", err)
	}
	if access == "" {
		m.failClosed(ctx)
		return "", ErrRenewalFailed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A logout that landed while renewal was in flight wins: do not
	// resurrect a session the user just ended.
	if m.creds.Refresh != refresh {
		return "", ErrNotAuthenticated
	}

	m.creds.Access = access
	if rotated != "" {
		m.creds.Refresh = rotated
	}

	if err := m.store.Write(ctx, m.creds); err != nil {
		// The renewed pair is still valid in memory; losing the
		// persisted copy only costs a login after the next restart.
		slog.Error("failed to persist renewed session credentials", "error", err)
	}

	return access, nil
}

// failClosed clears the pair after a failed renewal so no caller can keep
// using a stale or rejected token.
func (m *Manager) failClosed(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.clearLocked(ctx); err != nil {
		slog.Warn("failed to clear session storage", "error", err)
	}
}
