package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nestquest/nestquest-cli/internal/tokenstore"
)

// statusError mimics an API error carrying an HTTP status code.
type statusError struct {
	code int
}

func (e *statusError) Error() string   { return fmt.Sprintf("backend returned %d", e.code) }
func (e *statusError) HTTPStatus() int { return e.code }

// seededStore returns a memory store preloaded with the given pair.
func seededStore(t *testing.T, access, refresh string) *tokenstore.MemoryStore {
	t.Helper()
	store := tokenstore.NewMemoryStore()
	err := store.Write(context.Background(), tokenstore.Credentials{Access: access, Refresh: refresh})
	if err != nil {
		t.Fatalf("seeding store: %v", err)
	}
	return store
}

func TestManagerLoadsStoredPair(t *testing.T) {
	store := seededStore(t, "access-1", "refresh-1")
	m := NewManager(store, nil)

	access, ok := m.AccessToken()
	if !ok || access != "access-1" {
		t.Errorf("AccessToken() = %q, %v, want %q, true", access, ok, "access-1")
	}
	refresh, ok := m.RefreshToken()
	if !ok || refresh != "refresh-1" {
		t.Errorf("RefreshToken() = %q, %v, want %q, true", refresh, ok, "refresh-1")
	}
}

func TestManagerEmptyStore(t *testing.T) {
	m := NewManager(tokenstore.NewMemoryStore(), nil)

	if access, ok := m.AccessToken(); ok || access != "" {
		t.Errorf("AccessToken() = %q, %v, want empty, false", access, ok)
	}
	if refresh, ok := m.RefreshToken(); ok || refresh != "" {
		t.Errorf("RefreshToken() = %q, %v, want empty, false", refresh, ok)
	}
}

func TestSetTokensPersistsPair(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	m := NewManager(store, nil)

	if err := m.SetTokens(context.Background(), "access-1", "refresh-1"); err != nil {
		t.Fatalf("SetTokens failed: %v", err)
	}

	// The pair must be written through, not just cached.
	creds, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("reading store after SetTokens: %v", err)
	}
	if creds.Access != "access-1" || creds.Refresh != "refresh-1" {
		t.Errorf("stored pair = %+v, want access-1/refresh-1", creds)
	}
}

func TestSetTokensEmptyRefreshKeepsPrior(t *testing.T) {
	store := seededStore(t, "access-1", "refresh-1")
	m := NewManager(store, nil)

	if err := m.SetTokens(context.Background(), "access-2", ""); err != nil {
		t.Fatalf("SetTokens failed: %v", err)
	}

	access, _ := m.AccessToken()
	refresh, _ := m.RefreshToken()
	if access != "access-2" {
		t.Errorf("access = %q, want access-2", access)
	}
	if refresh != "refresh-1" {
		t.Errorf("refresh = %q, want refresh-1 (unrotated)", refresh)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	store := seededStore(t, "access-1", "refresh-1")
	m := NewManager(store, nil)

	for i := range 2 {
		if err := m.Clear(context.Background()); err != nil {
			t.Fatalf("Clear #%d failed: %v", i+1, err)
		}
	}

	if _, ok := m.AccessToken(); ok {
		t.Error("access token survived Clear")
	}
	if _, err := store.Read(context.Background()); !errors.Is(err, tokenstore.ErrNotFound) {
		t.Errorf("store read after Clear = %v, want ErrNotFound", err)
	}
}

func TestRefreshSuccess(t *testing.T) {
	tests := []struct {
		name        string
		rotated     string
		wantRefresh string
	}{
		{
			name:        "refresh token rotated",
			rotated:     "refresh-2",
			wantRefresh: "refresh-2",
		},
		{
			name:        "refresh token not rotated",
			rotated:     "",
			wantRefresh: "refresh-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore(t, "stale", "refresh-1")
			m := NewManager(store, func(ctx context.Context, refreshToken string) (string, string, error) {
				if refreshToken != "refresh-1" {
					t.Errorf("renew called with %q, want refresh-1", refreshToken)
				}
				return "access-2", tt.rotated, nil
			})

			access, err := m.Refresh(context.Background())
			if err != nil {
				t.Fatalf("Refresh failed: %v", err)
			}
			if access != "access-2" {
				t.Errorf("Refresh returned %q, want access-2", access)
			}

			// The renewed pair must be persisted as a unit.
			creds, err := store.Read(context.Background())
			if err != nil {
				t.Fatalf("reading store after Refresh: %v", err)
			}
			if creds.Access != "access-2" || creds.Refresh != tt.wantRefresh {
				t.Errorf("stored pair = %+v, want access-2/%s", creds, tt.wantRefresh)
			}
		})
	}
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	m := NewManager(tokenstore.NewMemoryStore(), func(ctx context.Context, refreshToken string) (string, string, error) {
		t.Error("renew must not be called without a refresh token")
		return "", "", nil
	})

	_, err := m.Refresh(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Refresh = %v, want ErrNotAuthenticated", err)
	}
}

func TestRefreshFailClosed(t *testing.T) {
	tests := []struct {
		name     string
		renewErr error
		access   string
		wantErr  error
	}{
		{
			name:     "backend rejects with 401",
			renewErr: &statusError{code: 401},
			wantErr:  ErrRenewalRejected,
		},
		{
			name:     "backend rejects with 403",
			renewErr: &statusError{code: 403},
			wantErr:  ErrRenewalRejected,
		},
		{
			name:    "successful response without access token",
			access:  "",
			wantErr: ErrRenewalFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore(t, "access-1", "refresh-1")
			m := NewManager(store, func(ctx context.Context, refreshToken string) (string, string, error) {
				return tt.access, "", tt.renewErr
			})

			_, err := m.Refresh(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Refresh = %v, want %v", err, tt.wantErr)
			}

			// Fail-closed: both tokens gone from memory and storage.
			if _, ok := m.AccessToken(); ok {
				t.Error("access token survived failed renewal")
			}
			if _, ok := m.RefreshToken(); ok {
				t.Error("refresh token survived failed renewal")
			}
			if _, readErr := store.Read(context.Background()); !errors.Is(readErr, tokenstore.ErrNotFound) {
				t.Errorf("store read after failed renewal = %v, want ErrNotFound", readErr)
			}
		})
	}
}

func TestRefreshTransportErrorKeepsTaxonomy(t *testing.T) {
	netErr := errors.New("connection refused")
	store := seededStore(t, "access-1", "refresh-1")
	m := NewManager(store, func(ctx context.Context, refreshToken string) (string, string, error) {
		return "", "", netErr
	})

	_, err := m.Refresh(context.Background())
	if err == nil {
		t.Fatal("Refresh succeeded, want transport error")
	}
	if errors.Is(err, ErrRenewalRejected) {
		t.Error("network failure classified as rejection")
	}
	if !errors.Is(err, netErr) {
		t.Errorf("Refresh = %v, want wrapped %v", err, netErr)
	}
}

func TestRefreshServerErrorIsNotRejection(t *testing.T) {
	store := seededStore(t, "access-1", "refresh-1")
	m := NewManager(store, func(ctx context.Context, refreshToken string) (string, string, error) {
		return "", "", &statusError{code: 500}
	})

	_, err := m.Refresh(context.Background())
	if err == nil {
		t.Fatal("Refresh succeeded, want error")
	}
	if errors.Is(err, ErrRenewalRejected) {
		t.Error("500 response classified as rejection")
	}
}

func TestRefreshSingleFlight(t *testing.T) {
	const callers = 16

	var renewals atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	store := seededStore(t, "access-1", "refresh-1")
	m := NewManager(store, func(ctx context.Context, refreshToken string) (string, string, error) {
		if renewals.Add(1) == 1 {
			close(started)
		}
		<-release
		return "access-2", "", nil
	})

	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = m.Refresh(context.Background())
		}()
	}

	// Wait until the first renewal is in flight, give the remaining callers
	// time to pile up behind it, then release it.
	<-started
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range callers {
		if errs[i] != nil {
			t.Errorf("caller %d: Refresh failed: %v", i, errs[i])
		}
		if results[i] != "access-2" {
			t.Errorf("caller %d: got %q, want access-2", i, results[i])
		}
	}
	if n := renewals.Load(); n != 1 {
		t.Errorf("renew called %d times, want 1", n)
	}
}

func TestLogoutDuringRenewalWins(t *testing.T) {
	store := seededStore(t, "access-1", "refresh-1")

	var m *Manager
	m = NewManager(store, func(ctx context.Context, refreshToken string) (string, string, error) {
		// Logout lands while the renewal request is in flight.
		if err := m.Clear(ctx); err != nil {
			t.Fatalf("Clear during renewal failed: %v", err)
		}
		return "access-2", "refresh-2", nil
	})

	_, err := m.Refresh(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("Refresh = %v, want ErrNotAuthenticated", err)
	}

	// The renewed pair must not resurrect the ended session.
	if _, ok := m.AccessToken(); ok {
		t.Error("access token present after logout-during-renewal")
	}
	if _, readErr := store.Read(context.Background()); !errors.Is(readErr, tokenstore.ErrNotFound) {
		t.Errorf("store read = %v, want ErrNotFound", readErr)
	}
}

func TestRefreshPersistFailureStillReturnsToken(t *testing.T) {
	store := &failingWriteStore{
		inner: seededStore(t, "access-1", "refresh-1"),
	}
	m := NewManager(store, func(ctx context.Context, refreshToken string) (string, string, error) {
		return "access-2", "", nil
	})

	// Arm the failure after the seed write.
	store.failWrites = true

	access, err := m.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if access != "access-2" {
		t.Errorf("Refresh returned %q, want access-2", access)
	}

	// The renewed token is usable in memory even though persistence failed.
	if got, ok := m.AccessToken(); !ok || got != "access-2" {
		t.Errorf("AccessToken() = %q, %v, want access-2, true", got, ok)
	}
}

// failingWriteStore wraps a store and fails writes on demand.
type failingWriteStore struct {
	inner      tokenstore.Store
	failWrites bool
}

func (s *failingWriteStore) Read(ctx context.Context) (tokenstore.Credentials, error) {
	return s.inner.Read(ctx)
}

func (s *failingWriteStore) Write(ctx context.Context, creds tokenstore.Credentials) error {
	if s.failWrites {
		return errors.New("disk full")
	}
	return s.inner.Write(ctx, creds)
}

func (s *failingWriteStore) Delete(ctx context.Context) error {
	return s.inner.Delete(ctx)
}
