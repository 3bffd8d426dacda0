// Package session owns the access/refresh credential pair for one backend
// session and the renewal protocol that keeps it fresh.
//
// The Manager is the single source of truth for the pair. It is an explicitly
// constructed object with an injected store and renew function, so tests can
// isolate it and a process can hold several independent sessions.
//
// # Renewal
//
// Refresh exchanges the stored refresh token for a new access token (and,
// when the backend rotates, a new refresh token). Renewal is fail-closed: any
// failure clears the pair entirely before the error is returned, so callers
// always observe either a fully valid session or a logged-out one. Concurrent
// Refresh calls collapse onto a single in-flight renewal; late callers receive
// the same result.
//
//	sess := session.NewManager(store, renew)
//	access, err := sess.Refresh(ctx)
//	if errors.Is(err, session.ErrNotAuthenticated) {
//		// no refresh token stored, user must log in
//	}
package session
