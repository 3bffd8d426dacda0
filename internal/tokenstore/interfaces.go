package tokenstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when the backend holds no credential pair.
var ErrNotFound = errors.New("no stored credentials")

// Credentials is the persisted access/refresh token pair. Both tokens are
// opaque strings; the backend encodes everything it needs inside them.
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Empty reports whether the pair holds no refresh token. An access token
// without a refresh token cannot be renewed and counts as logged out.
func (c Credentials) Empty() bool {
	return c.Refresh == ""
}

// Store reads and writes the credential pair to persistent storage.
//
// Interactive login requires writable storage.
type Store interface {
	// Read returns the stored credential pair. Returns ErrNotFound if no
	// pair is stored.
	Read(ctx context.Context) (Credentials, error)

	// Write persists the pair to storage, replacing any previous pair.
	// Returns an error if the storage backend is read-only (e.g.
	// environment variables) or if the write operation fails.
	Write(ctx context.Context, creds Credentials) error

	// Delete removes the stored pair. Deleting an already-empty store is
	// a no-op, not an error.
	Delete(ctx context.Context) error
}
