package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore keeps the credential pair in process memory. The session does
// not survive a restart; useful for tests and for callers that deliberately
// want an ephemeral session.
type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials
	set   bool
}

// Compile-time check to ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Read returns the stored pair, or ErrNotFound if nothing is stored.
func (m *MemoryStore) Read(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.set || m.creds.Empty() {
		return Credentials{}, ErrNotFound
	}
	return m.creds, nil
}

// Write replaces the stored pair.
func (m *MemoryStore) Write(ctx context.Context, creds Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.creds = creds
	m.set = true
	return nil
}

// Delete removes the stored pair. Deleting an empty store is a no-op.
func (m *MemoryStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.creds = Credentials{}
	m.set = false
	return nil
}
