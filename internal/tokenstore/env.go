package tokenstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// EnvStore provides read-only access to a refresh token stored in an
// environment variable. The access token is never persisted; it is minted from
// the refresh token on first renewal. Suitable for CI and other non-interactive
// environments where an external secret manager injects the refresh token.
type EnvStore struct {
	envKey string
}

// Compile-time check to ensure EnvStore implements Store
var _ Store = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore for the given environment variable.
// Returns error if the variable name is empty or not set in the environment.
func NewEnvStore(envKey string) (*EnvStore, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	if _, exists := os.LookupEnv(envKey); !exists {
		return nil, fmt.Errorf("environment variable %s not set", envKey)
	}

	return &EnvStore{
		envKey: envKey,
	}, nil
}

// Read returns a pair holding the refresh token from the environment variable.
// Returns ErrNotFound if the variable is empty.
func (e *EnvStore) Read(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	refresh := os.Getenv(e.envKey)
	if refresh == "" {
		return Credentials{}, ErrNotFound
	}
	return Credentials{Refresh: refresh}, nil
}

// Write is not supported for environment variables (they are read-only).
func (e *EnvStore) Write(ctx context.Context, creds Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fmt.Errorf("environment variable storage is read-only")
}

// Delete is a no-op: the process cannot unset the variable in whatever
// injected it, and logout must still succeed by clearing the in-memory pair.
// The caller keeps seeing the injected refresh token on the next Read.
func (e *EnvStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	slog.Debug("env storage is read-only, delete left the variable in place", "env_key", e.envKey)
	return nil
}
