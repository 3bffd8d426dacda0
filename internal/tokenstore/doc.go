// Package tokenstore provides persistent storage abstractions for the session
// credential pair (access + refresh token).
//
// The pair is always read and written as a unit: a store never exposes a state
// where one token of the pair is updated and the other is not.
//
// Supported backends with different security and deployment tradeoffs:
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Env: Read-only environment variable access (requires external secret management)
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Memory: Process-local storage for tests and ephemeral sessions
//
// Interactive login requires writable storage (file, keyring or memory), while a
// pre-provisioned refresh token can come from read-only env storage.
package tokenstore
