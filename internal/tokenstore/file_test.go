package tokenstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	want := Credentials{Access: "access-1", Refresh: "refresh-1"}
	if err := store.Write(context.Background(), want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != want {
		t.Errorf("Read() = %+v, want %+v", got, want)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if _, err := store.Read(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read on missing file = %v, want ErrNotFound", err)
	}
}

func TestFileStoreCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "credentials.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := store.Write(context.Background(), Credentials{Access: "a", Refresh: "r"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

func TestFileStoreWritePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := store.Write(context.Background(), Credentials{Access: "a", Refresh: "r"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %04o, want 0600", perm)
	}
}

func TestFileStoreRejectsInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := store.Write(context.Background(), Credentials{Access: "a", Refresh: "r"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := os.Chmod(path, 0644); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}

	if _, err := store.Read(context.Background()); err == nil {
		t.Error("Read succeeded on world-readable credentials file")
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := store.Read(context.Background()); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Read on corrupt file = %v, want decode error", err)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	first := Credentials{Access: "access-1", Refresh: "refresh-1"}
	second := Credentials{Access: "access-2", Refresh: "refresh-2"}
	for _, creds := range []Credentials{first, second} {
		if err := store.Write(context.Background(), creds); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	got, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != second {
		t.Errorf("Read() = %+v, want %+v", got, second)
	}
}

func TestFileStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := store.Write(context.Background(), Credentials{Access: "a", Refresh: "r"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Delete is idempotent: the second call hits a missing file.
	for i := range 2 {
		if err := store.Delete(context.Background()); err != nil {
			t.Fatalf("Delete #%d failed: %v", i+1, err)
		}
	}

	if _, err := store.Read(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read after Delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.Read(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read on empty store = %v, want ErrNotFound", err)
	}

	want := Credentials{Access: "access-1", Refresh: "refresh-1"}
	if err := store.Write(context.Background(), want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != want {
		t.Errorf("Read() = %+v, want %+v", got, want)
	}

	if err := store.Delete(context.Background()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Read(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read after Delete = %v, want ErrNotFound", err)
	}
}

func TestEnvStore(t *testing.T) {
	const key = "NESTQUEST_TEST_REFRESH_TOKEN"
	t.Setenv(key, "refresh-from-env")

	store, err := NewEnvStore(key)
	if err != nil {
		t.Fatalf("NewEnvStore failed: %v", err)
	}

	creds, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if creds.Refresh != "refresh-from-env" {
		t.Errorf("refresh = %q, want refresh-from-env", creds.Refresh)
	}
	if creds.Access != "" {
		t.Errorf("access = %q, want empty (never persisted)", creds.Access)
	}

	if err := store.Write(context.Background(), creds); err == nil {
		t.Error("Write succeeded on read-only storage")
	}

	// Delete cannot unset an injected variable, but logout still has to
	// succeed: it is a no-op, and the token stays readable.
	if err := store.Delete(context.Background()); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	creds, err = store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read after Delete failed: %v", err)
	}
	if creds.Refresh != "refresh-from-env" {
		t.Errorf("refresh after Delete = %q, want refresh-from-env", creds.Refresh)
	}
}

func TestEnvStoreUnsetVariable(t *testing.T) {
	if _, err := NewEnvStore("NESTQUEST_TEST_MISSING_VARIABLE"); err == nil {
		t.Error("NewEnvStore succeeded for unset variable")
	}
}

func TestCredentialsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  bool
	}{
		{name: "both tokens present", creds: Credentials{Access: "a", Refresh: "r"}, want: false},
		{name: "refresh only", creds: Credentials{Refresh: "r"}, want: false},
		{name: "access only cannot be renewed", creds: Credentials{Access: "a"}, want: true},
		{name: "zero value", creds: Credentials{}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.creds.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}
