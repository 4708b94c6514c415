package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gerrors "github.com/matzehuels/gridboard/pkg/errors"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	file, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	sqlite, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   file,
		"sqlite": sqlite,
		"scoped": Scoped(NewMemoryBackend(), "session:abc:"),
	}
}

func TestBackendContract(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer b.Close()

			if _, ok, err := b.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get(missing) = %v, %v", ok, err)
			}

			if err := b.Set(ctx, "dashboard-layout-v2", []byte(`{"a":1}`)); err != nil {
				t.Fatal(err)
			}
			got, ok, err := b.Get(ctx, "dashboard-layout-v2")
			if err != nil || !ok || string(got) != `{"a":1}` {
				t.Fatalf("Get = %q, %v, %v", got, ok, err)
			}

			if err := b.Set(ctx, "dashboard-layout-v2", []byte(`{"a":2}`)); err != nil {
				t.Fatal(err)
			}
			got, _, _ = b.Get(ctx, "dashboard-layout-v2")
			if string(got) != `{"a":2}` {
				t.Errorf("overwrite: got %q", got)
			}

			if err := b.Delete(ctx, "dashboard-layout-v2"); err != nil {
				t.Fatal(err)
			}
			if _, ok, _ := b.Get(ctx, "dashboard-layout-v2"); ok {
				t.Error("value survived Delete")
			}
			if err := b.Delete(ctx, "dashboard-layout-v2"); err != nil {
				t.Errorf("Delete of a missing key: %v", err)
			}
		})
	}
}

func TestInvalidKeys(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer b.Close()
			for _, key := range []string{"", "../etc/passwd", "a/b"} {
				err := b.Set(ctx, key, []byte("x"))
				if !errors.Is(err, ErrInvalidKey) {
					t.Errorf("Set(%q) err = %v, want ErrInvalidKey", key, err)
				}
			}
		})
	}
}

func TestNullBackend(t *testing.T) {
	ctx := context.Background()
	b := NewNullBackend()
	defer b.Close()

	if err := b.Set(ctx, "key", []byte("value")); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if data, ok, err := b.Get(ctx, "key"); err != nil || ok || data != nil {
		t.Errorf("NullBackend should not store data: %q %v %v", data, ok, err)
	}
	if err := b.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestScopedIsolation(t *testing.T) {
	ctx := context.Background()
	shared := NewMemoryBackend()
	alice := Scoped(shared, "session:alice:")
	bob := Scoped(shared, "session:bob:")

	_ = alice.Set(ctx, "dashboard-theme", []byte("dark"))
	if _, ok, _ := bob.Get(ctx, "dashboard-theme"); ok {
		t.Error("scopes should not share keys")
	}
	if _, ok, _ := shared.Get(ctx, "session:alice:dashboard-theme"); !ok {
		t.Error("scoped key should be stored with its prefix")
	}

	nested := Scoped(alice, "dash1:")
	if nested.Prefix() != "session:alice:dash1:" {
		t.Errorf("nested prefix = %q", nested.Prefix())
	}

	_ = alice.Close()
	if _, _, err := shared.Get(ctx, "x"); err != nil {
		t.Errorf("closing a scope closed the shared backend: %v", err)
	}
}

func TestMemoryBackendClosed(t *testing.T) {
	b := NewMemoryBackend()
	_ = b.Close()
	if err := b.Set(context.Background(), "k", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after Close = %v", err)
	}
}

func TestFileBackendCorruptEntry(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := b.Get(ctx, "k"); ok || err != nil {
		t.Errorf("corrupt entry: ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(b.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"file", Config{Kind: KindFile, Dir: dir}, false},
		{"default kind", Config{Dir: dir}, false},
		{"file without dir", Config{Kind: KindFile}, true},
		{"memory", Config{Kind: KindMemory}, false},
		{"none", Config{Kind: KindNone}, false},
		{"sqlite", Config{Kind: KindSQLite, SQLite: filepath.Join(dir, "db", "kv.db")}, false},
		{"sqlite without path", Config{Kind: KindSQLite}, true},
		{"namespaced", Config{Kind: KindMemory, Namespace: "team:"}, false},
		{"unknown", Config{Kind: "etcd"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Open(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if b != nil {
				_ = b.Close()
			}
		})
	}

	_, err := Open(ctx, Config{Kind: "etcd"})
	if !gerrors.Is(err, gerrors.ErrCodeInvalidConfig) {
		t.Errorf("unknown kind code = %v", gerrors.GetCode(err))
	}
}

func TestOpenNamespacedOwnsBackend(t *testing.T) {
	b, err := Open(context.Background(), Config{Kind: KindMemory, Namespace: "n:"})
	if err != nil {
		t.Fatal(err)
	}
	sb := b.(*ScopedBackend)
	_ = sb.Close()
	if err := sb.inner.Set(context.Background(), "k", nil); !errors.Is(err, ErrClosed) {
		t.Error("closing an opened namespace should close its backend")
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("hello")) != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(Hash([]byte("x"))) != 64 {
		t.Error("Hash length should be 64")
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped sentinel should still match")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrInvalidKey) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { retryBase = d }(retryBase)
	retryBase = time.Millisecond
	ctx := context.Background()

	tests := []struct {
		name      string
		failUntil int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"success first try", 0, nil, 1, false},
		{"non-retryable stops", 99, ErrInvalidKey, 1, true},
		{"retry then succeed", 1, Retryable(ErrUnavailable), 2, false},
		{"gives up after three", 99, Retryable(ErrUnavailable), 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.failUntil {
					return tt.err
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
