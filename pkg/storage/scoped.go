package storage

import "context"

// ScopedBackend prefixes every key, giving each client or dashboard its own
// namespace over a shared backend.
//
//	perUser := storage.Scoped(shared, "session:3f2a9c:")
type ScopedBackend struct {
	inner  Backend
	prefix string
	owns   bool
}

// Scoped wraps inner so every key is prefixed with prefix. Closing the
// scoped backend does not close inner.
func Scoped(inner Backend, prefix string) *ScopedBackend {
	if s, ok := inner.(*ScopedBackend); ok {
		return &ScopedBackend{inner: s.inner, prefix: s.prefix + prefix}
	}
	return &ScopedBackend{inner: inner, prefix: prefix}
}

func (s *ScopedBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *ScopedBackend) Set(ctx context.Context, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.inner.Set(ctx, s.prefix+key, data)
}

func (s *ScopedBackend) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close closes the inner backend only when the scope was created by Open.
func (s *ScopedBackend) Close() error {
	if s.owns {
		return s.inner.Close()
	}
	return nil
}

// Prefix returns the key prefix.
func (s *ScopedBackend) Prefix() string { return s.prefix }

var _ Backend = (*ScopedBackend)(nil)
