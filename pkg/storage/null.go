package storage

import "context"

// NullBackend is a no-op backend that never stores anything.
// Useful when persistence should be disabled.
type NullBackend struct{}

// NewNullBackend creates a null backend.
func NewNullBackend() *NullBackend { return &NullBackend{} }

// Get always reports a missing key.
func (NullBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set does nothing.
func (NullBackend) Set(context.Context, string, []byte) error { return nil }

// Delete does nothing.
func (NullBackend) Delete(context.Context, string) error { return nil }

// Close does nothing.
func (NullBackend) Close() error { return nil }

var _ Backend = (*NullBackend)(nil)
