package errors

import (
	"strings"
	"unicode"
)

// ValidateWidgetID validates a widget or layout item id received from outside
// the process (HTTP paths, persisted snapshots, CLI arguments).
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - Maximum length of 128 characters
func ValidateWidgetID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "widget id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "widget id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "widget id contains invalid control characters")
		}
	}

	return nil
}

// ValidateStorageKey validates a key or key prefix used with a storage backend.
// Keys become file names for the file backend, so path separators and
// traversal sequences are rejected.
func ValidateStorageKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "storage key cannot be empty")
	}

	const maxKeyLength = 256
	if len(key) > maxKeyLength {
		return New(ErrCodeInvalidInput, "storage key too long (max %d characters)", maxKeyLength)
	}

	for _, r := range key {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "storage key contains invalid characters")
		}
	}

	dangerousPatterns := []string{
		"..", // Parent directory
		"/",  // Path separator
		"\\", // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(key, pattern) {
			return New(ErrCodeInvalidInput, "storage key contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateAddr validates a listen or dial address of the form host:port.
func ValidateAddr(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidConfig, "address cannot be empty")
	}

	i := strings.LastIndex(addr, ":")
	if i < 0 || i == len(addr)-1 {
		return New(ErrCodeInvalidConfig, "address %q must include a port", addr)
	}

	for _, r := range addr[i+1:] {
		if r < '0' || r > '9' {
			return New(ErrCodeInvalidConfig, "address %q has a non-numeric port", addr)
		}
	}

	return nil
}
