package errors

import (
	"strings"
	"testing"
)

func TestValidateWidgetID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"numeric", "12", false},
		{"named", "mrr-kpi", false},
		{"drop placeholder", "dropId", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 200), true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWidgetID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWidgetID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateStorageKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"layout key", "dashboard-layout-v2", false},
		{"scoped key", "session:abc:dashboard-theme", false},

		{"empty", "", true},
		{"slash", "a/b", true},
		{"traversal", "..", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
		{"too long", strings.Repeat("k", 300), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStorageKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStorageKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAddr(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{":8080", false},
		{"localhost:6379", false},
		{"", true},
		{"localhost", true},
		{"localhost:", true},
		{"localhost:http", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateAddr(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAddr(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidConfig) {
				t.Errorf("expected INVALID_CONFIG, got %v", GetCode(err))
			}
		})
	}
}
