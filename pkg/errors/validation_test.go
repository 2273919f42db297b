package errors

import (
	"strings"
	"testing"
)

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "zara", false},
		{"valid qualified", "g:zara_store", false},
		{"valid unicode", "g:café", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLabel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateLabel(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateAssetPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid file", "ground.json", false},
		{"valid nested", "floors/ground.json", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 600), true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "floors/../../secret.json", true},
		{"backslash", "floors\\ground.json", true},
		{"null byte", "ground\x00.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAssetPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAssetPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidConfig) {
				t.Errorf("ValidateAssetPath(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidConfig)
			}
		})
	}
}
