package errors

import (
	"strings"
	"testing"
)

func TestValidateNodeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "root", false},
		{"with dash", "main-menu", false},
		{"with dot", "hud.score", false},
		{"path-like", "ui/dialog/ok", false},
		{"digit first", "2nd", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 200), true},
		{"leading dot", ".hidden", true},
		{"space", "two words", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"quote", `say"hi"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidNode) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidNode)
			}
		})
	}
}

func TestValidateSceneName(t *testing.T) {
	if err := ValidateSceneName(""); err != nil {
		t.Errorf("empty title rejected: %v", err)
	}
	if err := ValidateSceneName("Main menu (draft)"); err != nil {
		t.Errorf("plain title rejected: %v", err)
	}
	if err := ValidateSceneName("bad\ttitle"); err == nil {
		t.Error("control character accepted")
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "out.svg", false},
		{"nested", "build/scenes/menu.dot", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "../secret", true},
		{"backslash", "dir\\file", true},
		{"null byte", "a\x00b", true},
		{"too long", strings.Repeat("a", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
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
		{"[::1]:9000", false},
		{"", true},
		{"localhost", true},
		{"localhost:", true},
		{"host:http", true},
	}
	for _, tt := range tests {
		if err := ValidateAddr(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("ValidateAddr(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
