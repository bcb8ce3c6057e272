package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("Failed to get home directory: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde only",
			input:    "~",
			expected: homeDir,
		},
		{
			name:     "tilde with path",
			input:    "~/ibono/records.db",
			expected: filepath.Join(homeDir, "ibono/records.db"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/var/lib/ibonocollect/records.db",
			expected: "/var/lib/ibonocollect/records.db",
		},
		{
			name:     "relative path unchanged",
			input:    "exports/dataset.csv",
			expected: "exports/dataset.csv",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "env var expansion",
			input:    "$HOME/exports",
			expected: filepath.Join(homeDir, "exports"),
		},
		{
			name:     "tilde in the middle is not expanded",
			input:    "/path/~/file.txt",
			expected: "/path/~/file.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ExpandPath(tt.input)
			if err != nil {
				t.Fatalf("ExpandPath() error = %v", err)
			}
			if result != tt.expected {
				t.Errorf("ExpandPath() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestExpandPath_CombinedExpansion(t *testing.T) {
	// Environment variables are expanded before the tilde.
	os.Setenv("TEST_VAR", "~/test")
	defer os.Unsetenv("TEST_VAR")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("Failed to get home directory: %v", err)
	}

	result, err := ExpandPath("$TEST_VAR/dataset.csv")
	if err != nil {
		t.Fatalf("ExpandPath() error = %v", err)
	}

	expected := filepath.Join(homeDir, "test/dataset.csv")
	if result != expected {
		t.Errorf("ExpandPath() = %q, want %q", result, expected)
	}
}
