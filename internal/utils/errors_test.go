package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorWithSuggestion_Error(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		suggestion     string
		wantContains   []string
		wantNotContain string
	}{
		{
			name:         "with suggestion",
			err:          errors.New("record not found"),
			suggestion:   "Run 'ibonocollect list --ids'",
			wantContains: []string{"record not found", "Suggestion:", "list --ids"},
		},
		{
			name:           "without suggestion",
			err:            errors.New("simple error"),
			suggestion:     "",
			wantContains:   []string{"simple error"},
			wantNotContain: "Suggestion:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &ErrorWithSuggestion{
				Err:        tt.err,
				Suggestion: tt.suggestion,
			}

			result := e.Error()

			for _, want := range tt.wantContains {
				if !strings.Contains(result, want) {
					t.Errorf("Error() = %q, want to contain %q", result, want)
				}
			}

			if tt.wantNotContain != "" && strings.Contains(result, tt.wantNotContain) {
				t.Errorf("Error() = %q, should not contain %q", result, tt.wantNotContain)
			}
		})
	}
}

func TestErrorWithSuggestion_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrapped := &ErrorWithSuggestion{
		Err:        originalErr,
		Suggestion: "do something",
	}

	unwrapped := wrapped.Unwrap()
	if unwrapped != originalErr {
		t.Errorf("Unwrap() returned %v, want %v", unwrapped, originalErr)
	}

	// Test with errors.Is
	if !errors.Is(wrapped, originalErr) {
		t.Error("errors.Is should work with wrapped error")
	}
}

func TestErrSignInRequired(t *testing.T) {
	cause := errors.New("not signed in")
	err := ErrSignInRequired(cause)

	errStr := err.Error()
	if !strings.Contains(errStr, "not signed in") {
		t.Errorf("Error should carry the cause, got: %s", errStr)
	}
	if !strings.Contains(errStr, "ibonocollect login") {
		t.Errorf("Error should suggest the login command, got: %s", errStr)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestErrNoSuchRecord(t *testing.T) {
	err := ErrNoSuchRecord("abc-123", errors.New("record not found"))

	errStr := err.Error()
	if !strings.Contains(errStr, "abc-123") {
		t.Errorf("Error should contain the local id, got: %s", errStr)
	}
	if !strings.Contains(errStr, "list --ids") {
		t.Errorf("Error should suggest listing ids, got: %s", errStr)
	}
}

func TestErrSyncNotEnabled(t *testing.T) {
	err := ErrSyncNotEnabled()

	errStr := err.Error()
	if !strings.Contains(errStr, "not enabled") {
		t.Errorf("Error should mention sync not enabled, got: %s", errStr)
	}
	if !strings.Contains(errStr, "sync.enabled") {
		t.Errorf("Error should mention the config key, got: %s", errStr)
	}
}

func TestErrInvalidDate(t *testing.T) {
	err := ErrInvalidDate("15/01/2026")

	errStr := err.Error()
	if !strings.Contains(errStr, "15/01/2026") {
		t.Errorf("Error should contain the bad input, got: %s", errStr)
	}
	if !strings.Contains(errStr, "YYYY-MM-DD") {
		t.Errorf("Error should name the expected format, got: %s", errStr)
	}
}

func TestWrapWithSuggestion_NilError(t *testing.T) {
	if err := WrapWithSuggestion(nil, "anything"); err != nil {
		t.Errorf("WrapWithSuggestion(nil) = %v, want nil", err)
	}
}
