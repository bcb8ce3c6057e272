package utils

import (
	"fmt"
)

// ErrorWithSuggestion wraps an error with a helpful suggestion for the user
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// Common error constructors with suggestions

// ErrSignInRequired wraps an authentication error for commands that
// need a session
func ErrSignInRequired(cause error) error {
	return &ErrorWithSuggestion{
		Err:        cause,
		Suggestion: "Sign in with 'ibonocollect login <user-id>', or set IBONOCOLLECT_USER_ID and IBONOCOLLECT_TOKEN",
	}
}

// ErrNoSuchRecord creates an error when a local id matches nothing
func ErrNoSuchRecord(localID string, cause error) error {
	return &ErrorWithSuggestion{
		Err:        cause,
		Suggestion: fmt.Sprintf("No record has local id '%s'; run 'ibonocollect list --ids' to see local ids", localID),
	}
}

// ErrSyncUnavailable wraps a failure to run a manual sync pass
func ErrSyncUnavailable(cause error) error {
	return &ErrorWithSuggestion{
		Err:        cause,
		Suggestion: "Queued records sync automatically when the connection returns; check connectivity and retry to force it now",
	}
}

// ErrSyncNotEnabled creates an error when background sync is turned off
func ErrSyncNotEnabled() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("background sync is not enabled in configuration"),
		Suggestion: "Set 'sync.enabled' to true in the config file, or run 'ibonocollect sync' manually",
	}
}

// ErrInvalidDate creates an error for invalid date formats
func ErrInvalidDate(dateStr string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid date format: %s", dateStr),
		Suggestion: "Use YYYY-MM-DD format (e.g., 2026-01-15)",
	}
}

// WrapWithSuggestion wraps an existing error with a suggestion
func WrapWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}
