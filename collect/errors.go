package collect

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned for any write attempted without an
// authenticated user. No local write is performed in that case.
var ErrNotAuthenticated = errors.New("not authenticated: sign in before saving translations")

// ErrRecordNotFound is returned when an update targets an unknown local id.
var ErrRecordNotFound = errors.New("record not found")

// ValidationError reports invalid caller input. It is surfaced
// immediately and never queued or retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError represents a failure of the local persistence layer
// (quota, corruption, bad schema). Operations that hit a StorageError
// are not queued: the queue lives in the same storage.
type StorageError struct {
	Op  string // e.g. "InsertRecord", "Enqueue"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("local store %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// RemoteError represents an error from a remote store operation.
// It carries the HTTP status code so callers can classify the failure
// without string matching.
type RemoteError struct {
	Op         string // e.g. "Insert", "DeleteByID"
	StatusCode int    // 0 if the request never completed
	Message    string
	Body       string // optional response body for debugging
	Err        error  // optional underlying error
}

func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("remote %s failed with status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote %s failed: %s", e.Op, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsConflict reports a uniqueness violation: the remote already holds
// an equivalent row. Not a failure for sync purposes.
func (e *RemoteError) IsConflict() bool {
	return e.StatusCode == 409
}

// IsNotFound reports that the target row does not exist remotely.
func (e *RemoteError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsTransient reports a failure worth retrying on a later sync pass:
// the request never completed (network error, timeout), the server
// errored, or the server asked us to back off.
func (e *RemoteError) IsTransient() bool {
	if e.StatusCode == 0 {
		return true
	}
	if e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}
	return e.StatusCode == 408 || e.StatusCode == 429
}

// IsPermanentReject reports that the remote refused the payload for a
// reason retrying cannot fix (malformed payload, server-side
// validation, auth). Such items must not be retried forever.
func (e *RemoteError) IsPermanentReject() bool {
	switch e.StatusCode {
	case 400, 401, 403, 413, 415, 422:
		return true
	}
	return false
}

// Classification helpers for wrapped errors.

func IsRemoteConflict(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.IsConflict()
}

func IsRemoteNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.IsNotFound()
}

func IsTransient(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.IsTransient()
}

func IsPermanentReject(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.IsPermanentReject()
}
