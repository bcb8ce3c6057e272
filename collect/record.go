package collect

import (
	"strings"
	"time"
)

// SyncStatus tracks where a record stands relative to the remote store.
type SyncStatus string

const (
	StatusPending SyncStatus = "pending"
	StatusSyncing SyncStatus = "syncing"
	StatusSynced  SyncStatus = "synced"
	StatusError   SyncStatus = "error"
)

// Record is a single bilingual translation entry.
//
// A record created on-device always has a LocalID and starts as
// StatusPending; it gains an ID only after a successful server
// round-trip. A record fetched from the remote store always has an ID
// and is StatusSynced. LocalID and ID are deliberately separate keys:
// LocalID is the stable device-local key, ID is the server alias
// attached once available.
type Record struct {
	ID         string     `json:"id,omitempty"`
	LocalID    string     `json:"local_id,omitempty"`
	SourceText string     `json:"source_text"`
	TargetText string     `json:"target_text"`
	Context    string     `json:"context,omitempty"`
	OwnerID    string     `json:"owner_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	SyncStatus SyncStatus `json:"sync_status,omitempty"`
	SyncError  string     `json:"sync_error,omitempty"`
}

// Synced reports whether the record has completed a server round-trip.
func (r *Record) Synced() bool {
	return r.SyncStatus == StatusSynced && r.ID != ""
}

// RecordPatch describes a partial update to a record. Nil fields are
// left untouched.
type RecordPatch struct {
	TargetText *string `json:"target_text,omitempty"`
	Context    *string `json:"context,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p RecordPatch) Empty() bool {
	return p.TargetText == nil && p.Context == nil
}

// Operation is the kind of mutation described by a queue item.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// QueueItem is a durable description of one pending remote mutation.
// Items are processed in EnqueuedAt order (FIFO) so a single device's
// edits replay in causal order.
type QueueItem struct {
	QueueID       int64     `json:"queue_id"`
	Operation     Operation `json:"operation"`
	Payload       Record    `json:"payload"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
	Attempts      int       `json:"attempts"`
	LastError     string    `json:"last_error,omitempty"`
	LastAttemptAt time.Time `json:"last_attempt_at,omitempty"`
}

// NormalizeText is the canonical form used for duplicate comparison:
// surrounding whitespace stripped, then case-folded.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// User is the authenticated principal on whose behalf writes happen.
type User struct {
	ID string
}

// Authenticator resolves the current authenticated user. Implementations
// return ErrNotAuthenticated when no session is available.
type Authenticator interface {
	CurrentUser() (*User, error)
}

// ConnectivitySource reports whether the device currently has network
// connectivity. The network monitor is the single implementation
// outside of tests.
type ConnectivitySource interface {
	Online() bool
}
