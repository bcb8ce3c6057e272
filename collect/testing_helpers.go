package collect

// This file contains shared test helpers and mocks used across collect
// and collect/sync tests.

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockRemote implements RemoteStore in memory for testing. It enforces
// the remote store's unique constraint on the normalized
// (source_text, target_text) pair and records the order of calls so
// tests can assert FIFO processing.
type MockRemote struct {
	mu      sync.Mutex
	records []Record
	nextID  int

	// Calls records every operation in invocation order, formatted as
	// "op:key" (e.g. "insert:hello", "delete:srv-1").
	Calls []string

	// InsertErr, SelectErr, DeleteErr, UpdateErr force the next
	// matching operations to fail. FailCount limits how many calls
	// fail; 0 means every call.
	InsertErr error
	SelectErr error
	DeleteErr error
	UpdateErr error
	FailCount int

	failed int
}

// NewMockRemote creates an empty in-memory remote store.
func NewMockRemote() *MockRemote {
	return &MockRemote{}
}

func (m *MockRemote) takeFailure(err error) error {
	if err == nil {
		return nil
	}
	if m.FailCount > 0 && m.failed >= m.FailCount {
		return nil
	}
	m.failed++
	return err
}

func (m *MockRemote) Insert(ctx context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "insert:"+rec.SourceText)

	if err := m.takeFailure(m.InsertErr); err != nil {
		return Record{}, err
	}

	source := NormalizeText(rec.SourceText)
	target := NormalizeText(rec.TargetText)
	for _, existing := range m.records {
		if NormalizeText(existing.SourceText) == source && NormalizeText(existing.TargetText) == target {
			return Record{}, &RemoteError{
				Op:         "Insert",
				StatusCode: 409,
				Message:    "duplicate key value violates unique constraint",
			}
		}
	}

	m.nextID++
	now := time.Now()
	stored := Record{
		ID:         fmt.Sprintf("srv-%d", m.nextID),
		SourceText: rec.SourceText,
		TargetText: rec.TargetText,
		Context:    rec.Context,
		OwnerID:    rec.OwnerID,
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: StatusSynced,
	}
	m.records = append(m.records, stored)
	return stored, nil
}

func (m *MockRemote) SelectAll(ctx context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "select")

	if err := m.takeFailure(m.SelectErr); err != nil {
		return nil, err
	}

	// Creation time descending, matching the real service's ordering.
	out := make([]Record, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *MockRemote) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "delete:"+id)

	if err := m.takeFailure(m.DeleteErr); err != nil {
		return err
	}

	for i, rec := range m.records {
		if rec.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return &RemoteError{Op: "DeleteByID", StatusCode: 404, Message: "no such record"}
}

func (m *MockRemote) UpdateByID(ctx context.Context, id string, patch RecordPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "update:"+id)

	if err := m.takeFailure(m.UpdateErr); err != nil {
		return err
	}

	for i := range m.records {
		if m.records[i].ID == id {
			if patch.TargetText != nil {
				m.records[i].TargetText = *patch.TargetText
			}
			if patch.Context != nil {
				m.records[i].Context = *patch.Context
			}
			m.records[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return &RemoteError{Op: "UpdateByID", StatusCode: 404, Message: "no such record"}
}

// Count returns the number of remote rows.
func (m *MockRemote) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Seed inserts a row directly, bypassing call logging and failures.
func (m *MockRemote) Seed(rec Record) Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("srv-%d", m.nextID)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.SyncStatus = StatusSynced
	m.records = append(m.records, rec)
	return rec
}

// StubAuthenticator implements Authenticator with a fixed user.
// A nil User means unauthenticated.
type StubAuthenticator struct {
	User *User
}

func (a *StubAuthenticator) CurrentUser() (*User, error) {
	if a.User == nil {
		return nil, ErrNotAuthenticated
	}
	return a.User, nil
}

// StubConnectivity implements ConnectivitySource with a switchable flag.
type StubConnectivity struct {
	mu     sync.Mutex
	online bool
}

func NewStubConnectivity(online bool) *StubConnectivity {
	return &StubConnectivity{online: online}
}

func (c *StubConnectivity) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func (c *StubConnectivity) SetOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.online = online
}
