package collect

import (
	"path/filepath"
	"testing"
	"time"
)

// Helper to create a local store backed by a temp database
func createTestStore(t *testing.T) *LocalStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	store := NewLocalStore(db)
	t.Cleanup(func() { store.Close() })
	return store
}

// TestInsertRecordAssignsDefaults tests local id, timestamps and status
// assignment on insert
func TestInsertRecordAssignsDefaults(t *testing.T) {
	store := createTestStore(t)

	saved, err := store.InsertRecord(Record{
		SourceText: "hello",
		TargetText: "mma",
		OwnerID:    "user-1",
	})
	if err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}

	if saved.LocalID == "" {
		t.Error("Expected a local id to be assigned")
	}
	if saved.SyncStatus != StatusPending {
		t.Errorf("Expected status pending, got %s", saved.SyncStatus)
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be stamped")
	}

	got, err := store.GetRecord(saved.LocalID)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if got.SourceText != "hello" || got.TargetText != "mma" {
		t.Errorf("Record round-trip mismatch: %+v", got)
	}
}

// TestInsertRecordSurvivesReopen tests durability across store restarts
func TestInsertRecordSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	store := NewLocalStore(db)
	saved, err := store.InsertRecord(Record{SourceText: "water", TargetText: "mmọọng", OwnerID: "u"})
	if err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db2, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	store2 := NewLocalStore(db2)
	defer store2.Close()

	got, err := store2.GetRecord(saved.LocalID)
	if err != nil {
		t.Fatalf("GetRecord after reopen failed: %v", err)
	}
	if got.SourceText != "water" {
		t.Errorf("Expected record to survive reopen, got %+v", got)
	}
}

// TestUpdateRecordNotFound tests the not-found error for unknown ids
func TestUpdateRecordNotFound(t *testing.T) {
	store := createTestStore(t)

	target := "new"
	err := store.UpdateRecord("no-such-id", RecordPatch{TargetText: &target})
	if err != ErrRecordNotFound {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

// TestDeleteRecordIdempotent tests that deleting a missing id is not an
// error
func TestDeleteRecordIdempotent(t *testing.T) {
	store := createTestStore(t)

	if err := store.DeleteRecord("no-such-id"); err != nil {
		t.Errorf("Expected idempotent delete, got %v", err)
	}

	saved, _ := store.InsertRecord(Record{SourceText: "a", TargetText: "b", OwnerID: "u"})
	if err := store.DeleteRecord(saved.LocalID); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if err := store.DeleteRecord(saved.LocalID); err != nil {
		t.Errorf("Expected second delete to be a no-op, got %v", err)
	}
}

// TestQueueFIFOOrder tests that ListQueue returns items in enqueue
// order
func TestQueueFIFOOrder(t *testing.T) {
	store := createTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i, source := range []string{"first", "second", "third"} {
		_, err := store.Enqueue(QueueItem{
			Operation:  OpCreate,
			Payload:    Record{LocalID: source, SourceText: source, TargetText: "t", OwnerID: "u"},
			EnqueuedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	items, err := store.ListQueue()
	if err != nil {
		t.Fatalf("ListQueue failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 queue items, got %d", len(items))
	}
	for i, want := range []string{"first", "second", "third"} {
		if items[i].Payload.SourceText != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, items[i].Payload.SourceText)
		}
	}
}

// TestInsertRecordWithQueueAtomic tests the no-orphan invariant: the
// record and its queue item appear together
func TestInsertRecordWithQueueAtomic(t *testing.T) {
	store := createTestStore(t)

	saved, item, err := store.InsertRecordWithQueue(Record{
		SourceText: "hello", TargetText: "mma", OwnerID: "u",
	}, OpCreate)
	if err != nil {
		t.Fatalf("InsertRecordWithQueue failed: %v", err)
	}
	if item.QueueID == 0 {
		t.Error("Expected a queue id to be assigned")
	}
	if item.Payload.LocalID != saved.LocalID {
		t.Errorf("Queue payload local id %s does not match record %s",
			item.Payload.LocalID, saved.LocalID)
	}

	records, _ := store.GetAllRecords()
	queue, _ := store.ListQueue()
	if len(records) != 1 || len(queue) != 1 {
		t.Errorf("Expected 1 record and 1 queue item, got %d and %d", len(records), len(queue))
	}
}

// TestInsertRecordWithQueueRollback tests that a failed composite write
// leaves neither the record nor the queue item behind
func TestInsertRecordWithQueueRollback(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	store := NewLocalStore(db)

	// Break the storage engine mid-flight: every statement now fails,
	// so the transaction can never commit half a write.
	db.Close()

	_, _, err = store.InsertRecordWithQueue(Record{
		SourceText: "hello", TargetText: "mma", OwnerID: "u",
	}, OpCreate)
	if err == nil {
		t.Fatal("Expected an error from a closed database")
	}

	db2, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	store2 := NewLocalStore(db2)
	defer store2.Close()

	records, _ := store2.GetAllRecords()
	queue, _ := store2.ListQueue()
	if len(records) != 0 || len(queue) != 0 {
		t.Errorf("Expected neither record nor queue item, got %d and %d", len(records), len(queue))
	}
}

// TestDequeueRemovesItem tests queue removal
func TestDequeueRemovesItem(t *testing.T) {
	store := createTestStore(t)

	id, _ := store.Enqueue(QueueItem{Operation: OpCreate, Payload: Record{LocalID: "l1"}})
	if err := store.Dequeue(id); err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}

	items, _ := store.ListQueue()
	if len(items) != 0 {
		t.Errorf("Expected empty queue, got %d items", len(items))
	}

	// Unknown id is not an error
	if err := store.Dequeue(9999); err != nil {
		t.Errorf("Expected idempotent dequeue, got %v", err)
	}
}

// TestRecordAttemptIncrementsCounter tests the transient-failure path
func TestRecordAttemptIncrementsCounter(t *testing.T) {
	store := createTestStore(t)

	id, _ := store.Enqueue(QueueItem{Operation: OpCreate, Payload: Record{LocalID: "l1"}})

	at := time.Now()
	if err := store.RecordAttempt(id, "connection refused", at); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if err := store.RecordAttempt(id, "timeout", at.Add(time.Minute)); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}

	items, _ := store.ListQueue()
	if len(items) != 1 {
		t.Fatalf("Expected item to stay queued, got %d items", len(items))
	}
	if items[0].Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", items[0].Attempts)
	}
	if items[0].LastError != "timeout" {
		t.Errorf("Expected last error recorded, got %q", items[0].LastError)
	}
}

// TestMarkSyncedBackfillsServerID tests the id backfill after a
// successful create replay
func TestMarkSyncedBackfillsServerID(t *testing.T) {
	store := createTestStore(t)

	saved, _ := store.InsertRecord(Record{SourceText: "a", TargetText: "b", OwnerID: "u"})
	when := time.Now().Add(time.Minute).Truncate(time.Second)
	if err := store.MarkSynced(saved.LocalID, "srv-9", when); err != nil {
		t.Fatalf("MarkSynced failed: %v", err)
	}

	got, _ := store.GetRecord(saved.LocalID)
	if got.ID != "srv-9" {
		t.Errorf("Expected server id backfilled, got %q", got.ID)
	}
	if got.SyncStatus != StatusSynced {
		t.Errorf("Expected status synced, got %s", got.SyncStatus)
	}
	if !got.UpdatedAt.Equal(when) {
		t.Errorf("Expected updated_at %v, got %v", when, got.UpdatedAt)
	}
}

// TestCancelPendingCreate tests that record and queued create vanish
// together
func TestCancelPendingCreate(t *testing.T) {
	store := createTestStore(t)

	saved, item, err := store.InsertRecordWithQueue(Record{
		SourceText: "a", TargetText: "b", OwnerID: "u",
	}, OpCreate)
	if err != nil {
		t.Fatalf("InsertRecordWithQueue failed: %v", err)
	}

	if err := store.CancelPendingCreate(saved.LocalID, item.QueueID); err != nil {
		t.Fatalf("CancelPendingCreate failed: %v", err)
	}

	records, _ := store.GetAllRecords()
	queue, _ := store.ListQueue()
	if len(records) != 0 || len(queue) != 0 {
		t.Errorf("Expected both gone, got %d records and %d queue items", len(records), len(queue))
	}
}

// TestCountsByStatus tests the status breakdown used by the status
// command
func TestCountsByStatus(t *testing.T) {
	store := createTestStore(t)

	store.InsertRecord(Record{SourceText: "a", TargetText: "b", OwnerID: "u"})
	store.InsertRecord(Record{SourceText: "c", TargetText: "d", OwnerID: "u", SyncStatus: StatusSynced, ID: "srv-1"})

	counts, err := store.CountsByStatus()
	if err != nil {
		t.Fatalf("CountsByStatus failed: %v", err)
	}
	if counts[StatusPending] != 1 || counts[StatusSynced] != 1 {
		t.Errorf("Expected 1 pending and 1 synced, got %+v", counts)
	}
}
