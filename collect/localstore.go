package collect

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LocalStore is the durable on-device table of records plus the sync
// queue. All operations are durable before returning and never touch
// the network. Access is serialized through a single mutex; every
// component sharing the store goes through the same discipline.
type LocalStore struct {
	db *Database
	mu sync.Mutex
}

// NewLocalStore creates a local store over an open database.
func NewLocalStore(db *Database) *LocalStore {
	return &LocalStore{db: db}
}

// Close closes the underlying database.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// InsertRecord persists a record. A missing LocalID is assigned,
// missing timestamps are stamped, and a missing sync status defaults
// to pending. The stored record is returned.
func (s *LocalStore) InsertRecord(rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepareRecord(&rec)
	if err := insertRecordTx(s.db.DB, rec); err != nil {
		return Record{}, &StorageError{Op: "InsertRecord", Err: err}
	}
	return rec, nil
}

// InsertRecordWithQueue persists a record and its create queue item as
// one transaction. Either both exist afterwards or neither does; a
// pending record without a queue item can never be observed, even
// across a crash between the two writes.
func (s *LocalStore) InsertRecordWithQueue(rec Record, op Operation) (Record, QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepareRecord(&rec)
	item := QueueItem{
		Operation:  op,
		Payload:    rec,
		EnqueuedAt: time.Now(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Record{}, QueueItem{}, &StorageError{Op: "InsertRecordWithQueue", Err: err}
	}
	defer tx.Rollback()

	if err := insertRecordTx(tx, rec); err != nil {
		return Record{}, QueueItem{}, &StorageError{Op: "InsertRecordWithQueue", Err: err}
	}
	queueID, err := enqueueTx(tx, item)
	if err != nil {
		return Record{}, QueueItem{}, &StorageError{Op: "InsertRecordWithQueue", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return Record{}, QueueItem{}, &StorageError{Op: "InsertRecordWithQueue", Err: err}
	}

	item.QueueID = queueID
	return rec, item, nil
}

// DeleteRecordWithQueue removes a record and enqueues its delete
// mutation as one transaction, mirroring InsertRecordWithQueue.
func (s *LocalStore) DeleteRecordWithQueue(localID string, payload Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := QueueItem{
		Operation:  OpDelete,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, &StorageError{Op: "DeleteRecordWithQueue", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM records WHERE local_id = ?`, localID); err != nil {
		return 0, &StorageError{Op: "DeleteRecordWithQueue", Err: err}
	}
	queueID, err := enqueueTx(tx, item)
	if err != nil {
		return 0, &StorageError{Op: "DeleteRecordWithQueue", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return 0, &StorageError{Op: "DeleteRecordWithQueue", Err: err}
	}

	return queueID, nil
}

// UpdateRecordWithQueue applies a partial update and enqueues the
// matching update mutation as one transaction. The record drops back to
// pending until the queued update reaches the server, which keeps the
// reconciler from clobbering the offline edit.
func (s *LocalStore) UpdateRecordWithQueue(localID string, patch RecordPatch, payload Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := QueueItem{
		Operation:  OpUpdate,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, &StorageError{Op: "UpdateRecordWithQueue", Err: err}
	}
	defer tx.Rollback()

	query := `UPDATE records SET sync_status = ?, updated_at = ?`
	args := []interface{}{StatusPending, time.Now().Unix()}
	if patch.TargetText != nil {
		query += `, target_text = ?`
		args = append(args, *patch.TargetText)
	}
	if patch.Context != nil {
		query += `, context = ?`
		args = append(args, *patch.Context)
	}
	query += ` WHERE local_id = ?`
	args = append(args, localID)

	result, err := tx.Exec(query, args...)
	if err != nil {
		return 0, &StorageError{Op: "UpdateRecordWithQueue", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, &StorageError{Op: "UpdateRecordWithQueue", Err: err}
	}
	if affected == 0 {
		return 0, ErrRecordNotFound
	}
	queueID, err := enqueueTx(tx, item)
	if err != nil {
		return 0, &StorageError{Op: "UpdateRecordWithQueue", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return 0, &StorageError{Op: "UpdateRecordWithQueue", Err: err}
	}
	return queueID, nil
}

// CancelPendingCreate removes a never-synced record together with its
// queued create in one transaction. Used when the user deletes a record
// that has not reached the server: there is no remote row to delete, so
// the pending create is cancelled outright.
func (s *LocalStore) CancelPendingCreate(localID string, queueID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Op: "CancelPendingCreate", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM records WHERE local_id = ?`, localID); err != nil {
		return &StorageError{Op: "CancelPendingCreate", Err: err}
	}
	if _, err := tx.Exec(`DELETE FROM sync_queue WHERE id = ?`, queueID); err != nil {
		return &StorageError{Op: "CancelPendingCreate", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "CancelPendingCreate", Err: err}
	}
	return nil
}

// GetAllRecords returns every record in the store, newest first.
func (s *LocalStore) GetAllRecords() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT local_id, remote_id, source_text, target_text, context,
		       owner_id, created_at, updated_at, sync_status, sync_error
		FROM records
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, &StorageError{Op: "GetAllRecords", Err: err}
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &StorageError{Op: "GetAllRecords", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "GetAllRecords", Err: err}
	}
	return records, nil
}

// GetRecord fetches a single record by local id.
func (s *LocalStore) GetRecord(localID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT local_id, remote_id, source_text, target_text, context,
		       owner_id, created_at, updated_at, sync_status, sync_error
		FROM records
		WHERE local_id = ?
	`, localID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "GetRecord", Err: err}
	}
	return &rec, nil
}

// UpdateRecord applies a partial update to a record. ErrRecordNotFound
// is returned for an unknown local id.
func (s *LocalStore) UpdateRecord(localID string, patch RecordPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Empty() {
		return nil
	}

	query := `UPDATE records SET updated_at = ?`
	args := []interface{}{time.Now().Unix()}
	if patch.TargetText != nil {
		query += `, target_text = ?`
		args = append(args, *patch.TargetText)
	}
	if patch.Context != nil {
		query += `, context = ?`
		args = append(args, *patch.Context)
	}
	query += ` WHERE local_id = ?`
	args = append(args, localID)

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return &StorageError{Op: "UpdateRecord", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &StorageError{Op: "UpdateRecord", Err: err}
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// MarkSynced backfills the server id onto a local record and flips it
// to synced, clearing any previous sync error.
func (s *LocalStore) MarkSynced(localID, remoteID string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	result, err := s.db.Exec(`
		UPDATE records
		SET remote_id = ?, sync_status = ?, sync_error = NULL, updated_at = ?
		WHERE local_id = ?
	`, remoteID, StatusSynced, updatedAt.Unix(), localID)
	if err != nil {
		return &StorageError{Op: "MarkSynced", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &StorageError{Op: "MarkSynced", Err: err}
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// MarkSyncError records a permanent sync failure on a record for
// observability. The record stays local; it is no longer queued.
func (s *LocalStore) MarkSyncError(localID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE records SET sync_status = ?, sync_error = ? WHERE local_id = ?
	`, StatusError, message, localID)
	if err != nil {
		return &StorageError{Op: "MarkSyncError", Err: err}
	}
	return nil
}

// RefreshFromRemote overwrites a record's content fields with the
// authoritative remote row. Callers must only do this for fully-synced
// rows; the reconciler enforces that.
func (s *LocalStore) RefreshFromRemote(localID string, remote Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE records
		SET remote_id = ?, target_text = ?, context = ?, updated_at = ?,
		    sync_status = ?, sync_error = NULL
		WHERE local_id = ?
	`, remote.ID, remote.TargetText, remote.Context, remote.UpdatedAt.Unix(),
		StatusSynced, localID)
	if err != nil {
		return &StorageError{Op: "RefreshFromRemote", Err: err}
	}
	return nil
}

// DeleteRecord removes a record. Deleting an unknown id is not an error.
func (s *LocalStore) DeleteRecord(localID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM records WHERE local_id = ?`, localID); err != nil {
		return &StorageError{Op: "DeleteRecord", Err: err}
	}
	return nil
}

// Enqueue appends a mutation to the sync queue and returns its queue id.
func (s *LocalStore) Enqueue(item QueueItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now()
	}
	queueID, err := enqueueTx(s.db.DB, item)
	if err != nil {
		return 0, &StorageError{Op: "Enqueue", Err: err}
	}
	return queueID, nil
}

// ListQueue returns all queue items in FIFO order by enqueue time.
func (s *LocalStore) ListQueue() ([]QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, operation, payload, enqueued_at, attempts, last_error, last_attempt_at
		FROM sync_queue
		ORDER BY enqueued_at ASC, id ASC
	`)
	if err != nil {
		return nil, &StorageError{Op: "ListQueue", Err: err}
	}
	defer rows.Close()

	var items []QueueItem
	for rows.Next() {
		var item QueueItem
		var payload string
		var enqueuedAt int64
		var lastError sql.NullString
		var lastAttemptAt sql.NullInt64

		err := rows.Scan(&item.QueueID, &item.Operation, &payload,
			&enqueuedAt, &item.Attempts, &lastError, &lastAttemptAt)
		if err != nil {
			return nil, &StorageError{Op: "ListQueue", Err: err}
		}
		if err := json.Unmarshal([]byte(payload), &item.Payload); err != nil {
			return nil, &StorageError{Op: "ListQueue", Err: err}
		}
		item.EnqueuedAt = time.Unix(enqueuedAt, 0)
		if lastError.Valid {
			item.LastError = lastError.String
		}
		if lastAttemptAt.Valid {
			item.LastAttemptAt = time.Unix(lastAttemptAt.Int64, 0)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "ListQueue", Err: err}
	}
	return items, nil
}

// Dequeue removes a queue item. Removing an unknown id is not an error.
func (s *LocalStore) Dequeue(queueID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM sync_queue WHERE id = ?`, queueID); err != nil {
		return &StorageError{Op: "Dequeue", Err: err}
	}
	return nil
}

// RecordAttempt increments a queue item's retry counter after a
// transient failure, keeping the item in place.
func (s *LocalStore) RecordAttempt(queueID int64, errMsg string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE sync_queue SET attempts = attempts + 1, last_error = ?, last_attempt_at = ?
		WHERE id = ?
	`, errMsg, at.Unix(), queueID)
	if err != nil {
		return &StorageError{Op: "RecordAttempt", Err: err}
	}
	return nil
}

// FindQueuedCreate returns the pending create queue item for a local
// record, or nil if none is queued.
func (s *LocalStore) FindQueuedCreate(localID string) (*QueueItem, error) {
	items, err := s.ListQueue()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Operation == OpCreate && items[i].Payload.LocalID == localID {
			return &items[i], nil
		}
	}
	return nil, nil
}

// CountsByStatus returns the number of records per sync status.
func (s *LocalStore) CountsByStatus() (map[SyncStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT sync_status, COUNT(*) FROM records GROUP BY sync_status`)
	if err != nil {
		return nil, &StorageError{Op: "CountsByStatus", Err: err}
	}
	defer rows.Close()

	counts := make(map[SyncStatus]int)
	for rows.Next() {
		var status SyncStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, &StorageError{Op: "CountsByStatus", Err: err}
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "CountsByStatus", Err: err}
	}
	return counts, nil
}

// execer covers both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func prepareRecord(rec *Record) {
	now := time.Now()
	if rec.LocalID == "" {
		rec.LocalID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	if rec.SyncStatus == "" {
		rec.SyncStatus = StatusPending
	}
}

func insertRecordTx(e execer, rec Record) error {
	_, err := e.Exec(`
		INSERT INTO records (local_id, remote_id, source_text, target_text, context,
		                     owner_id, created_at, updated_at, sync_status, sync_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.LocalID, nullable(rec.ID), rec.SourceText, rec.TargetText, nullable(rec.Context),
		rec.OwnerID, rec.CreatedAt.Unix(), rec.UpdatedAt.Unix(),
		string(rec.SyncStatus), nullable(rec.SyncError))
	return err
}

func enqueueTx(e execer, item QueueItem) (int64, error) {
	payload, err := json.Marshal(item.Payload)
	if err != nil {
		return 0, err
	}
	result, err := e.Exec(`
		INSERT INTO sync_queue (operation, payload, enqueued_at, attempts)
		VALUES (?, ?, ?, ?)
	`, string(item.Operation), string(payload), item.EnqueuedAt.Unix(), item.Attempts)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var remoteID, context, syncError sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&rec.LocalID, &remoteID, &rec.SourceText, &rec.TargetText,
		&context, &rec.OwnerID, &createdAt, &updatedAt, &rec.SyncStatus, &syncError)
	if err != nil {
		return Record{}, err
	}

	if remoteID.Valid {
		rec.ID = remoteID.String
	}
	if context.Valid {
		rec.Context = context.String
	}
	if syncError.Valid {
		rec.SyncError = syncError.String
	}
	rec.CreatedAt = time.Unix(createdAt, 0)
	rec.UpdatedAt = time.Unix(updatedAt, 0)
	return rec, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
