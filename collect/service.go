package collect

import (
	"context"
	"log"
	"strings"
	"sync"
	"unicode/utf8"
)

const (
	maxTextLen    = 500
	maxContextLen = 1000
)

// ReconcileFunc merges authoritative remote state into the local store.
// Wired to the reconciler at startup; the service only ever calls it
// best-effort.
type ReconcileFunc func(ctx context.Context, remote []Record) error

// SaveInput is one candidate translation pair.
type SaveInput struct {
	SourceText string
	TargetText string
	Context    string

	// AllowSourceDuplicate saves the pair even when the source phrase
	// already has a different translation. Multiple translations per
	// source phrase may coexist; the default is to stop and surface the
	// prior one so the contributor can decide.
	AllowSourceDuplicate bool
}

// SaveResult is the outcome of a save. A duplicate is a normal outcome,
// not an error: IsDuplicate is set, Existing carries the matched record
// and no write has been performed.
type SaveResult struct {
	Record      *Record
	IsDuplicate bool
	Match       Match
	Existing    *Record
}

// RecordService is the single write/read entry point for callers. It
// hides the online/offline branching: online writes go straight to the
// remote store and are mirrored locally, offline writes land in the
// local store with a queued mutation for later replay.
type RecordService struct {
	local     *LocalStore
	remote    RemoteStore
	auth      Authenticator
	network   ConnectivitySource
	reconcile ReconcileFunc
	logger    *log.Logger

	// Serializes check-then-write sequences so two concurrent saves
	// cannot both pass duplicate detection.
	mu sync.Mutex
}

// NewRecordService wires the service. reconcile may be nil (reads then
// skip the local refresh).
func NewRecordService(local *LocalStore, remote RemoteStore, auth Authenticator,
	network ConnectivitySource, reconcile ReconcileFunc, logger *log.Logger) *RecordService {
	return &RecordService{
		local:     local,
		remote:    remote,
		auth:      auth,
		network:   network,
		reconcile: reconcile,
		logger:    logger,
	}
}

// Save validates and stores one translation pair.
//
// Duplicate checking runs against the remote store when online and the
// local store when offline. A save while offline always succeeds from
// the caller's point of view (saved, will sync) unless local storage
// itself is broken; remote trouble while online degrades to the offline
// path rather than failing the save.
func (s *RecordService) Save(ctx context.Context, in SaveInput) (*SaveResult, error) {
	user, err := s.auth.CurrentUser()
	if err != nil {
		return nil, err
	}

	in.SourceText = strings.TrimSpace(in.SourceText)
	in.TargetText = strings.TrimSpace(in.TargetText)
	in.Context = strings.TrimSpace(in.Context)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.network.Online() {
		result, err := s.saveOnline(ctx, in, user)
		if err == nil {
			return result, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		// Remote unreachable despite the monitor saying online; treat
		// this save as an offline one.
		s.logger.Printf("remote unavailable, saving offline: %v", err)
	}

	return s.saveOffline(in, user)
}

func (s *RecordService) saveOnline(ctx context.Context, in SaveInput, user *User) (*SaveResult, error) {
	existing, err := s.remote.SelectAll(ctx)
	if err != nil {
		return nil, err
	}
	if match, kind := FindDuplicate(existing, in.SourceText, in.TargetText); kind != MatchNone {
		if kind == MatchExact || !in.AllowSourceDuplicate {
			return &SaveResult{IsDuplicate: true, Match: kind, Existing: match}, nil
		}
	}

	stored, err := s.remote.Insert(ctx, Record{
		SourceText: in.SourceText,
		TargetText: in.TargetText,
		Context:    in.Context,
		OwnerID:    user.ID,
	})
	if err != nil {
		if IsRemoteConflict(err) {
			// Another write landed between the check and the insert.
			// Surface the winner as a duplicate instead of the raw
			// constraint error.
			return s.resolveConflict(ctx, in, err)
		}
		return nil, err
	}

	// Mirror into the local store for offline reads.
	mirrored, err := s.local.InsertRecord(stored)
	if err != nil {
		// The remote write already succeeded; the row will arrive via
		// the next reconcile. Don't fail the save.
		s.logger.Printf("failed to mirror record %s locally: %v", stored.ID, err)
		return &SaveResult{Record: &stored}, nil
	}
	return &SaveResult{Record: &mirrored}, nil
}

func (s *RecordService) resolveConflict(ctx context.Context, in SaveInput, cause error) (*SaveResult, error) {
	existing, err := s.remote.SelectAll(ctx)
	if err != nil {
		return nil, err
	}
	match, kind := FindDuplicate(existing, in.SourceText, in.TargetText)
	if kind == MatchNone {
		// Constraint fired but we cannot see the winning row; give the
		// caller the original conflict.
		return nil, cause
	}
	return &SaveResult{IsDuplicate: true, Match: kind, Existing: match}, nil
}

func (s *RecordService) saveOffline(in SaveInput, user *User) (*SaveResult, error) {
	existing, err := s.local.GetAllRecords()
	if err != nil {
		return nil, err
	}
	if match, kind := FindDuplicate(existing, in.SourceText, in.TargetText); kind != MatchNone {
		if kind == MatchExact || !in.AllowSourceDuplicate {
			return &SaveResult{IsDuplicate: true, Match: kind, Existing: match}, nil
		}
	}

	rec := Record{
		SourceText: in.SourceText,
		TargetText: in.TargetText,
		Context:    in.Context,
		OwnerID:    user.ID,
		SyncStatus: StatusPending,
	}
	saved, _, err := s.local.InsertRecordWithQueue(rec, OpCreate)
	if err != nil {
		return nil, err
	}
	return &SaveResult{Record: &saved}, nil
}

// GetAll returns all records. Online, the remote store is fetched and
// merged into the local cache, and the refreshed local rows are served
// so every record carries the local id that Delete and UpdateContext
// address it by. Offline, or when the remote read or merge fails, the
// local store is served as-is (remote rows straight through if only the
// merge failed).
func (s *RecordService) GetAll(ctx context.Context) ([]Record, error) {
	if s.network.Online() {
		remote, err := s.remote.SelectAll(ctx)
		if err == nil {
			if s.reconcile == nil {
				return remote, nil
			}
			if rerr := s.reconcile(ctx, remote); rerr != nil {
				s.logger.Printf("reconcile after fetch failed: %v", rerr)
				return remote, nil
			}
			return s.local.GetAllRecords()
		}
		s.logger.Printf("remote fetch failed, falling back to local: %v", err)
	}
	return s.local.GetAllRecords()
}

// Delete removes a record by local id.
//
// Online, the remote row is deleted first and then the local mirror.
// Offline, the local row is removed and a delete is queued for the
// remote id. A record that never synced is different: there is no
// remote row to delete, so its pending create is cancelled outright.
func (s *RecordService) Delete(ctx context.Context, localID string) error {
	if _, err := s.auth.CurrentUser(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.local.GetRecord(localID)
	if err != nil {
		return err
	}

	if rec.ID == "" {
		item, err := s.local.FindQueuedCreate(localID)
		if err != nil {
			return err
		}
		if item != nil {
			return s.local.CancelPendingCreate(localID, item.QueueID)
		}
		return s.local.DeleteRecord(localID)
	}

	if s.network.Online() {
		err := s.remote.DeleteByID(ctx, rec.ID)
		switch {
		case err == nil, IsRemoteNotFound(err):
			return s.local.DeleteRecord(localID)
		case IsTransient(err):
			s.logger.Printf("remote unavailable, queueing delete: %v", err)
		default:
			return err
		}
	}

	_, err = s.local.DeleteRecordWithQueue(localID, *rec)
	return err
}

// UpdateContext changes the context note on a record.
func (s *RecordService) UpdateContext(ctx context.Context, localID, contextNote string) error {
	if _, err := s.auth.CurrentUser(); err != nil {
		return err
	}

	contextNote = strings.TrimSpace(contextNote)
	if utf8.RuneCountInString(contextNote) > maxContextLen {
		return &ValidationError{Field: "context", Reason: "too long"}
	}
	patch := RecordPatch{Context: &contextNote}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.local.GetRecord(localID)
	if err != nil {
		return err
	}

	if rec.ID == "" {
		// Never synced: the queued create replays the current local row,
		// so updating the local record is enough.
		return s.local.UpdateRecord(localID, patch)
	}

	if s.network.Online() {
		err := s.remote.UpdateByID(ctx, rec.ID, patch)
		switch {
		case err == nil:
			return s.local.UpdateRecord(localID, patch)
		case IsTransient(err):
			s.logger.Printf("remote unavailable, queueing context update: %v", err)
		default:
			return err
		}
	}

	updated := *rec
	updated.Context = contextNote
	_, err = s.local.UpdateRecordWithQueue(localID, patch, updated)
	return err
}

func validateInput(in SaveInput) error {
	if in.SourceText == "" {
		return &ValidationError{Field: "source text", Reason: "required"}
	}
	if in.TargetText == "" {
		return &ValidationError{Field: "target text", Reason: "required"}
	}
	if utf8.RuneCountInString(in.SourceText) > maxTextLen {
		return &ValidationError{Field: "source text", Reason: "too long"}
	}
	if utf8.RuneCountInString(in.TargetText) > maxTextLen {
		return &ValidationError{Field: "target text", Reason: "too long"}
	}
	if utf8.RuneCountInString(in.Context) > maxContextLen {
		return &ValidationError{Field: "context", Reason: "too long"}
	}
	if NormalizeText(in.SourceText) == NormalizeText(in.TargetText) {
		return &ValidationError{Field: "target text", Reason: "translation must differ from the source text"}
	}
	return nil
}
