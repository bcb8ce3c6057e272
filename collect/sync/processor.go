// Package sync drains the durable mutation queue against the remote
// store and pulls authoritative remote state back into the local cache.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"ibonocollect/collect"
)

// ErrSyncInFlight is returned when a sync pass is already running.
// Triggers arriving mid-pass are dropped, not queued.
var ErrSyncInFlight = errors.New("sync pass already in progress")

const (
	backoffBase = 5 * time.Second
	backoffCap  = 10 * time.Minute
)

// Result contains statistics about one sync pass.
type Result struct {
	Completed int // queue items definitively finished and removed
	Failed    int // transient failures left queued for retry
	Skipped   int // items still inside their backoff window
	Abandoned int // items not attempted because connectivity dropped
	Errors    []error
	Duration  time.Duration
}

// Processor replays queued mutations against the remote store in FIFO
// order, exactly one pass at a time.
type Processor struct {
	local   *collect.LocalStore
	remote  collect.RemoteStore
	network collect.ConnectivitySource
	logger  *log.Logger

	running atomic.Bool
	now     func() time.Time
}

// New creates a sync processor. If logger is nil, a default logger
// writing to stderr is used.
func New(local *collect.LocalStore, remote collect.RemoteStore,
	network collect.ConnectivitySource, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Processor{
		local:   local,
		remote:  remote,
		network: network,
		logger:  logger,
		now:     time.Now,
	}
}

// ProcessQueue drains the queue and then reconciles local state from
// the remote store. Only one pass runs at a time; a concurrent call
// returns ErrSyncInFlight immediately.
//
// A transient remote failure never loses the queued mutation: the item
// stays queued with its attempt counter bumped and the pass moves on to
// the next item. Going offline mid-pass abandons the remaining items
// between, never inside, item replays.
func (p *Processor) ProcessQueue(ctx context.Context) (*Result, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInFlight
	}
	defer p.running.Store(false)

	start := p.now()
	result := &Result{}

	items, err := p.local.ListQueue()
	if err != nil {
		return nil, err
	}

	// ListQueue already orders by enqueue time ascending; replaying in
	// that order preserves the causal order of this device's edits.
	for i, item := range items {
		if !p.network.Online() {
			result.Abandoned = len(items) - i
			p.logger.Printf("went offline mid-pass, %d items left queued", result.Abandoned)
			break
		}
		if !p.due(item) {
			result.Skipped++
			continue
		}

		if err := p.processItem(ctx, item); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Completed++
	}

	if p.network.Online() {
		if err := p.Reconcile(ctx); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("reconcile failed: %w", err))
		}
	}

	result.Duration = p.now().Sub(start)
	return result, nil
}

// due reports whether an item's backoff window has elapsed. Backoff is
// capped exponential per item, computed from its attempt counter.
func (p *Processor) due(item collect.QueueItem) bool {
	if item.Attempts == 0 || item.LastAttemptAt.IsZero() {
		return true
	}
	wait := backoffBase << (item.Attempts - 1)
	if wait > backoffCap || wait <= 0 {
		wait = backoffCap
	}
	return p.now().Sub(item.LastAttemptAt) >= wait
}

// processItem replays one queued mutation. A nil return means the item
// was definitively finished (success or permanent failure) and removed
// from the queue; an error means it stays queued for retry.
func (p *Processor) processItem(ctx context.Context, item collect.QueueItem) error {
	var err error
	switch item.Operation {
	case collect.OpCreate:
		err = p.processCreate(ctx, item)
	case collect.OpDelete:
		err = p.processDelete(ctx, item)
	case collect.OpUpdate:
		err = p.processUpdate(ctx, item)
	default:
		p.logger.Printf("dropping queue item %d with unknown operation %q", item.QueueID, item.Operation)
		return p.local.Dequeue(item.QueueID)
	}

	if err == nil {
		return nil
	}
	if collect.IsPermanentReject(err) {
		// Blind infinite retry would be wrong: record the failure on
		// the record for observability and drop the item.
		p.logger.Printf("queue item %d permanently rejected: %v", item.QueueID, err)
		if item.Payload.LocalID != "" {
			if merr := p.local.MarkSyncError(item.Payload.LocalID, err.Error()); merr != nil {
				p.logger.Printf("failed to mark sync error on %s: %v", item.Payload.LocalID, merr)
			}
		}
		return p.local.Dequeue(item.QueueID)
	}

	// Transient: leave the item in place with the attempt recorded.
	if aerr := p.local.RecordAttempt(item.QueueID, err.Error(), p.now()); aerr != nil {
		p.logger.Printf("failed to record attempt on item %d: %v", item.QueueID, aerr)
	}
	return err
}

func (p *Processor) processCreate(ctx context.Context, item collect.QueueItem) error {
	payload := item.Payload

	// The local row may have been edited since it was queued; replay
	// its current state rather than the stale snapshot.
	if cur, err := p.local.GetRecord(payload.LocalID); err == nil {
		payload.SourceText = cur.SourceText
		payload.TargetText = cur.TargetText
		payload.Context = cur.Context
	}

	stored, err := p.remote.Insert(ctx, payload)
	if err != nil {
		if !collect.IsRemoteConflict(err) {
			return err
		}
		// The remote already holds an equivalent row (a retried create
		// whose ack was lost, or a row another session won). The intent
		// is satisfied; adopt the existing row's id.
		existing, serr := p.remote.SelectAll(ctx)
		if serr != nil {
			return serr
		}
		match, kind := collect.FindDuplicate(existing, payload.SourceText, payload.TargetText)
		if match == nil || kind != collect.MatchExact {
			// A source-only match is a different translation; adopting
			// its id would mark this record synced under the wrong row.
			return err
		}
		stored = *match
	}

	if err := p.local.MarkSynced(payload.LocalID, stored.ID, stored.UpdatedAt); err != nil {
		if !errors.Is(err, collect.ErrRecordNotFound) {
			return err
		}
		// Local row deleted while the create was in flight; nothing to
		// backfill.
	}
	return p.local.Dequeue(item.QueueID)
}

func (p *Processor) processDelete(ctx context.Context, item collect.QueueItem) error {
	if item.Payload.ID != "" {
		err := p.remote.DeleteByID(ctx, item.Payload.ID)
		if err != nil && !collect.IsRemoteNotFound(err) {
			return err
		}
		// Already gone remotely counts as done.
	}

	if item.Payload.LocalID != "" {
		if err := p.local.DeleteRecord(item.Payload.LocalID); err != nil {
			return err
		}
	}
	return p.local.Dequeue(item.QueueID)
}

func (p *Processor) processUpdate(ctx context.Context, item collect.QueueItem) error {
	payload := item.Payload
	patch := collect.RecordPatch{
		TargetText: &payload.TargetText,
		Context:    &payload.Context,
	}

	err := p.remote.UpdateByID(ctx, payload.ID, patch)
	if err != nil && !collect.IsRemoteNotFound(err) {
		return err
	}
	if collect.IsRemoteNotFound(err) {
		p.logger.Printf("remote row %s gone, dropping queued update", payload.ID)
	}

	if merr := p.local.MarkSynced(payload.LocalID, payload.ID, p.now()); merr != nil {
		if !errors.Is(merr, collect.ErrRecordNotFound) {
			return merr
		}
	}
	return p.local.Dequeue(item.QueueID)
}
