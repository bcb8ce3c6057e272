package sync

import (
	"context"
	"fmt"

	"ibonocollect/collect"
)

// Reconcile pulls the full remote state and merges it into the local
// store.
func (p *Processor) Reconcile(ctx context.Context) error {
	remote, err := p.remote.SelectAll(ctx)
	if err != nil {
		return err
	}
	return p.ReconcileRecords(ctx, remote)
}

// ReconcileRecords merges an already-fetched remote snapshot into the
// local store. It satisfies collect.ReconcileFunc so the record service
// can refresh the cache after an online read.
//
// The merge is one-way and non-destructive: remote rows missing locally
// are inserted as synced, fully-synced local rows are refreshed from
// the remote copy (last-writer-wins applies only to those), and local
// rows are never deleted; a row absent from the remote set may be a
// legitimately pending local-only record. Rows with local pending edits
// are never overwritten.
func (p *Processor) ReconcileRecords(ctx context.Context, remote []collect.Record) error {
	local, err := p.local.GetAllRecords()
	if err != nil {
		return err
	}

	byRemoteID := make(map[string]collect.Record, len(local))
	for _, rec := range local {
		if rec.ID != "" {
			byRemoteID[rec.ID] = rec
		}
	}

	for _, rec := range remote {
		mirrored, ok := byRemoteID[rec.ID]
		if !ok {
			rec.LocalID = "" // a fresh device-local key is assigned on insert
			rec.SyncStatus = collect.StatusSynced
			if _, err := p.local.InsertRecord(rec); err != nil {
				return fmt.Errorf("failed to mirror remote record %s: %w", rec.ID, err)
			}
			continue
		}
		if mirrored.SyncStatus != collect.StatusSynced {
			// In-flight local change; leave it alone.
			continue
		}
		if err := p.local.RefreshFromRemote(mirrored.LocalID, rec); err != nil {
			return fmt.Errorf("failed to refresh record %s: %w", rec.ID, err)
		}
	}
	return nil
}
