package content

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tenex-chat/inkwell/internal/errors"
	"github.com/tenex-chat/inkwell/internal/logging"
	"github.com/tenex-chat/inkwell/internal/persist"
	"github.com/tenex-chat/inkwell/internal/record"
)

// SnapshotsFile is the fixed file name for the publish-snapshot collection.
const SnapshotsFile = "publish_snapshots.json"

// Snapshots manages publish snapshots, the safety copies taken when a draft
// is handed off for publishing. Best-effort like drafts: snapshots exist to
// survive crashes, not to be the long-term record.
type Snapshots struct {
	mgr *persist.Manager[record.SnapshotMap]
}

// NewSnapshots creates the snapshot manager over dir. Call Open before use.
func NewSnapshots(dir string, interval time.Duration, log logging.Logger) *Snapshots {
	store := persist.NewStore[record.SnapshotMap](filepath.Join(dir, SnapshotsFile), log)
	return &Snapshots{
		mgr: persist.NewManager[record.SnapshotMap](store, persist.BestEffort, interval, log),
	}
}

// Open loads the collection.
func (s *Snapshots) Open(ctx context.Context) error { return s.mgr.Open(ctx) }

// Close flushes any pending save and stops the manager.
func (s *Snapshots) Close() error { return s.mgr.Close() }

// Create records a snapshot of content about to be published. Content must
// be non-empty after trimming, an empty snapshot protects nothing.
func (s *Snapshots) Create(ctx context.Context, conversationID, content string) (record.PublishSnapshot, error) {
	if strings.TrimSpace(content) == "" {
		return record.PublishSnapshot{}, errors.NewInvalidRequest("snapshot content must not be empty")
	}
	snap := record.NewPublishSnapshot(conversationID, content)
	err := s.mgr.Mutate(ctx, func(col *record.SnapshotMap) bool {
		(*col)[snap.PublishID] = snap
		return true
	})
	if err != nil {
		return record.PublishSnapshot{}, err
	}
	return snap, nil
}

// Confirm marks the snapshot as successfully published, recording the
// resulting event id. Confirming twice re-stamps, the publish pipeline may
// retry and the latest event wins. Unknown ids are an error.
func (s *Snapshots) Confirm(ctx context.Context, publishID, eventID string) (record.PublishSnapshot, error) {
	var out record.PublishSnapshot
	found := false
	err := s.mgr.Mutate(ctx, func(col *record.SnapshotMap) bool {
		snap, ok := (*col)[publishID]
		if !ok {
			return false
		}
		snap.Confirm(eventID)
		(*col)[publishID] = snap
		out = snap
		found = true
		return true
	})
	if err != nil {
		return record.PublishSnapshot{}, err
	}
	if !found {
		return record.PublishSnapshot{}, errors.NewNotFound(publishID)
	}
	return out, nil
}

// Remove deletes a snapshot by id. Unknown ids are a no-op.
func (s *Snapshots) Remove(ctx context.Context, publishID string) error {
	return s.mgr.Mutate(ctx, func(col *record.SnapshotMap) bool {
		if _, ok := (*col)[publishID]; !ok {
			return false
		}
		delete(*col, publishID)
		return true
	})
}

// Pending returns unconfirmed snapshots, oldest send first.
func (s *Snapshots) Pending(ctx context.Context) ([]record.PublishSnapshot, error) {
	col, err := s.mgr.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var out []record.PublishSnapshot
	for _, snap := range col {
		if !snap.IsConfirmed() {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SentAt != out[j].SentAt {
			return out[i].SentAt < out[j].SentAt
		}
		return out[i].PublishID < out[j].PublishID
	})
	return out, nil
}

// All returns a copy of the whole collection keyed by publish id.
func (s *Snapshots) All(ctx context.Context) (record.SnapshotMap, error) {
	return s.mgr.Snapshot(ctx)
}

// CleanupConfirmed removes snapshots confirmed before now-grace. Recently
// confirmed snapshots stay around so a publish that the relay later drops
// can still be recovered. Returns the number removed.
func (s *Snapshots) CleanupConfirmed(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := time.Now().Add(-grace).Unix()
	removed := 0
	err := s.mgr.Mutate(ctx, func(col *record.SnapshotMap) bool {
		for id, snap := range *col {
			if snap.IsConfirmed() && snap.PublishedAt < cutoff {
				delete(*col, id)
				removed++
			}
		}
		return removed > 0
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ImportMissing merges snapshots from another collection, skipping ids that
// already exist. Used for the legacy container migration and for jsonl
// import. Returns the number inserted.
func (s *Snapshots) ImportMissing(ctx context.Context, src record.SnapshotMap) (int, error) {
	inserted := 0
	err := s.mgr.Mutate(ctx, func(col *record.SnapshotMap) bool {
		for id, snap := range src {
			if _, ok := (*col)[id]; ok {
				continue
			}
			(*col)[id] = snap
			inserted++
		}
		return inserted > 0
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// SaveNow flushes the collection immediately.
func (s *Snapshots) SaveNow(ctx context.Context) error { return s.mgr.SaveNow(ctx) }

// LoadFailed reports whether the initial load failed.
func (s *Snapshots) LoadFailed() bool { return s.mgr.LoadFailed() }

// Status summarizes the manager for status surfaces.
func (s *Snapshots) Status(ctx context.Context) (ManagerStatus, error) {
	snap, err := s.mgr.Snapshot(ctx)
	if err != nil {
		return ManagerStatus{}, err
	}
	return managerStatus(s.mgr, len(snap)), nil
}
