// Package content provides the typed managers over the persistence engine,
// one per record family, plus the Vault that owns them all and the periodic
// orphan sweeper.
package content

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/tenex-chat/inkwell/internal/logging"
	"github.com/tenex-chat/inkwell/internal/persist"
	"github.com/tenex-chat/inkwell/internal/record"
)

// DraftsFile is the fixed file name for the transient draft collection.
const DraftsFile = "message_drafts.json"

// Drafts manages the per-scope message drafts. Drafts are best-effort: a
// corrupted file is quarantined but saving continues, because losing a reply
// in progress is worse than overwriting an already-quarantined file.
type Drafts struct {
	mgr *persist.Manager[record.DraftMap]
}

// NewDrafts creates the draft manager over dir. Call Open before use.
func NewDrafts(dir string, interval time.Duration, log logging.Logger) *Drafts {
	store := persist.NewStore[record.DraftMap](filepath.Join(dir, DraftsFile), log)
	store.SetDecodeHook(unwrapLegacyDrafts)
	return &Drafts{
		mgr: persist.NewManager[record.DraftMap](store, persist.BestEffort, interval, log),
	}
}

// Open loads the collection. Safe to call once at startup.
func (d *Drafts) Open(ctx context.Context) error { return d.mgr.Open(ctx) }

// Close flushes any pending save and stops the manager.
func (d *Drafts) Close() error { return d.mgr.Close() }

// GetOrCreate returns the draft for the scope, creating a default one (and
// scheduling a save) when none exists.
func (d *Drafts) GetOrCreate(ctx context.Context, scope record.DraftScope) (record.Draft, error) {
	var out record.Draft
	err := d.mgr.Mutate(ctx, func(col *record.DraftMap) bool {
		if existing, ok := (*col)[scope.Key()]; ok {
			out = existing.Clone()
			return false
		}
		created := record.NewDraft(scope)
		(*col)[scope.Key()] = created
		out = created.Clone()
		return true
	})
	return out, err
}

// Lookup returns the draft for the scope without creating one.
func (d *Drafts) Lookup(ctx context.Context, scope record.DraftScope) (record.Draft, bool, error) {
	snap, err := d.mgr.Snapshot(ctx)
	if err != nil {
		return record.Draft{}, false, err
	}
	draft, ok := snap[scope.Key()]
	return draft, ok, nil
}

// DraftUpdate carries the fields a composer edit can change. Nil pointers
// leave the field untouched; ActionIDs nil leaves the set untouched.
type DraftUpdate struct {
	Content           *string
	Title             *string
	AgentPubkey       *string
	RefConversationID *string
	RefReportID       *string
	ActionIDs         []string
}

// Put applies an update to the scope's draft, creating it first when absent.
// Every call bumps LastEdited and schedules a save.
func (d *Drafts) Put(ctx context.Context, scope record.DraftScope, upd DraftUpdate) (record.Draft, error) {
	var out record.Draft
	err := d.mgr.Mutate(ctx, func(col *record.DraftMap) bool {
		draft, ok := (*col)[scope.Key()]
		if !ok {
			draft = record.NewDraft(scope)
		}
		if upd.Content != nil {
			draft.Content = *upd.Content
		}
		if upd.Title != nil {
			draft.Title = *upd.Title
		}
		if upd.AgentPubkey != nil {
			draft.AgentPubkey = *upd.AgentPubkey
		}
		if upd.RefConversationID != nil {
			draft.RefConversationID = *upd.RefConversationID
		}
		if upd.RefReportID != nil {
			draft.RefReportID = *upd.RefReportID
		}
		if upd.ActionIDs != nil {
			draft.SetActionIDs(upd.ActionIDs)
		}
		draft.Touch()
		(*col)[scope.Key()] = draft
		out = draft.Clone()
		return true
	})
	return out, err
}

// ClearContent resets the scope's draft after a successful send: content,
// title, and the reference-conversation link are cleared while the agent
// selection and action set survive for the next message. Absent scopes are
// a no-op.
func (d *Drafts) ClearContent(ctx context.Context, scope record.DraftScope) error {
	return d.mgr.Mutate(ctx, func(col *record.DraftMap) bool {
		draft, ok := (*col)[scope.Key()]
		if !ok {
			return false
		}
		draft.Content = ""
		draft.Title = ""
		draft.RefConversationID = ""
		draft.Touch()
		(*col)[scope.Key()] = draft
		return true
	})
}

// Delete removes the scope's draft. Deleting an absent scope is a no-op.
func (d *Drafts) Delete(ctx context.Context, scope record.DraftScope) error {
	return d.mgr.Mutate(ctx, func(col *record.DraftMap) bool {
		if _, ok := (*col)[scope.Key()]; !ok {
			return false
		}
		delete(*col, scope.Key())
		return true
	})
}

// ForProject returns the project's drafts, most recently edited first.
func (d *Drafts) ForProject(ctx context.Context, projectID string) ([]record.Draft, error) {
	snap, err := d.mgr.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var out []record.Draft
	for _, draft := range snap {
		if draft.ProjectID == projectID {
			out = append(out, draft)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastEdited != out[j].LastEdited {
			return out[i].LastEdited > out[j].LastEdited
		}
		return out[i].Scope().Key() < out[j].Scope().Key()
	})
	return out, nil
}

// All returns a copy of the whole collection keyed by scope.
func (d *Drafts) All(ctx context.Context) (record.DraftMap, error) {
	return d.mgr.Snapshot(ctx)
}

// SweepOrphans removes drafts that have no content and were last edited
// before now-maxAge. Drafts with content are never swept, whatever their
// age. Returns the number removed.
func (d *Drafts) SweepOrphans(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	removed := 0
	err := d.mgr.Mutate(ctx, func(col *record.DraftMap) bool {
		for key, draft := range *col {
			if !draft.HasContent() && draft.LastEdited < cutoff {
				delete(*col, key)
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

// RestoreMissing merges drafts from another collection, skipping scope keys
// that already exist. Used by import. Returns the number inserted.
func (d *Drafts) RestoreMissing(ctx context.Context, src record.DraftMap) (int, error) {
	inserted := 0
	err := d.mgr.Mutate(ctx, func(col *record.DraftMap) bool {
		for key, draft := range src {
			if _, ok := (*col)[key]; ok {
				continue
			}
			(*col)[key] = draft.Clone()
			inserted++
		}
		return inserted > 0
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// SaveNow flushes the collection immediately, superseding a pending save.
func (d *Drafts) SaveNow(ctx context.Context) error { return d.mgr.SaveNow(ctx) }

// LoadFailed reports whether the initial load failed.
func (d *Drafts) LoadFailed() bool { return d.mgr.LoadFailed() }

// SavePending reports whether a debounced save is waiting.
func (d *Drafts) SavePending() bool { return d.mgr.SavePending() }

// LastSaveErr returns the most recent save failure, if any.
func (d *Drafts) LastSaveErr() error { return d.mgr.LastSaveErr() }

// Status summarizes the manager for status surfaces.
func (d *Drafts) Status(ctx context.Context) (ManagerStatus, error) {
	snap, err := d.mgr.Snapshot(ctx)
	if err != nil {
		return ManagerStatus{}, err
	}
	return managerStatus(d.mgr, len(snap)), nil
}
