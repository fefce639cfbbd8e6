package content

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/tenex-chat/inkwell/internal/errors"
	"github.com/tenex-chat/inkwell/internal/logging"
	"github.com/tenex-chat/inkwell/internal/persist"
	"github.com/tenex-chat/inkwell/internal/record"
)

// NamedDraftsFile is the fixed file name for the saved-draft collection.
const NamedDraftsFile = "named_drafts.json"

// NamedDrafts manages explicitly saved drafts. The collection blocks saving
// after a failed load: these records were deliberately kept by the user, so
// silently replacing a quarantined file would destroy them twice.
type NamedDrafts struct {
	mgr *persist.Manager[record.NamedDraftList]
}

// NewNamedDrafts creates the saved-draft manager over dir. Call Open before
// use.
func NewNamedDrafts(dir string, interval time.Duration, log logging.Logger) *NamedDrafts {
	store := persist.NewStore[record.NamedDraftList](filepath.Join(dir, NamedDraftsFile), log)
	return &NamedDrafts{
		mgr: persist.NewManager[record.NamedDraftList](store, persist.QuarantineAndBlock, interval, log),
	}
}

// Open loads the collection.
func (n *NamedDrafts) Open(ctx context.Context) error { return n.mgr.Open(ctx) }

// Close flushes any pending save and stops the manager.
func (n *NamedDrafts) Close() error { return n.mgr.Close() }

// Create saves text as a new named draft for the project. The name derives
// from the first line of the text. The new record goes to the front of the
// list so recent saves surface first even before a re-sort.
func (n *NamedDrafts) Create(ctx context.Context, text, projectID string) (record.NamedDraft, error) {
	nd := record.NewNamedDraft(text, projectID)
	err := n.mgr.Mutate(ctx, func(col *record.NamedDraftList) bool {
		*col = append(record.NamedDraftList{nd}, *col...)
		return true
	})
	if err != nil {
		return record.NamedDraft{}, err
	}
	return nd, nil
}

// Restore inserts a fully-formed record, keeping its id and stamps. Used by
// import. Records whose id already exists are skipped.
func (n *NamedDrafts) Restore(ctx context.Context, nd record.NamedDraft) (bool, error) {
	inserted := false
	err := n.mgr.Mutate(ctx, func(col *record.NamedDraftList) bool {
		for _, existing := range *col {
			if existing.ID == nd.ID {
				return false
			}
		}
		*col = append(*col, nd)
		inserted = true
		return true
	})
	return inserted, err
}

// Get returns the named draft with the given id.
func (n *NamedDrafts) Get(ctx context.Context, id string) (record.NamedDraft, error) {
	snap, err := n.mgr.Snapshot(ctx)
	if err != nil {
		return record.NamedDraft{}, err
	}
	for _, nd := range snap {
		if nd.ID == id {
			return nd, nil
		}
	}
	return record.NamedDraft{}, errors.NewNotFound(id)
}

// UpdateText replaces the draft's text, re-deriving its name and bumping
// LastModified. Updating an unknown id is an error.
func (n *NamedDrafts) UpdateText(ctx context.Context, id, text string) (record.NamedDraft, error) {
	var out record.NamedDraft
	found := false
	err := n.mgr.Mutate(ctx, func(col *record.NamedDraftList) bool {
		for i := range *col {
			if (*col)[i].ID == id {
				(*col)[i].UpdateText(text)
				out = (*col)[i]
				found = true
				return true
			}
		}
		return false
	})
	if err != nil {
		return record.NamedDraft{}, err
	}
	if !found {
		return record.NamedDraft{}, errors.NewNotFound(id)
	}
	return out, nil
}

// Delete removes the named draft with the given id. Unknown ids are a
// no-op.
func (n *NamedDrafts) Delete(ctx context.Context, id string) error {
	return n.mgr.Mutate(ctx, func(col *record.NamedDraftList) bool {
		for i := range *col {
			if (*col)[i].ID == id {
				*col = append((*col)[:i], (*col)[i+1:]...)
				return true
			}
		}
		return false
	})
}

// ForProject returns the project's named drafts, most recently modified
// first. The sort is stable so same-stamp records keep their stored order.
func (n *NamedDrafts) ForProject(ctx context.Context, projectID string) (record.NamedDraftList, error) {
	snap, err := n.mgr.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var out record.NamedDraftList
	for _, nd := range snap {
		if nd.ProjectID == projectID {
			out = append(out, nd)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastModified > out[j].LastModified
	})
	return out, nil
}

// All returns a copy of the whole collection in stored order.
func (n *NamedDrafts) All(ctx context.Context) (record.NamedDraftList, error) {
	return n.mgr.Snapshot(ctx)
}

// SaveNow flushes the collection immediately.
func (n *NamedDrafts) SaveNow(ctx context.Context) error { return n.mgr.SaveNow(ctx) }

// LoadFailed reports whether the initial load failed.
func (n *NamedDrafts) LoadFailed() bool { return n.mgr.LoadFailed() }

// Status summarizes the manager for status surfaces.
func (n *NamedDrafts) Status(ctx context.Context) (ManagerStatus, error) {
	snap, err := n.mgr.Snapshot(ctx)
	if err != nil {
		return ManagerStatus{}, err
	}
	return managerStatus(n.mgr, len(snap)), nil
}
