package content

import (
	"context"
	"path/filepath"
	"time"

	"github.com/tenex-chat/inkwell/internal/errors"
	"github.com/tenex-chat/inkwell/internal/logging"
	"github.com/tenex-chat/inkwell/internal/persist"
	"github.com/tenex-chat/inkwell/internal/record"
)

// PromptsFile is the fixed file name for the pinned-prompt collection.
const PromptsFile = "pinned_prompts.json"

// Prompts manages pinned prompts. The stored list is kept in display order
// at all times: most recently used first, then most recently modified, then
// title, then id. Like named drafts, the collection blocks saving after a
// failed load.
type Prompts struct {
	mgr *persist.Manager[record.PromptList]
}

// NewPrompts creates the pinned-prompt manager over dir. Call Open before
// use.
func NewPrompts(dir string, interval time.Duration, log logging.Logger) *Prompts {
	store := persist.NewStore[record.PromptList](filepath.Join(dir, PromptsFile), log)
	return &Prompts{
		mgr: persist.NewManager[record.PromptList](store, persist.QuarantineAndBlock, interval, log),
	}
}

// Open loads the collection and normalizes its order, older files may
// predate a sorting rule change.
func (p *Prompts) Open(ctx context.Context) error {
	if err := p.mgr.Open(ctx); err != nil {
		return err
	}
	return p.mgr.Mutate(ctx, func(col *record.PromptList) bool {
		if col.IsSorted() {
			return false
		}
		col.Sort()
		return true
	})
}

// Close flushes any pending save and stops the manager.
func (p *Prompts) Close() error { return p.mgr.Close() }

// Pin stores a new prompt. Title and text are trimmed and must be
// non-empty.
func (p *Prompts) Pin(ctx context.Context, title, text string) (record.PinnedPrompt, error) {
	prompt, err := record.NewPinnedPrompt(title, text)
	if err != nil {
		return record.PinnedPrompt{}, err
	}
	err = p.mgr.Mutate(ctx, func(col *record.PromptList) bool {
		*col = append(*col, prompt)
		col.Sort()
		return true
	})
	if err != nil {
		return record.PinnedPrompt{}, err
	}
	return prompt, nil
}

// Restore inserts a fully-formed prompt, keeping its id and stamps. Used by
// import. Prompts whose id already exists are skipped.
func (p *Prompts) Restore(ctx context.Context, prompt record.PinnedPrompt) (bool, error) {
	inserted := false
	err := p.mgr.Mutate(ctx, func(col *record.PromptList) bool {
		for _, existing := range *col {
			if existing.ID == prompt.ID {
				return false
			}
		}
		*col = append(*col, prompt)
		col.Sort()
		inserted = true
		return true
	})
	return inserted, err
}

// List returns all prompts in display order.
func (p *Prompts) List(ctx context.Context) (record.PromptList, error) {
	return p.mgr.Snapshot(ctx)
}

// Get returns the prompt with the given id.
func (p *Prompts) Get(ctx context.Context, id string) (record.PinnedPrompt, error) {
	snap, err := p.mgr.Snapshot(ctx)
	if err != nil {
		return record.PinnedPrompt{}, err
	}
	for _, prompt := range snap {
		if prompt.ID == id {
			return prompt, nil
		}
	}
	return record.PinnedPrompt{}, errors.NewNotFound(id)
}

// MarkUsed stamps the prompt as used now and moves it to its new position.
// Marking an unknown id is an error.
func (p *Prompts) MarkUsed(ctx context.Context, id string) (record.PinnedPrompt, error) {
	var out record.PinnedPrompt
	found := false
	err := p.mgr.Mutate(ctx, func(col *record.PromptList) bool {
		for i := range *col {
			if (*col)[i].ID == id {
				(*col)[i].MarkUsed()
				out = (*col)[i]
				found = true
				col.Sort()
				return true
			}
		}
		return false
	})
	if err != nil {
		return record.PinnedPrompt{}, err
	}
	if !found {
		return record.PinnedPrompt{}, errors.NewNotFound(id)
	}
	return out, nil
}

// Delete removes the prompt with the given id. Unknown ids are a no-op.
func (p *Prompts) Delete(ctx context.Context, id string) error {
	return p.mgr.Mutate(ctx, func(col *record.PromptList) bool {
		for i := range *col {
			if (*col)[i].ID == id {
				*col = append((*col)[:i], (*col)[i+1:]...)
				return true
			}
		}
		return false
	})
}

// SaveNow flushes the collection immediately.
func (p *Prompts) SaveNow(ctx context.Context) error { return p.mgr.SaveNow(ctx) }

// LoadFailed reports whether the initial load failed.
func (p *Prompts) LoadFailed() bool { return p.mgr.LoadFailed() }

// Status summarizes the manager for status surfaces.
func (p *Prompts) Status(ctx context.Context) (ManagerStatus, error) {
	snap, err := p.mgr.Snapshot(ctx)
	if err != nil {
		return ManagerStatus{}, err
	}
	return managerStatus(p.mgr, len(snap)), nil
}
