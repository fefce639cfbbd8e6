package content

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/tenex-chat/inkwell/internal/config"
	"github.com/tenex-chat/inkwell/internal/errors"
	"github.com/tenex-chat/inkwell/internal/logging"
	"github.com/tenex-chat/inkwell/internal/record"
)

// Vault owns the four collection managers and their shared lifecycle. All
// consumer surfaces (MCP tools, CLI, web viewer) go through a single Vault.
type Vault struct {
	baseDir string
	cfg     config.Config
	log     logging.Logger

	Drafts    *Drafts
	Named     *NamedDrafts
	Prompts   *Prompts
	Snapshots *Snapshots

	sweeper *Sweeper
}

// New builds a vault rooted at baseDir. Nothing touches the disk until
// Open.
func New(baseDir string, cfg config.Config, log logging.Logger) *Vault {
	interval := cfg.DebounceInterval()
	return &Vault{
		baseDir:   baseDir,
		cfg:       cfg,
		log:       log,
		Drafts:    NewDrafts(baseDir, interval, log),
		Named:     NewNamedDrafts(baseDir, interval, log),
		Prompts:   NewPrompts(baseDir, interval, log),
		Snapshots: NewSnapshots(baseDir, interval, log),
	}
}

// BaseDir returns the directory holding the collection files.
func (v *Vault) BaseDir() string { return v.baseDir }

// Open loads every collection, migrates publish snapshots out of a legacy
// drafts container if one is present, and starts the background sweeper
// when the configured interval is positive. Collections that fail to load
// are quarantined by their managers; Open itself only fails on filesystem
// errors or a cancelled context.
func (v *Vault) Open(ctx context.Context) error {
	// Raw legacy bytes must be captured before the drafts manager's first
	// save rewrites the file in the flat shape.
	legacyRaw, _ := os.ReadFile(filepath.Join(v.baseDir, DraftsFile))

	if err := v.Drafts.Open(ctx); err != nil {
		return err
	}
	if err := v.Named.Open(ctx); err != nil {
		return err
	}
	if err := v.Prompts.Open(ctx); err != nil {
		return err
	}
	if err := v.Snapshots.Open(ctx); err != nil {
		return err
	}

	if snaps := extractLegacySnapshots(legacyRaw); len(snaps) > 0 {
		n, err := v.Snapshots.ImportMissing(ctx, snaps)
		if err != nil {
			v.log.Warn("legacy publish snapshot migration failed", logging.Error(err))
		} else if n > 0 {
			v.log.Info("migrated publish snapshots from legacy drafts file", logging.Int("count", n))
		}
	}

	if interval := v.cfg.SweepInterval(); interval > 0 {
		v.sweeper = NewSweeper(v.Drafts, v.Snapshots, interval,
			v.cfg.DraftMaxAge(), v.cfg.SnapshotGrace(), v.log)
		v.sweeper.Start(ctx)
	}
	return nil
}

// BeginPublish snapshots the scope's draft content and clears the draft for
// the next message. The snapshot survives until the publish is confirmed
// and its grace period passes, so a crash between send and confirmation
// cannot lose the text. Scopes without content are rejected.
func (v *Vault) BeginPublish(ctx context.Context, scope record.DraftScope) (record.PublishSnapshot, error) {
	draft, ok, err := v.Drafts.Lookup(ctx, scope)
	if err != nil {
		return record.PublishSnapshot{}, err
	}
	if !ok || !draft.HasContent() {
		return record.PublishSnapshot{}, errors.NewInvalidRequest("draft has no content to publish")
	}

	snap, err := v.Snapshots.Create(ctx, draft.ConversationID, draft.Content)
	if err != nil {
		return record.PublishSnapshot{}, err
	}
	if err := v.Drafts.ClearContent(ctx, scope); err != nil {
		return snap, err
	}
	return snap, nil
}

// SaveAllNow flushes every collection immediately. Each manager is tried
// even when an earlier one fails; the failures come back joined.
func (v *Vault) SaveAllNow(ctx context.Context) error {
	return stderrors.Join(
		v.Drafts.SaveNow(ctx),
		v.Named.SaveNow(ctx),
		v.Prompts.SaveNow(ctx),
		v.Snapshots.SaveNow(ctx),
	)
}

// Close stops the sweeper and closes every manager, flushing pending saves.
func (v *Vault) Close() error {
	if v.sweeper != nil {
		v.sweeper.Stop()
	}
	return stderrors.Join(
		v.Drafts.Close(),
		v.Named.Close(),
		v.Prompts.Close(),
		v.Snapshots.Close(),
	)
}

// VaultStatus reports the health of every collection for status surfaces.
type VaultStatus struct {
	BaseDir     string          `json:"base_dir"`
	Collections []ManagerStatus `json:"collections"`
}

// Status collects the per-manager summaries.
func (v *Vault) Status(ctx context.Context) (VaultStatus, error) {
	out := VaultStatus{BaseDir: v.baseDir}
	for _, status := range []func(context.Context) (ManagerStatus, error){
		v.Drafts.Status, v.Named.Status, v.Prompts.Status, v.Snapshots.Status,
	} {
		st, err := status(ctx)
		if err != nil {
			return VaultStatus{}, err
		}
		out.Collections = append(out.Collections, st)
	}
	return out, nil
}
