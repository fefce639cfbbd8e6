package content

import (
	"context"
	"time"

	"github.com/tenex-chat/inkwell/internal/export"
)

// BuildArchive snapshots every collection into a portable archive.
func (v *Vault) BuildArchive(ctx context.Context) (export.Archive, error) {
	a := export.Archive{ExportedAt: time.Now().Unix()}

	var err error
	if a.Drafts, err = v.Drafts.All(ctx); err != nil {
		return export.Archive{}, err
	}
	if a.Named, err = v.Named.All(ctx); err != nil {
		return export.Archive{}, err
	}
	if a.Prompts, err = v.Prompts.List(ctx); err != nil {
		return export.Archive{}, err
	}
	if a.Snapshots, err = v.Snapshots.All(ctx); err != nil {
		return export.Archive{}, err
	}
	return a, nil
}

// ImportCounts reports how many records an import inserted per family.
type ImportCounts struct {
	Drafts    int `json:"drafts"`
	Named     int `json:"named_drafts"`
	Prompts   int `json:"pinned_prompts"`
	Snapshots int `json:"publish_snapshots"`
}

// Total sums the per-family counts.
func (c ImportCounts) Total() int {
	return c.Drafts + c.Named + c.Prompts + c.Snapshots
}

// ImportArchive merges archive records into the vault. Records whose scope
// key or id already exists are skipped, import never overwrites live data.
func (v *Vault) ImportArchive(ctx context.Context, a export.Archive) (ImportCounts, error) {
	var counts ImportCounts
	var err error

	if counts.Drafts, err = v.Drafts.RestoreMissing(ctx, a.Drafts); err != nil {
		return counts, err
	}
	for _, nd := range a.Named {
		inserted, err := v.Named.Restore(ctx, nd)
		if err != nil {
			return counts, err
		}
		if inserted {
			counts.Named++
		}
	}
	for _, prompt := range a.Prompts {
		inserted, err := v.Prompts.Restore(ctx, prompt)
		if err != nil {
			return counts, err
		}
		if inserted {
			counts.Prompts++
		}
	}
	if counts.Snapshots, err = v.Snapshots.ImportMissing(ctx, a.Snapshots); err != nil {
		return counts, err
	}
	return counts, nil
}
