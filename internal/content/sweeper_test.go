package content

import (
	"context"
	"testing"
	"time"

	"github.com/tenex-chat/inkwell/internal/logging"
	"github.com/tenex-chat/inkwell/internal/record"
)

func TestSweeper_PeriodicSweep(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	d := newTestDrafts(t, dir)
	s := newTestSnapshots(t, dir)

	sw := NewSweeper(d, s, 30*time.Millisecond, 24*time.Hour, 24*time.Hour, logging.Nop())
	sw.Start(ctx)
	defer sw.Stop()

	// Plant a stale orphan after the initial sweep; a later tick must catch it.
	old := time.Now().Add(-48 * time.Hour).Unix()
	err := d.mgr.Mutate(ctx, func(col *record.DraftMap) bool {
		stale := record.NewDraft(record.NewConversationScope("p1"))
		stale.LastEdited = old
		(*col)[stale.Scope().Key()] = stale
		return true
	})
	if err != nil {
		t.Fatalf("fixture mutate error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		all, err := d.All(ctx)
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		if _, ok := all["new-p1"]; !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("periodic sweep never removed the stale draft")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSweeper_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	d := newTestDrafts(t, dir)
	s := newTestSnapshots(t, dir)

	sw := NewSweeper(d, s, time.Hour, 24*time.Hour, 24*time.Hour, logging.Nop())
	sw.Start(context.Background())
	sw.Stop()
	sw.Stop()
}
