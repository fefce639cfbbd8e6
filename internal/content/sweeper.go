package content

import (
	"context"
	"sync"
	"time"

	"github.com/tenex-chat/inkwell/internal/logging"
)

// Sweeper periodically removes content-less drafts past their age limit and
// confirmed publish snapshots past the recovery grace period.
type Sweeper struct {
	drafts    *Drafts
	snapshots *Snapshots
	interval  time.Duration
	maxAge    time.Duration
	grace     time.Duration
	log       logging.Logger

	stopCh  chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// NewSweeper creates a sweeper over the given managers. interval must be
// positive; maxAge bounds orphan drafts and grace bounds confirmed
// snapshots.
func NewSweeper(drafts *Drafts, snapshots *Snapshots, interval, maxAge, grace time.Duration, log logging.Logger) *Sweeper {
	return &Sweeper{
		drafts:    drafts,
		snapshots: snapshots,
		interval:  interval,
		maxAge:    maxAge,
		grace:     grace,
		log:       log,
		stopCh:    make(chan struct{}),
	}
}

// Start runs one sweep immediately, then sweeps on every interval tick until
// Stop is called or ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.sweep(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the periodic sweeps and waits for an in-flight sweep to finish.
// Safe to call more than once.
func (s *Sweeper) Stop() {
	s.stopped.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Sweeper) sweep(ctx context.Context) {
	removedDrafts, err := s.drafts.SweepOrphans(ctx, s.maxAge)
	if err != nil {
		s.log.Warn("orphan draft sweep failed", logging.Error(err))
	}
	removedSnaps, err := s.snapshots.CleanupConfirmed(ctx, s.grace)
	if err != nil {
		s.log.Warn("publish snapshot cleanup failed", logging.Error(err))
	}
	if removedDrafts > 0 || removedSnaps > 0 {
		s.log.Info("sweep removed stale records",
			logging.Int("orphan_drafts", removedDrafts),
			logging.Int("confirmed_snapshots", removedSnaps))
	}
}
