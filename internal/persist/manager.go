package persist

import (
	"context"
	"sync"
	"time"

	"github.com/tenex-chat/inkwell/internal/errors"
	"github.com/tenex-chat/inkwell/internal/logging"
)

// Policy selects how a manager treats saves after a failed load.
type Policy int

const (
	// BestEffort keeps attempting saves even after a prior load failure.
	BestEffort Policy = iota

	// QuarantineAndBlock permanently refuses saves for the rest of the
	// session once a load failure has been observed, so the manager can
	// never overwrite whatever the user might recover from the
	// quarantined file.
	QuarantineAndBlock
)

// String returns the policy name used in status output.
func (p Policy) String() string {
	switch p {
	case QuarantineAndBlock:
		return "quarantine_and_block"
	default:
		return "best_effort"
	}
}

// State is the manager lifecycle state.
type State int

const (
	StateNotLoaded State = iota
	StateLoading
	StateReady
	StateReadyLoadFailed
)

// String returns the state name used in status output.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateReadyLoadFailed:
		return "ready_load_failed"
	default:
		return "not_loaded"
	}
}

// Collection constrains the collection types a Manager can own. Clone must
// return a deep copy; for map collections it must also return a non-nil map
// when the receiver is nil, so a zero value loaded from an absent file is
// usable immediately.
type Collection[C any] interface {
	Clone() C
}

// Storage is the store contract a Manager depends on. *Store satisfies it;
// tests substitute instrumented implementations.
type Storage[C any] interface {
	Load() (records C, loadFailed bool, err error)
	Save(records C, allow bool) error
	Name() string
}

// Manager owns the authoritative in-memory collection for one record family
// and coalesces mutations into debounced saves against its Store. Construct
// it once per file; the collection is reachable only through its methods,
// which hand out copies.
type Manager[C Collection[C]] struct {
	store    Storage[C]
	policy   Policy
	interval time.Duration
	log      logging.Logger

	mu          sync.Mutex
	state       State
	col         C
	loadFailed  bool
	loadErr     error
	savePending bool
	saveGen     uint64
	lastSaveErr error
	closed      bool

	loaded  chan struct{}
	closing chan struct{}

	// saveMu serializes save execution so a superseded snapshot can never
	// land after a newer one.
	saveMu sync.Mutex
	wg     sync.WaitGroup
}

// NewManager creates a manager over the store. interval is the debounce
// quiescence delay. The manager is inert until Open is called.
func NewManager[C Collection[C]](store Storage[C], policy Policy, interval time.Duration, log logging.Logger) *Manager[C] {
	return &Manager[C]{
		store:    store,
		policy:   policy,
		interval: interval,
		log:      log,
		loaded:   make(chan struct{}),
		closing:  make(chan struct{}),
	}
}

// Open performs the one-time load and marks the manager ready. Load failures
// of any kind are absorbed into manager state, never returned: after Open the
// manager is always usable, possibly with an empty collection and the
// loadFailed flag set. Calling Open again waits for the first call to finish.
func (m *Manager[C]) Open(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.NewNotReady(m.store.Name() + " manager is closed")
	}
	if m.state != StateNotLoaded {
		m.mu.Unlock()
		return m.waitReady(ctx)
	}
	m.state = StateLoading
	m.mu.Unlock()

	records, failed, err := m.store.Load()

	m.mu.Lock()
	switch {
	case err != nil:
		// Unreadable file: treated like corruption for policy purposes,
		// with the error retained for observability.
		m.loadFailed = true
		m.loadErr = err
		m.state = StateReadyLoadFailed
		m.log.Warn("load failed",
			logging.String("file", m.store.Name()),
			logging.Error(err))
	case failed:
		m.loadFailed = true
		m.state = StateReadyLoadFailed
	default:
		m.col = records
		m.state = StateReady
	}
	// Normalize nil map/slice zero values into usable empties.
	m.col = m.col.Clone()
	close(m.loaded)
	m.mu.Unlock()
	return nil
}

// waitReady blocks until the initial load has finished. It fails fast when
// the manager was never opened rather than waiting forever.
func (m *Manager[C]) waitReady(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateNotLoaded {
		m.mu.Unlock()
		return errors.NewNotReady(m.store.Name() + " manager is not opened")
	}
	m.mu.Unlock()

	select {
	case <-m.loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Mutate runs fn against the collection under the manager lock. When fn
// reports a change, a debounced save is scheduled with a snapshot taken
// immediately, superseding any save still waiting on its quiescence delay.
// fn must not retain the pointer past its return.
func (m *Manager[C]) Mutate(ctx context.Context, fn func(col *C) bool) error {
	if err := m.waitReady(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.NewNotReady(m.store.Name() + " manager is closed")
	}
	if fn(&m.col) {
		m.scheduleSaveLocked()
	}
	return nil
}

// Snapshot returns a deep copy of the current collection.
func (m *Manager[C]) Snapshot(ctx context.Context) (C, error) {
	var zero C
	if err := m.waitReady(ctx); err != nil {
		return zero, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.col.Clone(), nil
}

// SaveNow cancels any pending debounced save and writes the current snapshot
// immediately, returning the store error directly. Used before shutdown or
// app suspension.
func (m *Manager[C]) SaveNow(ctx context.Context) error {
	if err := m.waitReady(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.NewNotReady(m.store.Name() + " manager is closed")
	}
	m.saveGen++
	gen := m.saveGen
	snap := m.col.Clone()
	m.savePending = true
	m.mu.Unlock()

	return m.runSave(gen, snap)
}

// Close flushes any pending save and stops the manager. Further operations
// fail with a not-ready error. Close is idempotent; the first call's flush
// error is returned.
func (m *Manager[C]) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	flush := m.savePending
	var gen uint64
	var snap C
	if flush {
		m.saveGen++
		gen = m.saveGen
		snap = m.col.Clone()
	}
	close(m.closing)
	m.mu.Unlock()

	var err error
	if flush {
		err = m.runSave(gen, snap)
	}
	m.wg.Wait()
	return err
}

// scheduleSaveLocked captures the current generation and snapshot and starts
// the quiescence timer. The caller holds m.mu. A newer schedule bumps the
// generation, which makes this task abort silently when it wakes.
func (m *Manager[C]) scheduleSaveLocked() {
	m.saveGen++
	gen := m.saveGen
	snap := m.col.Clone()
	m.savePending = true

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		timer := time.NewTimer(m.interval)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-m.closing:
			// Close flushes the latest snapshot itself.
			return
		}
		m.runSave(gen, snap)
	}()
}

// runSave writes snap if gen is still the latest generation. Execution is
// serialized by saveMu; the generation re-check inside it guarantees an old
// snapshot never lands after a newer one.
func (m *Manager[C]) runSave(gen uint64, snap C) error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.Lock()
	if gen != m.saveGen {
		m.mu.Unlock()
		return nil
	}
	allow := m.policy == BestEffort || !m.loadFailed
	m.mu.Unlock()

	err := m.store.Save(snap, allow)

	m.mu.Lock()
	if gen == m.saveGen {
		m.savePending = false
		m.lastSaveErr = err
	}
	m.mu.Unlock()

	if err != nil {
		m.log.Warn("save failed",
			logging.String("file", m.store.Name()),
			logging.Error(err))
	}
	return err
}

// State returns the lifecycle state.
func (m *Manager[C]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LoadFailed reports whether the initial load failed and the collection
// started empty.
func (m *Manager[C]) LoadFailed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadFailed
}

// LoadErr returns the I/O error from the initial load, if any. Quarantined
// decode failures set LoadFailed without an error.
func (m *Manager[C]) LoadErr() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadErr
}

// SavePending reports whether a scheduled save has not yet completed.
func (m *Manager[C]) SavePending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.savePending
}

// LastSaveErr returns the most recent save error. A successful save clears
// it. A failed save never rolls back in-memory state; the collection stays
// the source of truth.
func (m *Manager[C]) LastSaveErr() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSaveErr
}

// Policy returns the manager's failure policy.
func (m *Manager[C]) Policy() Policy {
	return m.policy
}

// FileName returns the base name of the backing file.
func (m *Manager[C]) FileName() string {
	return m.store.Name()
}
