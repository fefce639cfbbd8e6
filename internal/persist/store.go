// Package persist implements the generic persistence engine: a Store that
// translates one collection to one JSON file with atomic writes and
// corruption quarantine, and a Manager that owns the in-memory collection
// and coalesces mutations into debounced saves.
package persist

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tenex-chat/inkwell/internal/errors"
	"github.com/tenex-chat/inkwell/internal/logging"
)

// Store owns a single JSON file holding one record collection. It is
// stateless between calls; all calls are serialized so load and save never
// race on the file. Only one Store instance may own a given path.
type Store[C any] struct {
	path       string
	log        logging.Logger
	decodeHook func([]byte) []byte

	mu sync.Mutex
}

// NewStore creates a store for the collection file at path.
func NewStore[C any](path string, log logging.Logger) *Store[C] {
	return &Store[C]{path: path, log: log}
}

// SetDecodeHook installs a raw-bytes transform applied before decoding.
// Used to unwrap legacy container formats.
func (s *Store[C]) SetDecodeHook(hook func([]byte) []byte) {
	s.decodeHook = hook
}

// Path returns the full path of the store's file.
func (s *Store[C]) Path() string {
	return s.path
}

// Name returns the base name of the store's file.
func (s *Store[C]) Name() string {
	return filepath.Base(s.path)
}

// Load reads the collection from disk. A missing file is not a failure: it
// returns the zero collection. A file that exists but does not decode is
// quarantined (renamed aside with its bytes intact) and reported through
// loadFailed. Only unreadable files produce an error.
func (s *Store[C]) Load() (records C, loadFailed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero C
	file, err := openFileNoFollowRead(s.path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("failed to read %s: %w", s.Name(), err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return zero, false, fmt.Errorf("failed to read %s: %w", s.Name(), err)
	}

	raw := data
	if s.decodeHook != nil {
		raw = s.decodeHook(raw)
	}

	if err := json.Unmarshal(raw, &records); err != nil {
		qPath, qErr := s.quarantineLocked()
		if qErr != nil {
			return zero, false, fmt.Errorf("failed to quarantine %s after decode failure: %w", s.Name(), qErr)
		}
		s.log.Warn("quarantined unreadable collection file",
			logging.String("file", s.Name()),
			logging.String("quarantine", filepath.Base(qPath)),
			logging.Error(err))
		return zero, true, nil
	}

	return records, false, nil
}

// Save serializes the full collection and atomically replaces the canonical
// file. When allow is false it fails with a SaveForbidden error and performs
// no I/O at all.
func (s *Store[C]) Save(records C, allow bool) error {
	if !allow {
		return errors.NewSaveForbidden(s.Name())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.Name(), err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.Name(), err)
	}
	return nil
}

// quarantineLocked renames the canonical file aside, embedding a capture
// timestamp: message_drafts.json becomes
// message_drafts.corrupted-1756080000.json. The caller holds s.mu.
func (s *Store[C]) quarantineLocked() (string, error) {
	ext := filepath.Ext(s.path)
	stem := strings.TrimSuffix(s.path, ext)
	qPath := fmt.Sprintf("%s.corrupted-%d%s", stem, time.Now().Unix(), ext)
	if err := os.Rename(s.path, qPath); err != nil {
		return "", err
	}
	return qPath, nil
}
