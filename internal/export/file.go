package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tenex-chat/inkwell/internal/persist"
)

// WriteFile renders the archive and writes it to path atomically, creating
// parent directories as needed. A failure leaves any existing file at path
// untouched.
func WriteFile(path string, e Exporter, a Archive) error {
	var buf bytes.Buffer
	if err := e.Write(&buf, a); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return persist.WriteFileAtomic(path, buf.Bytes())
}

// DefaultPath builds the default export destination:
// <baseDir>/exports/inkwell-<timestamp><ext>.
func DefaultPath(baseDir string, e Exporter, now time.Time) string {
	name := fmt.Sprintf("inkwell-%s%s", now.Format("2006-01-02T150405"), e.Extension())
	return filepath.Join(baseDir, "exports", name)
}

// ReadJSONLFile opens and parses a jsonl export file.
func ReadJSONLFile(path string) (Archive, []LineError, error) {
	file, err := os.Open(path)
	if err != nil {
		return Archive{}, nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer file.Close()

	a, lineErrors := ParseJSONL(file)
	return a, lineErrors, nil
}
