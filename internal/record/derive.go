package record

import (
	"crypto/rand"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// nameMaxRunes caps auto-derived names.
	nameMaxRunes = 50

	// previewMaxRunes caps single-line previews.
	previewMaxRunes = 100

	// Untitled is the placeholder name for content with an empty first line.
	Untitled = "Untitled"
)

// NewID generates a ULID string. ULIDs sort lexicographically by creation
// time, which keeps id-based tiebreaks stable.
func NewID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// DeriveName derives a display name from text: the first line, trimmed,
// capped at 50 runes with an ellipsis when truncated. Empty results become
// "Untitled".
func DeriveName(text string) string {
	firstLine := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		firstLine = text[:idx]
	}
	firstLine = strings.TrimSpace(firstLine)
	if firstLine == "" {
		return Untitled
	}

	runes := []rune(firstLine)
	if len(runes) > nameMaxRunes {
		return string(runes[:nameMaxRunes]) + "..."
	}
	return firstLine
}

// Preview flattens text to a single line (newlines become spaces), capped at
// 100 runes with an ellipsis when longer.
func Preview(text string) string {
	singleLine := strings.ReplaceAll(text, "\n", " ")
	runes := []rune(singleLine)
	if len(runes) > previewMaxRunes {
		return string(runes[:previewMaxRunes]) + "..."
	}
	return singleLine
}

// normalizeIDSet trims, deduplicates, and sorts a set of ids so equal sets
// always serialize identically.
func normalizeIDSet(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
