package record

import (
	"sort"
	"strings"
	"time"

	"github.com/tenex-chat/inkwell/internal/errors"
)

// PinnedPrompt is a durable, explicitly titled snippet. Unlike named drafts,
// both title and text come from the user and must be non-empty.
type PinnedPrompt struct {
	// ID is a ULID; callers may override it for migration
	ID string `json:"id"`

	// Title is the user-provided title, trimmed
	Title string `json:"title"`

	// Text is the prompt body, trimmed
	Text string `json:"text"`

	// CreatedAt is the Unix timestamp of creation
	CreatedAt int64 `json:"created_at"`

	// LastModified is the Unix timestamp of the last change
	LastModified int64 `json:"last_modified"`

	// LastUsedAt is the Unix timestamp of the last use, 0 if never used
	LastUsedAt int64 `json:"last_used_at"`
}

// NewPinnedPrompt constructs a prompt from a title and text. Both are
// trimmed; empty results are rejected.
func NewPinnedPrompt(title, text string) (PinnedPrompt, error) {
	title = strings.TrimSpace(title)
	text = strings.TrimSpace(text)
	if title == "" {
		return PinnedPrompt{}, errors.NewInvalidRequest("prompt title must not be empty")
	}
	if text == "" {
		return PinnedPrompt{}, errors.NewInvalidRequest("prompt text must not be empty")
	}

	now := time.Now().Unix()
	return PinnedPrompt{
		ID:           NewID(),
		Title:        title,
		Text:         text,
		CreatedAt:    now,
		LastModified: now,
	}, nil
}

// MarkUsed stamps LastUsedAt and LastModified with the current time.
func (p *PinnedPrompt) MarkUsed() {
	now := time.Now().Unix()
	p.LastUsedAt = now
	p.LastModified = now
}

// PromptLess is the total order for prompts: most recently used first, then
// most recently modified, then title ascending case-insensitive, then id
// ascending. The last two tiebreaks make the order deterministic for equal
// timestamps.
func PromptLess(a, b PinnedPrompt) bool {
	if a.LastUsedAt != b.LastUsedAt {
		return a.LastUsedAt > b.LastUsedAt
	}
	if a.LastModified != b.LastModified {
		return a.LastModified > b.LastModified
	}
	at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
	if at != bt {
		return at < bt
	}
	return a.ID < b.ID
}

// PromptList is the collection persisted to pinned_prompts.json, kept sorted
// by PromptLess at all times.
type PromptList []PinnedPrompt

// Clone returns a copy of the collection.
func (l PromptList) Clone() PromptList {
	return append(PromptList(nil), l...)
}

// Sort restores the PromptLess order in place.
func (l PromptList) Sort() {
	sort.Slice(l, func(i, j int) bool { return PromptLess(l[i], l[j]) })
}

// IsSorted reports whether the collection is already in PromptLess order.
func (l PromptList) IsSorted() bool {
	return sort.SliceIsSorted(l, func(i, j int) bool { return PromptLess(l[i], l[j]) })
}
