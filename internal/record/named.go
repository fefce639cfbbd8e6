package record

import "time"

// NamedDraft is a durable snippet the user explicitly saved. The name is
// always derived from the text, never set directly.
type NamedDraft struct {
	// ID is a ULID, immutable
	ID string `json:"id"`

	// Name is derived from the first line of Text
	Name string `json:"name"`

	// Text is the snippet body
	Text string `json:"text"`

	// ProjectID is the owning project, immutable
	ProjectID string `json:"project_id"`

	// CreatedAt is the Unix timestamp of creation, immutable
	CreatedAt int64 `json:"created_at"`

	// LastModified is the Unix timestamp of the last text change
	LastModified int64 `json:"last_modified"`
}

// NewNamedDraft constructs a named draft for the given text and project.
func NewNamedDraft(text, projectID string) NamedDraft {
	now := time.Now().Unix()
	return NamedDraft{
		ID:           NewID(),
		Name:         DeriveName(text),
		Text:         text,
		ProjectID:    projectID,
		CreatedAt:    now,
		LastModified: now,
	}
}

// UpdateText replaces the text, re-derives the name, and bumps LastModified.
func (d *NamedDraft) UpdateText(text string) {
	d.Text = text
	d.Name = DeriveName(text)
	d.LastModified = time.Now().Unix()
}

// Preview returns a single-line preview of the text.
func (d NamedDraft) Preview() string {
	return Preview(d.Text)
}

// NamedDraftList is the collection persisted to named_drafts.json. New
// entries are prepended, so raw order is newest-first.
type NamedDraftList []NamedDraft

// Clone returns a copy of the collection.
func (l NamedDraftList) Clone() NamedDraftList {
	return append(NamedDraftList(nil), l...)
}
