// Package record defines the durable record families persisted by the
// content managers: transient message drafts, named reusable drafts, pinned
// prompts, and publish snapshots. Records are plain values; collections own
// deep-copy semantics so managers can hand out snapshots safely.
package record

import (
	"strings"
	"time"
)

// Draft represents in-progress composition state for one conversation scope:
// either a new conversation in a project, or a reply to an existing one.
type Draft struct {
	// ID is a ULID assigned once when the draft is first created
	ID string `json:"id"`

	// Title is auto-derived from content in later usage; kept for old files
	Title string `json:"title,omitempty"`

	// Content is the composer text
	Content string `json:"content"`

	// AgentPubkey is the selected agent, if any
	AgentPubkey string `json:"agent_pubkey,omitempty"`

	// RefConversationID links a referenced conversation, if any
	RefConversationID string `json:"ref_conversation_id,omitempty"`

	// RefReportID links a referenced report, if any
	RefReportID string `json:"ref_report_id,omitempty"`

	// ActionIDs are the selected auxiliary actions, stored sorted and unique
	ActionIDs []string `json:"action_ids,omitempty"`

	// IsNewConversation is true for drafts not yet bound to a conversation
	IsNewConversation bool `json:"is_new_conversation"`

	// LastEdited is the Unix timestamp of the most recent mutation
	LastEdited int64 `json:"last_edited"`

	// ProjectID is the owning project
	ProjectID string `json:"project_id"`

	// ConversationID is the conversation being replied to; empty for new drafts
	ConversationID string `json:"conversation_id,omitempty"`
}

// DraftScope identifies at most one Draft: a project plus an optional
// conversation. The derived key is the storage and lookup key.
type DraftScope struct {
	ProjectID      string
	ConversationID string
}

// NewConversationScope returns the scope for a draft starting a new
// conversation in the given project.
func NewConversationScope(projectID string) DraftScope {
	return DraftScope{ProjectID: projectID}
}

// ReplyScope returns the scope for a draft replying to an existing
// conversation.
func ReplyScope(projectID, conversationID string) DraftScope {
	return DraftScope{ProjectID: projectID, ConversationID: conversationID}
}

// Key derives the deterministic storage key: "new-{project}" for a
// new-conversation draft, "reply-{project}-{conversation}" for a reply.
func (s DraftScope) Key() string {
	if s.ConversationID == "" {
		return "new-" + s.ProjectID
	}
	return "reply-" + s.ProjectID + "-" + s.ConversationID
}

// IsNewConversation reports whether this scope has no conversation yet.
func (s DraftScope) IsNewConversation() bool {
	return s.ConversationID == ""
}

// NewDraft constructs a default draft for the scope with a fresh ID and a
// current LastEdited stamp.
func NewDraft(scope DraftScope) Draft {
	return Draft{
		ID:                NewID(),
		IsNewConversation: scope.IsNewConversation(),
		LastEdited:        time.Now().Unix(),
		ProjectID:         scope.ProjectID,
		ConversationID:    scope.ConversationID,
	}
}

// Scope reconstructs the draft's scope from its project and conversation.
func (d Draft) Scope() DraftScope {
	return DraftScope{ProjectID: d.ProjectID, ConversationID: d.ConversationID}
}

// HasContent reports whether the draft holds any non-whitespace content.
// Title never gates this: titles are auto-derived.
func (d Draft) HasContent() bool {
	return strings.TrimSpace(d.Content) != ""
}

// IsValid is an alias of HasContent; a draft is worth keeping exactly when
// it has content.
func (d Draft) IsValid() bool {
	return d.HasContent()
}

// Touch stamps LastEdited with the current time.
func (d *Draft) Touch() {
	d.LastEdited = time.Now().Unix()
}

// Clone returns a copy that shares no mutable state with the receiver.
func (d Draft) Clone() Draft {
	d.ActionIDs = append([]string(nil), d.ActionIDs...)
	return d
}

// SetActionIDs replaces the selected action set, deduplicated and sorted.
func (d *Draft) SetActionIDs(ids []string) {
	d.ActionIDs = normalizeIDSet(ids)
}

// DraftMap is the draft collection persisted to message_drafts.json,
// keyed by scope key.
type DraftMap map[string]Draft

// Clone returns a deep copy of the collection.
func (m DraftMap) Clone() DraftMap {
	out := make(DraftMap, len(m))
	for k, d := range m {
		out[k] = d.Clone()
	}
	return out
}
