package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PublishSnapshot captures draft content at the moment it was sent, tracked
// separately from the live draft so new typing never interferes with an
// in-flight publish. Unconfirmed snapshots survive restarts and can be
// retried or inspected.
type PublishSnapshot struct {
	// PublishID uniquely identifies this send attempt
	PublishID string `json:"publish_id"`

	// Content is the text that was actually sent
	Content string `json:"content"`

	// ConversationID is the conversation the send belongs to
	ConversationID string `json:"conversation_id"`

	// SentAt is the Unix timestamp of the send
	SentAt int64 `json:"sent_at"`

	// PublishedAt is the Unix timestamp of relay confirmation, 0 while pending
	PublishedAt int64 `json:"published_at,omitempty"`

	// PublishedEventID is the relay event id, set on confirmation
	PublishedEventID string `json:"published_event_id,omitempty"`
}

// NewPublishSnapshot constructs a pending snapshot for the conversation.
func NewPublishSnapshot(conversationID, content string) PublishSnapshot {
	return PublishSnapshot{
		PublishID:      fmt.Sprintf("pub-%s", uuid.New()),
		Content:        content,
		ConversationID: conversationID,
		SentAt:         time.Now().Unix(),
	}
}

// IsConfirmed reports whether the relay confirmed this snapshot.
func (s PublishSnapshot) IsConfirmed() bool {
	return s.PublishedAt != 0
}

// Confirm records the relay confirmation time and event id.
func (s *PublishSnapshot) Confirm(eventID string) {
	s.PublishedAt = time.Now().Unix()
	s.PublishedEventID = eventID
}

// SnapshotMap is the collection persisted to publish_snapshots.json,
// keyed by publish id.
type SnapshotMap map[string]PublishSnapshot

// Clone returns a copy of the collection.
func (m SnapshotMap) Clone() SnapshotMap {
	out := make(SnapshotMap, len(m))
	for k, s := range m {
		out[k] = s
	}
	return out
}
