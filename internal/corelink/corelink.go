// Package corelink resolves agent pubkeys and conversation ids to human
// names by reading the chat client's core database. The database belongs to
// the client; this package only ever opens it read-only and treats every
// miss or failure as "no name known".
package corelink

import "context"

// Resolver turns opaque identifiers into display strings. Resolution is
// best-effort decoration: a miss returns ok=false, never an error, so
// render paths stay simple.
type Resolver interface {
	DisplayName(ctx context.Context, pubkey string) (string, bool)
	ConversationTitle(ctx context.Context, conversationID string) (string, bool)
}

// Static is a fixed in-memory resolver. The zero value resolves nothing,
// which is the fallback when no core database is configured.
type Static struct {
	Names  map[string]string
	Titles map[string]string
}

// DisplayName looks up a pubkey in the fixed name table.
func (s Static) DisplayName(_ context.Context, pubkey string) (string, bool) {
	name, ok := s.Names[pubkey]
	return name, ok
}

// ConversationTitle looks up a conversation id in the fixed title table.
func (s Static) ConversationTitle(_ context.Context, conversationID string) (string, bool) {
	title, ok := s.Titles[conversationID]
	return title, ok
}
