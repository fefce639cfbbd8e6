package corelink

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/tenex-chat/inkwell/internal/logging"
)

// DB resolves names from the client's SQLite core database. The expected
// tables are the client's own:
//
//	profiles(pubkey TEXT PRIMARY KEY, display_name TEXT, ...)
//	conversations(id TEXT PRIMARY KEY, title TEXT, ...)
//
// Query failures are logged once per call and reported as misses so a
// schema drift in the client degrades names, not features.
type DB struct {
	db  *sql.DB
	log logging.Logger
}

// Open opens the core database read-only and verifies it is reachable.
func Open(path string, log logging.Logger) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open core database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("core database unreachable: %w", err)
	}
	return &DB{db: db, log: log}, nil
}

// Close releases the database handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// DisplayName resolves a pubkey to the profile's display name.
func (d *DB) DisplayName(ctx context.Context, pubkey string) (string, bool) {
	var name sql.NullString
	err := d.db.QueryRowContext(ctx,
		"SELECT display_name FROM profiles WHERE pubkey = ?", pubkey).Scan(&name)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		d.log.Warn("profile lookup failed", logging.String("pubkey", pubkey), logging.Error(err))
		return "", false
	}
	if !name.Valid || name.String == "" {
		return "", false
	}
	return name.String, true
}

// ConversationTitle resolves a conversation id to its title.
func (d *DB) ConversationTitle(ctx context.Context, conversationID string) (string, bool) {
	var title sql.NullString
	err := d.db.QueryRowContext(ctx,
		"SELECT title FROM conversations WHERE id = ?", conversationID).Scan(&title)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		d.log.Warn("conversation lookup failed", logging.String("conversation_id", conversationID), logging.Error(err))
		return "", false
	}
	if !title.Valid || title.String == "" {
		return "", false
	}
	return title.String, true
}
