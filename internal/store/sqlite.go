package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/lectern-ai/lectern/internal/core"
	"github.com/lectern-ai/lectern/internal/logger"
)

// SQLiteStore implements core.RecordStore over a local SQLite database.
// It plays the role of the hierarchical record store: records keyed by user
// id, department and conversation id, with write timestamps assigned by the
// database rather than the caller.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	department TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS conversations (
	user_id    TEXT NOT NULL,
	id         TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL DEFAULT (strftime('%s','now')),
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS messages (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id         TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	created_at      INTEGER NOT NULL DEFAULT (strftime('%s','now'))
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation
	ON messages (user_id, conversation_id, created_at, seq);

CREATE TABLE IF NOT EXISTS important_dates (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	department  TEXT NOT NULL,
	event_type  TEXT NOT NULL,
	title       TEXT NOT NULL,
	date        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_dates_department
	ON important_dates (department, event_type);
`

// NewSQLiteStore opens (creating if needed) the database at path and applies
// the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	// SQLite handles one writer at a time; a single connection sidesteps
	// SQLITE_BUSY under concurrent request handling.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply store schema: %w", err)
	}

	logger.Info("Record store ready at %s", path)
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetUser returns the profile for userID or core.ErrUserNotFound.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (core.UserProfile, error) {
	var p core.UserProfile
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, department FROM users WHERE id = ?`, userID)
	if err := row.Scan(&p.ID, &p.Name, &p.Department); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.UserProfile{}, fmt.Errorf("%w: %s", core.ErrUserNotFound, userID)
		}
		return core.UserProfile{}, fmt.Errorf("failed to read user %s: %w", userID, err)
	}
	return p, nil
}

// PutUser writes or replaces a user profile.
func (s *SQLiteStore) PutUser(ctx context.Context, profile core.UserProfile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, department) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, department = excluded.department`,
		profile.ID, profile.Name, profile.Department)
	if err != nil {
		return fmt.Errorf("%w: put user %s: %v", core.ErrStoreWriteFailure, profile.ID, err)
	}
	return nil
}

// ConversationExists probes for a conversation header.
func (s *SQLiteStore) ConversationExists(ctx context.Context, userID, conversationID string) (bool, error) {
	var one int
	row := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM conversations WHERE user_id = ? AND id = ?`, userID, conversationID)
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to probe conversation %s/%s: %w", userID, conversationID, err)
	}
	return true, nil
}

// CreateConversation writes the header record. Repeat calls with the same id
// are absorbed rather than erroring, so the first-write guard stays
// idempotent even when two requests race past the existence probe.
func (s *SQLiteStore) CreateConversation(ctx context.Context, userID, conversationID, title string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (user_id, id, title) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, id) DO NOTHING`,
		userID, conversationID, title)
	if err != nil {
		return fmt.Errorf("%w: create conversation %s/%s: %v", core.ErrStoreWriteFailure, userID, conversationID, err)
	}
	return nil
}

// AppendMessage appends one message record; the database assigns the
// timestamp.
func (s *SQLiteStore) AppendMessage(ctx context.Context, userID, conversationID, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (user_id, conversation_id, role, content) VALUES (?, ?, ?, ?)`,
		userID, conversationID, role, content)
	if err != nil {
		return fmt.Errorf("%w: append message to %s/%s: %v", core.ErrStoreWriteFailure, userID, conversationID, err)
	}
	return nil
}

// ListMessages returns the conversation's messages ordered by timestamp,
// with the insertion sequence breaking same-second ties.
func (s *SQLiteStore) ListMessages(ctx context.Context, userID, conversationID string) ([]core.MessageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM messages
		 WHERE user_id = ? AND conversation_id = ?
		 ORDER BY created_at, seq`,
		userID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for %s/%s: %w", userID, conversationID, err)
	}
	defer rows.Close()

	var messages []core.MessageRecord
	for rows.Next() {
		var m core.MessageRecord
		if err := rows.Scan(&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountConversations returns the number of header records for a user.
func (s *SQLiteStore) CountConversations(ctx context.Context, userID string) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE user_id = ?`, userID)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count conversations for %s: %w", userID, err)
	}
	return n, nil
}

// ImportantDates reads one named list of a department's date bucket.
func (s *SQLiteStore) ImportantDates(ctx context.Context, department string, eventType core.DateEventType) ([]core.ImportantDate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, date, department, event_type, description FROM important_dates
		 WHERE department = ? AND event_type = ?
		 ORDER BY date, seq`,
		department, string(eventType))
	if err != nil {
		return nil, fmt.Errorf("failed to read important dates for %s/%s: %w", department, eventType, err)
	}
	defer rows.Close()

	var dates []core.ImportantDate
	for rows.Next() {
		var d core.ImportantDate
		var et string
		if err := rows.Scan(&d.Title, &d.Date, &d.Department, &et, &d.Description); err != nil {
			return nil, fmt.Errorf("failed to scan important date: %w", err)
		}
		d.EventType = core.DateEventType(et)
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// PutImportantDate appends one entry to a department's date bucket.
func (s *SQLiteStore) PutImportantDate(ctx context.Context, date core.ImportantDate) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO important_dates (department, event_type, title, date, description)
		 VALUES (?, ?, ?, ?, ?)`,
		date.Department, string(date.EventType), date.Title, date.Date, date.Description)
	if err != nil {
		return fmt.Errorf("%w: put important date %q: %v", core.ErrStoreWriteFailure, date.Title, err)
	}
	return nil
}
