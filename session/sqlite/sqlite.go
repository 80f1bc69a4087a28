// Package sqlite provides a durable SQLite-backed session store so active
// entity ids and conversation transcripts survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pulsekit/kpiagent/core"
)

// Store is a SQLite-backed core.SessionStore.
type Store struct {
	db *sql.DB
}

var _ core.SessionStore = (*Store)(nil)

// NewStore opens (or creates) the database at path and applies the schema.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		active_entity_id TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ActiveEntity returns the entity id stored for the session, or empty.
func (s *Store) ActiveEntity(ctx context.Context, sessionID string) (string, error) {
	var entityID string
	err := s.db.QueryRowContext(ctx,
		`SELECT active_entity_id FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&entityID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query session: %w", err)
	}
	return entityID, nil
}

// SetActiveEntity upserts the entity id for the session.
func (s *Store) SetActiveEntity(ctx context.Context, sessionID, entityID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, active_entity_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			active_entity_id = excluded.active_entity_id,
			updated_at = excluded.updated_at`,
		sessionID, entityID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// AppendMessage adds one record to the session's message log.
func (s *Store) AppendMessage(ctx context.Context, sessionID, role, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (session_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		sessionID, role, content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Messages returns the oldest-first message log, capped at limit when limit > 0.
func (s *Store) Messages(ctx context.Context, sessionID string, limit int) ([]core.StoredMessage, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unlimited
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, role, content, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY id
		LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []core.StoredMessage
	for rows.Next() {
		var m core.StoredMessage
		if err := rows.Scan(&m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
