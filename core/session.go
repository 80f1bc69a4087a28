package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Roles used for the persisted message log. They intentionally mirror the
// external invocation API ("human"/"ai") rather than the provider-facing
// roles, so stored transcripts round-trip through Invoke unchanged.
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// Session binds a conversation's active entity id across turns. Sessions are
// created on first reference and mutated whenever a turn resolves an entity
// id; the core never deletes them (retention is a store concern).
type Session struct {
	ID             string    `json:"session_id"`
	ActiveEntityID string    `json:"active_entity_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StoredMessage is one record of a session's append-only message log.
type StoredMessage struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore persists per-session state the orchestration loop depends on.
// Implementations must make concurrent writes for the same session id safe:
// last-writer-wins is acceptable for the entity id (it merges right-biased),
// but append order of the message log must be preserved. All calls are
// treated as fail-fast and synchronous by the engine.
type SessionStore interface {
	// ActiveEntity returns the entity id stored for the session, or empty if
	// the session is unknown or has no id yet.
	ActiveEntity(ctx context.Context, sessionID string) (string, error)

	// SetActiveEntity records the entity id for the session, creating the
	// session on first reference.
	SetActiveEntity(ctx context.Context, sessionID, entityID string) error

	// AppendMessage adds one record to the session's message log.
	AppendMessage(ctx context.Context, sessionID, role, content string) error

	// Messages returns the oldest-first message log, capped at limit when
	// limit > 0.
	Messages(ctx context.Context, sessionID string, limit int) ([]StoredMessage, error)
}

// NewID generates a unique identifier used to correlate tool calls with their
// results and to key stored records.
func NewID() string { return uuid.NewString() }
