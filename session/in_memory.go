package session

import (
	"context"
	"sync"
	"time"

	"github.com/pulsekit/kpiagent/core"
)

// InMemoryStore is a volatile core.SessionStore keeping sessions in a
// process-local map. It is safe for concurrent access and suited for tests
// and ephemeral demos. Sessions are created lazily on first reference.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*record
}

var _ core.SessionStore = (*InMemoryStore)(nil)

type record struct {
	entityID  string
	updatedAt time.Time
	messages  []core.StoredMessage
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*record)}
}

// ActiveEntity returns the entity id stored for the session, or empty.
func (s *InMemoryStore) ActiveEntity(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.sessions[sessionID]; ok {
		return rec.entityID, nil
	}
	return "", nil
}

// SetActiveEntity records the entity id, creating the session if needed.
func (s *InMemoryStore) SetActiveEntity(_ context.Context, sessionID, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.recordLocked(sessionID)
	rec.entityID = entityID
	rec.updatedAt = time.Now().UTC()
	return nil
}

// AppendMessage adds one record to the session's message log.
func (s *InMemoryStore) AppendMessage(_ context.Context, sessionID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.recordLocked(sessionID)
	rec.messages = append(rec.messages, core.StoredMessage{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	rec.updatedAt = time.Now().UTC()
	return nil
}

// Messages returns the oldest-first message log, capped at limit when limit > 0.
func (s *InMemoryStore) Messages(_ context.Context, sessionID string, limit int) ([]core.StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	msgs := rec.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]core.StoredMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

// recordLocked returns the session record, allocating it on first reference.
// Caller must hold the write lock.
func (s *InMemoryStore) recordLocked(sessionID string) *record {
	rec, ok := s.sessions[sessionID]
	if !ok {
		rec = &record{}
		s.sessions[sessionID] = rec
	}
	return rec
}
