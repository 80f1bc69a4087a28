package core

import "strings"

// State is the mutable record threaded through one multi-step turn: the
// ordered message sequence plus the active entity id scoping tool calls.
// Each field has exactly one reducer: messages append, the entity id merges
// right-biased on non-empty values. A State lives for a single invocation;
// continuity across turns flows through the SessionStore.
type State struct {
	Messages []Content
	EntityID string
}

// Append concatenates contents onto the message history. Messages are never
// replaced or reordered.
func (s *State) Append(contents ...Content) {
	s.Messages = append(s.Messages, contents...)
}

// MergeEntityID applies the entity id reducer: the new value wins iff it is
// non-empty after trimming, otherwise the old value is kept. This is not a
// plain overwrite; an empty update must never clear an established id.
func MergeEntityID(old, update string) string {
	if strings.TrimSpace(update) != "" {
		return update
	}
	return old
}

// SetEntityID merges an entity id update into the state.
func (s *State) SetEntityID(id string) {
	s.EntityID = MergeEntityID(s.EntityID, id)
}

// WindowMessages returns the most recent n messages in original order. It is
// a fixed sliding window, not a summarization: older messages are simply
// dropped from the copy handed to the inference backend (full history
// persistence is the session store's job). n <= 0 disables windowing.
func WindowMessages(msgs []Content, n int) []Content {
	if n <= 0 || len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
