// Package identity resolves the active entity id governing a turn. Three
// sources are consulted in strict priority order: the caller-supplied id,
// the id stored for the session, and a heuristic extraction from the turn's
// message text. A non-empty result is written back to the session store
// before the orchestration loop runs; whether the id actually exists is not
// checked here, tools report "no data" for unknown entities.
package identity

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Store is the subset of the session store the resolver needs.
type Store interface {
	ActiveEntity(ctx context.Context, sessionID string) (string, error)
	SetActiveEntity(ctx context.Context, sessionID, entityID string) error
}

// DefaultMinTokenLength is the minimum length of an id-like token considered
// by the text heuristic. It is a policy knob, not a contract.
const DefaultMinTokenLength = 4

// Options configure a Resolver.
type Options struct {
	MinTokenLength int
}

// Resolver determines the effective entity id for a turn.
type Resolver struct {
	store   Store
	pattern *regexp.Regexp
}

// NewResolver constructs a resolver bound to a session store.
func NewResolver(store Store, optFns ...func(o *Options)) *Resolver {
	opts := Options{MinTokenLength: DefaultMinTokenLength}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MinTokenLength < 1 {
		opts.MinTokenLength = DefaultMinTokenLength
	}
	return &Resolver{
		store:   store,
		pattern: regexp.MustCompile(fmt.Sprintf(`\b[A-Za-z0-9_-]{%d,}\b`, opts.MinTokenLength)),
	}
}

// Resolve returns the effective entity id: the trimmed explicit id if
// present, else the id stored for the session, else the first id-like token
// found in the given texts. A non-empty result is persisted for the session
// before returning; empty resolution has no side effect.
func (r *Resolver) Resolve(ctx context.Context, explicitID, sessionID string, texts ...string) (string, error) {
	id := strings.TrimSpace(explicitID)

	if id == "" {
		stored, err := r.store.ActiveEntity(ctx, sessionID)
		if err != nil {
			return "", fmt.Errorf("read session entity: %w", err)
		}
		id = stored
	}

	if id == "" {
		id = r.extract(strings.Join(texts, " "))
	}

	if id == "" {
		return "", nil
	}

	if err := r.store.SetActiveEntity(ctx, sessionID, id); err != nil {
		return "", fmt.Errorf("persist session entity: %w", err)
	}
	return id, nil
}

// extract scans for the first token that both matches the identifier pattern
// and is not a plain word: an id-like token must contain at least one digit,
// underscore or hyphen ("client42", "a7c3e1b0"), otherwise ordinary words
// like "churn" would shadow real ids.
func (r *Resolver) extract(text string) string {
	for _, tok := range r.pattern.FindAllString(text, -1) {
		if strings.ContainsAny(tok, "0123456789_-") {
			return tok
		}
	}
	return ""
}
