// Package kpiagent provides a high-level façade over the orchestration
// engine, tool registry and session services for building a conversational
// SaaS KPI assistant. Most applications interact with this package by:
//  1. Creating an Agent via New() with a model and tool set (optionally
//     overriding the default in-memory session store)
//  2. Invoking conversational turns with Invoke()
//
// The façade delegates orchestration to engine.Engine while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a durable session store
// and a structured logger.
package kpiagent

import (
	"context"
	"fmt"

	"github.com/pulsekit/kpiagent/core"
	"github.com/pulsekit/kpiagent/engine"
	"github.com/pulsekit/kpiagent/logging"
	"github.com/pulsekit/kpiagent/model"
	"github.com/pulsekit/kpiagent/session"
	"github.com/pulsekit/kpiagent/tool"
)

// Options configures the Agent instance.
type Options struct {
	// EngineOptions tune the orchestration loop (iteration bound, window,
	// timeouts, fallback answer).
	EngineOptions func(o *engine.Options)

	// SessionStore defaults to an in-memory implementation if not provided.
	SessionStore core.SessionStore

	// Logger defaults to a NoOp logger if nil.
	Logger logging.Logger
}

// Agent is the high-level façade aggregating the engine and its services.
type Agent struct {
	engine   *engine.Engine
	tools    *tool.Registry
	sessions core.SessionStore
}

// New creates an Agent over a model and tool set with optional overrides.
func New(m model.Model, tools []tool.Tool, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NewNoOpLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNoOpLogger()
	}

	registry, err := tool.NewRegistry(tools...)
	if err != nil {
		return nil, fmt.Errorf("build tool registry: %w", err)
	}

	eng := engine.New(m, registry, opts.SessionStore, func(o *engine.Options) {
		o.Logger = opts.Logger
		if opts.EngineOptions != nil {
			opts.EngineOptions(o)
		}
	})

	return &Agent{engine: eng, tools: registry, sessions: opts.SessionStore}, nil
}

// Invoke runs one conversational turn.
func (a *Agent) Invoke(ctx context.Context, req engine.Request) (*engine.Response, error) {
	return a.engine.Invoke(ctx, req)
}

// Tools returns the registered tool names in registration order.
func (a *Agent) Tools() []string { return a.tools.Names() }

// Sessions exposes the session store for transcript inspection.
func (a *Agent) Sessions() core.SessionStore { return a.sessions }
