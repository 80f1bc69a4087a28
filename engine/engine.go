package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pulsekit/kpiagent/core"
	"github.com/pulsekit/kpiagent/identity"
	"github.com/pulsekit/kpiagent/logging"
	"github.com/pulsekit/kpiagent/model"
	"github.com/pulsekit/kpiagent/tool"
)

// DefaultInstructions is the standing system instruction for the assistant.
const DefaultInstructions = `You are a helpful assistant for a SaaS company, designed to analyze business performance data.
- When a user asks for data (e.g., KPIs, churn, trends), you MUST provide a client_id to the tools.
- If a client_id is not known and the request requires one, ask the user for the client_id.
- Reuse the last active client_id for the session unless the user specifies a new one.
- If the provided client_id is invalid or unknown, inform the user and ask for a valid one.
- For general chit-chat, respond directly without using tools.
- Use the available tools to answer questions about KPI summaries, detailed data, anomalies, and KPI trends.
- Always include the client_id argument in tool calls that require it.`

// Defaults applied by New when the corresponding option is zero.
const (
	DefaultMaxIterations  = 8
	DefaultHistoryWindow  = 10
	DefaultSessionID      = "default_session"
	DefaultFallbackAnswer = "Sorry, I encountered an issue. Could you rephrase?"
	DefaultDecideTimeout  = 2 * time.Minute
	DefaultToolTimeout    = 30 * time.Second
)

// State enumerates the phases of the orchestration loop.
type State int

const (
	// StateDeciding means the engine is waiting on a model decision.
	StateDeciding State = iota
	// StateExecutingTools means the engine is running requested tool calls.
	StateExecutingTools
	// StateDone means the turn produced a final answer.
	StateDone
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateDeciding:
		return "DECIDING"
	case StateExecutingTools:
		return "EXECUTING_TOOLS"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Options configure an Engine.
type Options struct {
	// Instructions is the standing system prompt. Empty selects
	// DefaultInstructions.
	Instructions string
	// MaxIterations bounds decision steps per turn; exceeding it yields the
	// fallback answer, never an unbounded loop.
	MaxIterations int
	// HistoryWindow caps how many trailing messages are replayed to the
	// model. Zero selects DefaultHistoryWindow; negative disables windowing.
	HistoryWindow int
	// MinTokenLength tunes the entity id text heuristic.
	MinTokenLength int
	// DecideTimeout bounds a single model call. Zero selects
	// DefaultDecideTimeout; negative disables the deadline.
	DecideTimeout time.Duration
	// ToolTimeout bounds a single tool call. Zero selects
	// DefaultToolTimeout; negative disables the deadline.
	ToolTimeout time.Duration
	// MaxParallelTools caps concurrent tool calls within one phase.
	MaxParallelTools int
	// FallbackAnswer replaces the final answer when the loop cannot produce one.
	FallbackAnswer string

	Logger logging.Logger
}

// Engine drives the decide / execute-tools loop for one conversational turn
// at a time. It is safe for concurrent use across sessions.
type Engine struct {
	model    model.Model
	tools    *tool.Registry
	sessions core.SessionStore
	resolver *identity.Resolver
	executor *toolExecutor
	logger   logging.Logger
	opts     Options
}

// New constructs an Engine over a model, a tool registry and a session store.
func New(m model.Model, tools *tool.Registry, sessions core.SessionStore, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Instructions:   DefaultInstructions,
		MaxIterations:  DefaultMaxIterations,
		HistoryWindow:  DefaultHistoryWindow,
		DecideTimeout:  DefaultDecideTimeout,
		ToolTimeout:    DefaultToolTimeout,
		FallbackAnswer: DefaultFallbackAnswer,
		Logger:         logging.NewNoOpLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Instructions == "" {
		opts.Instructions = DefaultInstructions
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.HistoryWindow == 0 {
		opts.HistoryWindow = DefaultHistoryWindow
	}
	if opts.DecideTimeout == 0 {
		opts.DecideTimeout = DefaultDecideTimeout
	}
	if opts.ToolTimeout == 0 {
		opts.ToolTimeout = DefaultToolTimeout
	}
	if opts.FallbackAnswer == "" {
		opts.FallbackAnswer = DefaultFallbackAnswer
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNoOpLogger()
	}

	resolver := identity.NewResolver(sessions, func(o *identity.Options) {
		if opts.MinTokenLength > 0 {
			o.MinTokenLength = opts.MinTokenLength
		}
	})

	return &Engine{
		model:    m,
		tools:    tools,
		sessions: sessions,
		resolver: resolver,
		executor: &toolExecutor{
			registry:    tools,
			maxParallel: opts.MaxParallelTools,
			timeout:     opts.ToolTimeout,
			logger:      opts.Logger,
		},
		logger: opts.Logger,
		opts:   opts,
	}
}

// HistoryMessage is one prior turn exchanged with the assistant. Role is
// core.RoleHuman or core.RoleAI.
type HistoryMessage struct {
	Role    string `json:"type"`
	Content string `json:"content"`
}

// Request is one conversational turn.
type Request struct {
	// Query is the user's message. Required.
	Query string
	// History replays prior turns; unknown roles are skipped.
	History []HistoryMessage
	// EntityID pins the active client id explicitly, overriding the session.
	EntityID string
	// SessionID selects the conversation; empty means DefaultSessionID.
	SessionID string
}

// Response is the outcome of one turn.
type Response struct {
	// Answer is the final assistant text, or the fallback answer.
	Answer string
	// History is the updated human/ai transcript of the turn's window.
	History []HistoryMessage
	// EntityID is the entity id the turn resolved to, possibly empty.
	EntityID string
}

// Invoke runs one conversational turn end to end: resolve the entity id,
// persist the user message, run the decision loop, persist the answer.
// Cancellation surfaces as ctx.Err() with no answer persisted.
func (e *Engine) Invoke(ctx context.Context, req Request) (*Response, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	var st core.State
	st.Append(rebuildMessages(req.History)...)
	st.Append(core.NewTextContent(core.RoleUser, req.Query))
	st.Messages = core.WindowMessages(st.Messages, e.opts.HistoryWindow)

	entityID, err := e.resolver.Resolve(ctx, req.EntityID, sessionID, joinTexts(st.Messages))
	if err != nil {
		return nil, fmt.Errorf("resolve entity: %w", err)
	}
	st.SetEntityID(entityID)

	if err := e.sessions.AppendMessage(ctx, sessionID, core.RoleHuman, req.Query); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	e.logger.Info("engine.turn.start",
		"session_id", sessionID,
		"entity_id", st.EntityID,
		"messages", len(st.Messages),
	)

	answer, err := e.runLoop(ctx, &st, sessionID)
	if err != nil {
		return nil, err
	}

	if err := e.sessions.AppendMessage(ctx, sessionID, core.RoleAI, answer); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	e.logger.Info("engine.turn.complete", "session_id", sessionID, "answer_len", len(answer))

	return &Response{
		Answer:   answer,
		History:  transcript(st.Messages),
		EntityID: st.EntityID,
	}, nil
}

// runLoop executes the decision state machine over the turn state and returns
// the answer. Only context errors propagate; model and tool failures degrade
// to the fallback answer.
func (e *Engine) runLoop(ctx context.Context, st *core.State, sessionID string) (string, error) {
	var (
		state   = StateDeciding
		pending []core.FunctionCall
		answer  string
	)

	for step := 0; state != StateDone; {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		switch state {
		case StateDeciding:
			if step >= e.opts.MaxIterations {
				e.logger.Warn("engine.loop.bound_exceeded",
					"session_id", sessionID,
					"max_iterations", e.opts.MaxIterations,
				)
				answer = e.opts.FallbackAnswer
				state = StateDone
				continue
			}
			step++

			resp, err := e.decide(ctx, st.Messages, st.EntityID)
			if err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				e.logger.Error("engine.decide.error", "session_id", sessionID, "error", err.Error())
				answer = e.opts.FallbackAnswer
				state = StateDone
				continue
			}

			st.Append(resp.Content)
			pending = resp.Content.FunctionCalls()
			if len(pending) > 0 {
				e.logger.Debug("engine.state.transition",
					"from", StateDeciding.String(),
					"to", StateExecutingTools.String(),
					"tool_calls", len(pending),
				)
				state = StateExecutingTools
				continue
			}

			answer = resp.Content.Text()
			if strings.TrimSpace(answer) == "" {
				answer = e.opts.FallbackAnswer
			}
			state = StateDone

		case StateExecutingTools:
			results := e.executor.Execute(ctx, pending)
			if err := ctx.Err(); err != nil {
				return "", err
			}
			st.Append(results...)
			pending = nil
			state = StateDeciding
		}
	}

	return answer, nil
}

// decide issues one model call over the current window plus standing
// instructions and the active entity note.
func (e *Engine) decide(ctx context.Context, msgs []core.Content, entityID string) (*model.Response, error) {
	if e.opts.DecideTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.DecideTimeout)
		defer cancel()
	}

	instructions := []string{e.opts.Instructions}
	if entityID != "" {
		instructions = append(instructions, "Active client_id for this session: "+entityID)
	}

	return e.model.Generate(ctx, model.Request{
		Instructions: instructions,
		Contents:     msgs,
		Tools:        e.tools.Definitions(),
	})
}

// rebuildMessages converts a human/ai transcript into conversation contents,
// skipping unknown roles.
func rebuildMessages(history []HistoryMessage) []core.Content {
	var msgs []core.Content
	for _, h := range history {
		switch h.Role {
		case core.RoleHuman:
			msgs = append(msgs, core.NewTextContent(core.RoleUser, h.Content))
		case core.RoleAI:
			msgs = append(msgs, core.NewTextContent(core.RoleAssistant, h.Content))
		}
	}
	return msgs
}

// transcript projects the final messages back into the human/ai history
// format, dropping tool traffic and empty assistant contents.
func transcript(msgs []core.Content) []HistoryMessage {
	var out []HistoryMessage
	for _, c := range msgs {
		text := c.Text()
		switch c.Role {
		case core.RoleUser:
			out = append(out, HistoryMessage{Role: core.RoleHuman, Content: text})
		case core.RoleAssistant:
			if text != "" {
				out = append(out, HistoryMessage{Role: core.RoleAI, Content: text})
			}
		}
	}
	return out
}

// joinTexts flattens message texts for the id extraction heuristic.
func joinTexts(msgs []core.Content) string {
	parts := make([]string, 0, len(msgs))
	for _, c := range msgs {
		if t := c.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
