package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/pulsekit/kpiagent/core"
)

// ToolDefinition declaratively exposes a callable tool to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual tool exposed to the model.
// Parameters is a minimal JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by the decision step.
// Instructions are rendered as system messages (or the provider equivalent)
// ahead of the conversation contents.
type Request struct {
	Instructions []string         `json:"instructions,omitempty"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed model output for one decision step. Content is an
// assistant message carrying text and/or function call parts.
type Response struct {
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "ollama", "openai", "anthropic", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the engine requires to drive generation.
// Generate blocks until the backend produces a complete response; it is one
// of the two suspension points of a turn (the other being tool dispatch) and
// must respect ctx cancellation and deadlines.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a scripted in-memory Model for tests and examples. Responses
// are consumed in FIFO order; once the script is exhausted it echoes the last
// user message. All methods are safe for concurrent use.
type MockModel struct {
	mu       sync.Mutex
	info     Info
	script   []scripted
	requests []Request
}

type scripted struct {
	resp *Response
	err  error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: "mock", SupportsTools: true},
	}
}

// EnqueueText scripts a plain assistant text response.
func (m *MockModel) EnqueueText(text string) {
	m.enqueue(&Response{
		Content:      core.NewTextContent(core.RoleAssistant, text),
		FinishReason: "stop",
	}, nil)
}

// EnqueueToolCalls scripts an assistant response requesting the given calls.
// Calls without an ID are assigned one.
func (m *MockModel) EnqueueToolCalls(calls ...core.FunctionCall) {
	parts := make([]core.Part, 0, len(calls))
	for _, fc := range calls {
		if fc.ID == "" {
			fc.ID = core.NewID()
		}
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}
	m.enqueue(&Response{
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: "tool_calls",
	}, nil)
}

// EnqueueError scripts a backend failure.
func (m *MockModel) EnqueueError(err error) { m.enqueue(nil, err) }

func (m *MockModel) enqueue(resp *Response, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scripted{resp: resp, err: err})
}

// Generate implements Model, recording the request and popping the script.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next.resp, next.err
	}

	var last string
	for i := len(req.Contents) - 1; i >= 0; i-- {
		if req.Contents[i].Role == core.RoleUser {
			last = req.Contents[i].Text()
			break
		}
	}
	return &Response{
		Content:      core.NewTextContent(core.RoleAssistant, fmt.Sprintf("Mock response to: %s", last)),
		FinishReason: "stop",
	}, nil
}

// Requests returns a copy of every request seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Info implements the Model interface.
func (m *MockModel) Info() Info { return m.info }
