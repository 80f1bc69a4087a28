package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pulsekit/kpiagent/model"
)

// Registry is the fixed catalogue of tools the orchestration loop may
// dispatch against. Registration order is preserved so tool schemas are
// always presented to the model in a stable order.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry constructs a registry from the given tools. Duplicate names
// are a configuration error.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Tool) error {
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	r.order = append(r.order, t.Name())
	return nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Definitions serializes every tool's schema into the normalized request
// format handed to the inference backend.
func (r *Registry) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Execute looks up a tool by name, parses its serialized JSON arguments and
// invokes it. An unknown name or malformed argument payload is a typed
// failure, never a silent no-op.
func (r *Registry) Execute(ctx context.Context, name, rawArgs string) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, &ToolError{
			Tool:    name,
			Message: fmt.Sprintf("tool %q is not registered", name),
			Code:    CodeUnknownTool,
		}
	}

	args := map[string]any{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return nil, &ToolError{
				Tool:    name,
				Message: fmt.Sprintf("failed to parse arguments: %v", err),
				Code:    CodeValidationError,
			}
		}
	}

	return t.Call(ctx, args)
}
