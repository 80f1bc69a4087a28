// Package tool implements the function calling subsystem: a Tool contract
// with schema-validated arguments, a generic function adapter, and the fixed
// registry the orchestration loop dispatches against. The registry performs
// no business logic; it only validates shape and forwards to the tool
// implementation.
package tool

import (
	"context"
	"fmt"

	"github.com/pulsekit/kpiagent/internal/util"
)

// Tool defines a named, schema-validated operation the decision step may
// request. Implementations should be thread-safe: calls within one
// tool-execution phase may run concurrently.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description is shown to the model to help it choose among tools.
	Description() string

	// Parameters returns a minimal JSON schema describing accepted arguments.
	Parameters() map[string]any

	// Call executes the tool with already-parsed arguments.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError re-exports the internal validation error type.
type ValidationError = util.ValidationError

// Error codes used by ToolError. Custom codes from tool implementations are
// preserved unchanged.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeExecutionError  = "EXECUTION_ERROR"
	CodeUnknownTool     = "UNKNOWN_TOOL"
)

// ToolError is the typed failure surfaced for dispatch contract violations
// and execution failures. The engine feeds it back into the loop as an error
// payload so the next decision step can recover or apologize.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
