package tool_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsekit/kpiagent/tool"
)

func echoTool(name string) *tool.FunctionTool {
	return tool.NewFunctionTool(
		name,
		"echoes its message argument",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{"type": "string"},
			},
			"required": []string{"message"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			return args["message"], nil
		},
	)
}

func TestFunctionToolCall(t *testing.T) {
	tl := echoTool("echo")

	result, err := tl.Call(context.Background(), map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", result)
}

func TestFunctionToolMissingRequired(t *testing.T) {
	tl := echoTool("echo")

	_, err := tl.Call(context.Background(), map[string]any{})
	require.Error(t, err)

	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, tool.CodeValidationError, toolErr.Code)
	assert.Equal(t, "echo", toolErr.Tool)
}

func TestFunctionToolWrongType(t *testing.T) {
	tl := echoTool("echo")

	_, err := tl.Call(context.Background(), map[string]any{"message": 42})
	require.Error(t, err)

	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, tool.CodeValidationError, toolErr.Code)
}

func TestFunctionToolWrapsExecutionError(t *testing.T) {
	tl := tool.NewFunctionTool("broken", "always fails", nil,
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, errors.New("backend down")
		})

	_, err := tl.Call(context.Background(), nil)
	require.Error(t, err)

	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, tool.CodeExecutionError, toolErr.Code)
	assert.Equal(t, "backend down", toolErr.Message)
}

func TestFunctionToolPreservesCustomCode(t *testing.T) {
	custom := tool.NewToolError("fussy", "quota exceeded", "RATE_LIMITED")
	tl := tool.NewFunctionTool("fussy", "always rate limited", nil,
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, custom
		})

	_, err := tl.Call(context.Background(), nil)
	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "RATE_LIMITED", toolErr.Code)
}

func TestRegistryPreservesOrder(t *testing.T) {
	registry, err := tool.NewRegistry(echoTool("alpha"), echoTool("beta"), echoTool("gamma"))
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, registry.Names())

	defs := registry.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "alpha", defs[0].Function.Name)
	assert.Equal(t, "gamma", defs[2].Function.Name)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := tool.NewRegistry(echoTool("echo"), echoTool("echo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistryExecute(t *testing.T) {
	registry, err := tool.NewRegistry(echoTool("echo"))
	require.NoError(t, err)

	result, err := registry.Execute(context.Background(), "echo", `{"message":"hi"}`)
	require.NoError(t, err)
	assert.Equal(t, "hi", result)
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	registry, err := tool.NewRegistry(echoTool("echo"))
	require.NoError(t, err)

	_, err = registry.Execute(context.Background(), "nope", `{}`)
	require.Error(t, err)

	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, tool.CodeUnknownTool, toolErr.Code)
}

func TestRegistryExecuteMalformedArguments(t *testing.T) {
	registry, err := tool.NewRegistry(echoTool("echo"))
	require.NoError(t, err)

	_, err = registry.Execute(context.Background(), "echo", `{"message":`)
	require.Error(t, err)

	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, tool.CodeValidationError, toolErr.Code)
}
