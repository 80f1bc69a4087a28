package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentText(t *testing.T) {
	c := Content{Role: RoleAssistant, Parts: []Part{
		TextPart{Text: "hello "},
		FunctionCallPart{FunctionCall: FunctionCall{Name: "ignored"}},
		TextPart{Text: "world"},
	}}
	assert.Equal(t, "hello world", c.Text())
}

func TestContentFunctionCallsPreserveOrder(t *testing.T) {
	c := Content{Role: RoleAssistant, Parts: []Part{
		FunctionCallPart{FunctionCall: FunctionCall{ID: "1", Name: "first"}},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "2", Name: "second"}},
	}}
	calls := c.FunctionCalls()
	assert.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Name)
	assert.Equal(t, "second", calls[1].Name)
}

func TestNewFunctionResponseContent(t *testing.T) {
	ok := NewFunctionResponseContent("id1", "get_data", map[string]any{"x": 1}, nil)
	assert.Equal(t, RoleTool, ok.Role)
	responses := ok.FunctionResponses()
	assert.Len(t, responses, 1)
	assert.Equal(t, "id1", responses[0].ID)
	assert.Empty(t, responses[0].Error)

	failed := NewFunctionResponseContent("id2", "get_data", nil, errors.New("boom"))
	assert.Equal(t, "boom", failed.FunctionResponses()[0].Error)
}

func TestNewID(t *testing.T) {
	assert.NotEmpty(t, NewID())
	assert.NotEqual(t, NewID(), NewID())
}
