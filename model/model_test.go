package model_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsekit/kpiagent/core"
	"github.com/pulsekit/kpiagent/model"
)

func TestMockModelScriptOrder(t *testing.T) {
	mock := model.NewMockModel("test")
	mock.EnqueueText("first")
	mock.EnqueueToolCalls(core.FunctionCall{Name: "lookup", Arguments: `{"q":"x"}`})
	mock.EnqueueError(errors.New("boom"))

	resp, err := mock.Generate(context.Background(), model.Request{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content.Text())
	assert.Equal(t, "stop", resp.FinishReason)

	resp, err = mock.Generate(context.Background(), model.Request{})
	require.NoError(t, err)
	calls := resp.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "lookup", calls[0].Name)
	assert.NotEmpty(t, calls[0].ID, "unset call ids are assigned")
	assert.Equal(t, "tool_calls", resp.FinishReason)

	_, err = mock.Generate(context.Background(), model.Request{})
	require.EqualError(t, err, "boom")
}

func TestMockModelEchoesWhenExhausted(t *testing.T) {
	mock := model.NewMockModel("test")

	resp, err := mock.Generate(context.Background(), model.Request{
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "older question"),
			core.NewTextContent(core.RoleAssistant, "older answer"),
			core.NewTextContent(core.RoleUser, "ping"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: ping", resp.Content.Text())
}

func TestMockModelRecordsRequests(t *testing.T) {
	mock := model.NewMockModel("test")
	mock.EnqueueText("ok")

	req := model.Request{Instructions: []string{"be brief"}}
	_, err := mock.Generate(context.Background(), req)
	require.NoError(t, err)

	recorded := mock.Requests()
	require.Len(t, recorded, 1)
	assert.Equal(t, []string{"be brief"}, recorded[0].Instructions)
}

func TestMockModelRespectsCancellation(t *testing.T) {
	mock := model.NewMockModel("test")
	mock.EnqueueText("never seen")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.Generate(ctx, model.Request{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mock.Requests(), "cancelled calls are not recorded")
}
