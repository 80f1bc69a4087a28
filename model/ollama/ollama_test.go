package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsekit/kpiagent/core"
	"github.com/pulsekit/kpiagent/model"
)

func newTestServer(t *testing.T, chatHandler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/show", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["name"] == "missing-model" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	if chatHandler != nil {
		mux.HandleFunc("/api/chat", chatHandler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"127.0.0.1", "http://127.0.0.1:11434"},
		{"http://0.0.0.0:11434", "http://127.0.0.1:11434"},
		{"https://ollama.internal", "https://ollama.internal:11434"},
		{"http://10.0.0.5:8080", "http://10.0.0.5:8080"},
	}
	for _, tt := range tests {
		got, err := normalizeBaseURL(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestNewPreflightSucceeds(t *testing.T) {
	srv := newTestServer(t, nil)
	m, err := New(func(o *Options) {
		o.BaseURL = srv.URL
		o.Model = "qwen2.5:7b-instruct"
	})
	require.NoError(t, err)
	assert.Equal(t, "ollama", m.Info().Provider)
	assert.True(t, m.Info().SupportsTools)
}

func TestNewPreflightUnreachable(t *testing.T) {
	_, err := New(func(o *Options) {
		o.BaseURL = "http://127.0.0.1:1" // nothing listens here
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot reach ollama")
}

func TestNewPreflightModelMissing(t *testing.T) {
	srv := newTestServer(t, nil)
	_, err := New(func(o *Options) {
		o.BaseURL = srv.URL
		o.Model = "missing-model"
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGenerateTextResponse(t *testing.T) {
	var gotReq chatRequest
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		resp := chatResponse{
			Model:           gotReq.Model,
			Message:         chatMessage{Role: "assistant", Content: "All KPIs look healthy."},
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       8,
		}
		json.NewEncoder(w).Encode(resp)
	})

	m, err := New(func(o *Options) {
		o.BaseURL = srv.URL
		o.Model = "test-model"
	})
	require.NoError(t, err)

	resp, err := m.Generate(context.Background(), model.Request{
		Instructions: []string{"You are a helpful assistant.", "Active client_id for this session: client3"},
		Contents:     []core.Content{core.NewTextContent(core.RoleUser, "how are my KPIs?")},
		Tools: []model.ToolDefinition{{
			Type:     "function",
			Function: model.FunctionDefinition{Name: "get_saas_kpi_summary"},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "All KPIs look healthy.", resp.Content.Text())
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 20, resp.Usage.TotalTokens)

	// Instructions become leading system messages, then the conversation.
	require.Len(t, gotReq.Messages, 3)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "system", gotReq.Messages[1].Role)
	assert.Equal(t, "Active client_id for this session: client3", gotReq.Messages[1].Content)
	assert.Equal(t, "user", gotReq.Messages[2].Role)
	require.Len(t, gotReq.Tools, 1)
	assert.False(t, gotReq.Stream)
}

func TestGenerateToolCallResponse(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var tc chatToolCall
		tc.Function.Name = "get_kpi_trend_analysis"
		tc.Function.Arguments = map[string]any{"client_id": "client3", "kpi_name": "churn_rate"}
		resp := chatResponse{
			Message: chatMessage{Role: "assistant", ToolCalls: []chatToolCall{tc}},
			Done:    true,
		}
		json.NewEncoder(w).Encode(resp)
	})

	m, err := New(func(o *Options) {
		o.BaseURL = srv.URL
		o.Model = "test-model"
	})
	require.NoError(t, err)

	resp, err := m.Generate(context.Background(), model.Request{
		Contents: []core.Content{core.NewTextContent(core.RoleUser, "churn trend for client3?")},
	})
	require.NoError(t, err)

	assert.Equal(t, "tool_calls", resp.FinishReason)
	calls := resp.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "get_kpi_trend_analysis", calls[0].Name)
	assert.NotEmpty(t, calls[0].ID)

	var args map[string]any
	require.NoError(t, json.Unmarshal([]byte(calls[0].Arguments), &args))
	assert.Equal(t, "client3", args["client_id"])
	assert.Equal(t, "churn_rate", args["kpi_name"])
}

func TestGenerateSendsToolResults(t *testing.T) {
	var gotReq chatRequest
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "Churn is improving."},
			Done:    true,
		})
	})

	m, err := New(func(o *Options) {
		o.BaseURL = srv.URL
		o.Model = "test-model"
	})
	require.NoError(t, err)

	assistant := core.Content{Role: core.RoleAssistant, Parts: []core.Part{
		core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID: "call-1", Name: "get_kpi_trend_analysis", Arguments: `{"client_id":"client3","kpi_name":"churn_rate"}`,
		}},
	}}
	result := core.NewFunctionResponseContent("call-1", "get_kpi_trend_analysis", map[string]any{"trend": "improving"}, nil)

	_, err = m.Generate(context.Background(), model.Request{
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "churn trend for client3?"),
			assistant,
			result,
		},
	})
	require.NoError(t, err)

	require.Len(t, gotReq.Messages, 3)
	assert.Equal(t, "assistant", gotReq.Messages[1].Role)
	require.Len(t, gotReq.Messages[1].ToolCalls, 1)
	assert.Equal(t, "client3", gotReq.Messages[1].ToolCalls[0].Function.Arguments["client_id"])
	assert.Equal(t, "tool", gotReq.Messages[2].Role)
	assert.Equal(t, "call-1", gotReq.Messages[2].ToolCallID)
	assert.JSONEq(t, `{"trend":"improving"}`, gotReq.Messages[2].Content)
}
