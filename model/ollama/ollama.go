// Package ollama implements model.Model against a local Ollama daemon.
//
// Construction performs a preflight: the daemon must be reachable and the
// named model must be present, otherwise New returns an error and the engine
// refuses to initialize rather than run degraded.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pulsekit/kpiagent/core"
	"github.com/pulsekit/kpiagent/model"
)

// Options configure the Ollama adapter.
type Options struct {
	BaseURL     string
	Model       string
	Temperature float64
	TopK        int
	TopP        float64
	NumCtx      int

	// Timeout bounds a single chat completion. Local models with tool
	// schemas can be slow; keep this generous and let the engine's decide
	// timeout drive per-turn limits.
	Timeout time.Duration

	// SkipPreflight disables the reachability and model-presence checks.
	// Intended for tests only.
	SkipPreflight bool

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Model wraps the Ollama chat API behind the generic model.Model interface.
type Model struct {
	baseURL    string
	httpClient *http.Client
	opts       Options
}

// New creates an Ollama model, normalizing the base URL and verifying the
// daemon and model before first use.
func New(optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		BaseURL:     "http://127.0.0.1:11434",
		Model:       "qwen2.5:7b-instruct",
		Temperature: 0.2,
		TopK:        30,
		TopP:        0.9,
		NumCtx:      8192,
		Timeout:     5 * time.Minute,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	baseURL, err := normalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url %q: %w", opts.BaseURL, err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	m := &Model{baseURL: baseURL, httpClient: httpClient, opts: opts}

	if !opts.SkipPreflight {
		if err := m.preflight(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// normalizeBaseURL fills in scheme and port defaults and rewrites wildcard
// bind addresses to loopback, since a daemon listening on 0.0.0.0 is dialed
// via 127.0.0.1.
func normalizeBaseURL(candidate string) (string, error) {
	if !strings.HasPrefix(candidate, "http://") && !strings.HasPrefix(candidate, "https://") {
		candidate = "http://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return "", err
	}

	host := u.Hostname()
	if host == "" {
		host = "127.0.0.1"
	}
	switch host {
	case "0.0.0.0", "::", "[::]":
		host = "127.0.0.1"
	}

	port := u.Port()
	if port == "" {
		port = "11434"
	}
	return fmt.Sprintf("%s://%s:%s", u.Scheme, host, port), nil
}

// preflight verifies daemon reachability and model presence.
func (m *Model) preflight() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach ollama at %s (is it running?): %w", m.baseURL, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ollama preflight failed for %s: status %d", m.baseURL, resp.StatusCode)
	}

	showCtx, cancelShow := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShow()

	body, _ := json.Marshal(map[string]string{"name": m.opts.Model})
	showReq, err := http.NewRequestWithContext(showCtx, http.MethodPost, m.baseURL+"/api/show", bytes.NewReader(body))
	if err != nil {
		return err
	}
	showReq.Header.Set("Content-Type", "application/json")
	showResp, err := m.httpClient.Do(showReq)
	if err != nil {
		return fmt.Errorf("ollama model check failed: %w", err)
	}
	io.Copy(io.Discard, showResp.Body)
	showResp.Body.Close()
	if showResp.StatusCode < 200 || showResp.StatusCode >= 300 {
		return fmt.Errorf("ollama model %q not found on %s (run: ollama pull %s)", m.opts.Model, m.baseURL, m.opts.Model)
	}
	return nil
}

// chatMessage is the Ollama chat API message shape.
type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// chatToolCall carries a function call; Ollama uses object arguments rather
// than the serialized string other providers use.
type chatToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	NumCtx      int     `json:"num_ctx,omitempty"`
}

type chatRequest struct {
	Model    string           `json:"model"`
	Messages []chatMessage    `json:"messages"`
	Stream   bool             `json:"stream"`
	Tools    []map[string]any `json:"tools,omitempty"`
	Options  *chatOptions     `json:"options,omitempty"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
}

// Generate implements model.Model via a non-streaming chat completion.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	payload := chatRequest{
		Model:    m.opts.Model,
		Messages: m.buildMessages(req),
		Stream:   false,
		Tools:    buildTools(req.Tools),
		Options: &chatOptions{
			Temperature: m.opts.Temperature,
			TopK:        m.opts.TopK,
			TopP:        m.opts.TopP,
			NumCtx:      m.opts.NumCtx,
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama api error %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return m.toResponse(chatResp), nil
}

// buildMessages renders instructions as leading system messages, then maps
// conversation contents to the Ollama wire format. Tool-result contents carry
// the serialized response payload as the message body.
func (m *Model) buildMessages(req model.Request) []chatMessage {
	messages := make([]chatMessage, 0, len(req.Instructions)+len(req.Contents))
	for _, instr := range req.Instructions {
		if instr == "" {
			continue
		}
		messages = append(messages, chatMessage{Role: "system", Content: instr})
	}

	for _, c := range req.Contents {
		switch c.Role {
		case core.RoleTool:
			for _, fr := range c.FunctionResponses() {
				messages = append(messages, chatMessage{
					Role:       "tool",
					Content:    serializeResponse(fr),
					ToolCallID: fr.ID,
				})
			}
		case core.RoleAssistant:
			msg := chatMessage{Role: "assistant", Content: c.Text()}
			for _, fc := range c.FunctionCalls() {
				var tc chatToolCall
				tc.Function.Name = fc.Name
				tc.Function.Arguments = parseArguments(fc.Arguments)
				msg.ToolCalls = append(msg.ToolCalls, tc)
			}
			messages = append(messages, msg)
		case core.RoleSystem:
			messages = append(messages, chatMessage{Role: "system", Content: c.Text()})
		default:
			messages = append(messages, chatMessage{Role: "user", Content: c.Text()})
		}
	}
	return messages
}

// serializeResponse renders a tool result (or its error payload) as JSON text.
func serializeResponse(fr core.FunctionResponse) string {
	if fr.Error != "" {
		data, _ := json.Marshal(map[string]string{"error": fr.Error})
		return string(data)
	}
	if s, ok := fr.Response.(string); ok {
		return s
	}
	data, err := json.Marshal(fr.Response)
	if err != nil {
		return fmt.Sprintf("%v", fr.Response)
	}
	return string(data)
}

func parseArguments(raw string) map[string]any {
	args := map[string]any{}
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &args)
	}
	return args
}

func buildTools(defs []model.ToolDefinition) []map[string]any {
	if len(defs) == 0 {
		return nil
	}
	tools := make([]map[string]any, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        d.Function.Name,
				"description": d.Function.Description,
				"parameters":  d.Function.Parameters,
			},
		})
	}
	return tools
}

// toResponse maps the wire response to the normalized form. Ollama does not
// assign tool call ids, so fresh correlation ids are minted here; object
// arguments are re-serialized to the normalized JSON string form.
func (m *Model) toResponse(chatResp chatResponse) *model.Response {
	var parts []core.Part
	if chatResp.Message.Content != "" {
		parts = append(parts, core.TextPart{Text: chatResp.Message.Content})
	}
	for _, tc := range chatResp.Message.ToolCalls {
		args, err := json.Marshal(tc.Function.Arguments)
		if err != nil {
			args = []byte("{}")
		}
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        core.NewID(),
			Name:      tc.Function.Name,
			Arguments: string(args),
		}})
	}

	finishReason := "stop"
	if len(chatResp.Message.ToolCalls) > 0 {
		finishReason = "tool_calls"
	}

	return &model.Response{
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: finishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     chatResp.PromptEvalCount,
			CompletionTokens: chatResp.EvalCount,
			TotalTokens:      chatResp.PromptEvalCount + chatResp.EvalCount,
		},
	}
}

// Info implements the model.Model interface.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "ollama", SupportsTools: true}
}
