package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/simonyos/zcode-core/internal/domain"
	"github.com/simonyos/zcode-core/internal/zlog"
)

// OpenAICompatible speaks the OpenAI chat-completions wire format over
// HTTP/SSE. OpenRouter, OpenAI itself, and LiteLLM's proxy all serve this
// same dialect differing only in base URL and headers, so one
// implementation covers all three — grounded on the teacher's
// internal/llm/openrouter.go and internal/llm/openai.go, which duplicated
// this logic per-backend; here it is parameterized instead.
type OpenAICompatible struct {
	Name       string
	APIKey     string
	BaseURL    string
	ExtraHeaders map[string]string
	client     *RetryingClient
}

// NewOpenAICompatible builds a client for one OpenAI-wire-format backend.
func NewOpenAICompatible(name, apiKey, baseURL string, extraHeaders map[string]string) *OpenAICompatible {
	return &OpenAICompatible{
		Name:         name,
		APIKey:       apiKey,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ExtraHeaders: extraHeaders,
		client:       NewRetryingClient(defaultTimeout),
	}
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type openAIRequest struct {
	Model    string           `json:"model"`
	Messages []openAIMessage  `json:"messages"`
	Tools    []openAITool     `json:"tools,omitempty"`
	Stream   bool             `json:"stream"`
}

type openAIStreamChoice struct {
	Delta struct {
		Content   string           `json:"content"`
		ToolCalls []openAIDelta    `json:"tool_calls"`
	} `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

type openAIDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	} `json:"function,omitempty"`
}

type openAIStreamResponse struct {
	Choices []openAIStreamChoice `json:"choices"`
	Usage   *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func toOpenAIMessages(ctx domain.Context) []openAIMessage {
	var out []openAIMessage
	for _, msg := range ctx.Messages {
		switch msg.Kind {
		case domain.ContextMessageContent:
			text := msg.Text
			m := openAIMessage{Role: string(msg.Role), Content: &text}
			if msg.Role == domain.RoleAssistant && msg.ToolCall != nil {
				m.Content = nil
				m.ToolCalls = []openAIToolCall{{
					ID:   string(msg.ToolCall.CallId),
					Type: "function",
				}}
				m.ToolCalls[0].Function.Name = string(msg.ToolCall.Name)
				m.ToolCalls[0].Function.Arguments = string(msg.ToolCall.Arguments)
			}
			out = append(out, m)
		case domain.ContextMessageTool:
			out = append(out, openAIMessage{
				Role:       "tool",
				Content:    &msg.Result.Content,
				Name:       string(msg.Result.Name),
				ToolCallID: string(msg.Result.CallId),
			})
		}
	}
	return out
}

func toOpenAITools(tools []domain.ToolDefinition) []openAITool {
	out := make([]openAITool, len(tools))
	for i, t := range tools {
		out[i] = openAITool{
			Type: "function",
			Function: openAIFunction{
				Name:        string(t.Name),
				Description: t.Description,
				Parameters:  t.Schema,
			},
		}
	}
	return out
}

// Chat implements Provider.
func (o *OpenAICompatible) Chat(ctx context.Context, model domain.ModelId, chatCtx domain.Context) (<-chan domain.ChatCompletionMessage, error) {
	_, modelName := splitModelId(model)
	if modelName == "" {
		modelName = string(model)
	}

	reqBody := openAIRequest{
		Model:    modelName,
		Messages: toOpenAIMessages(chatCtx),
		Tools:    toOpenAITools(chatCtx.Tools),
		Stream:   true,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", o.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", o.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if o.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.APIKey)
	}
	for k, v := range o.ExtraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", o.Name, err)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%s: HTTP %d: %s", o.Name, resp.StatusCode, string(data))
	}

	out := make(chan domain.ChatCompletionMessage)
	go o.stream(ctx, resp.Body, out)
	return out, nil
}

func (o *OpenAICompatible) stream(ctx context.Context, body io.ReadCloser, out chan<- domain.ChatCompletionMessage) {
	defer close(out)
	defer body.Close()

	log := zlog.FromContext(ctx)

	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		data := parseSSELine(line)
		if data == "" {
			continue
		}

		var chunk openAIStreamResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			log.Warn().Err(err).Str("provider", o.Name).Msg("discard malformed SSE chunk")
			continue
		}
		if chunk.Error != nil {
			log.Error().Str("provider", o.Name).Str("message", chunk.Error.Message).Msg("provider returned stream error")
			return
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		msg := domain.ChatCompletionMessage{Content: choice.Delta.Content}
		for _, tc := range choice.Delta.ToolCalls {
			msg.ToolCallParts = append(msg.ToolCallParts, domain.ToolCallPart{
				Name:              domain.ToolName(tc.Function.Name),
				CallId:            domain.ToolCallId(tc.ID),
				ArgumentsFragment: tc.Function.Arguments,
			})
		}
		if chunk.Usage != nil {
			msg.Usage = &domain.Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}
		if choice.FinishReason != nil {
			reason := normalizeFinishReason(*choice.FinishReason)
			msg.FinishReason = &reason
		}

		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
		if choice.FinishReason != nil {
			return
		}
	}
}

func normalizeFinishReason(raw string) domain.FinishReason {
	switch raw {
	case "stop":
		return domain.FinishStop
	case "tool_calls":
		return domain.FinishToolCalls
	case "length":
		return domain.FinishLength
	case "content_filter":
		return domain.FinishContentFilter
	default:
		return domain.FinishOther
	}
}

func parseSSELine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "data: ") {
		return ""
	}
	data := strings.TrimPrefix(line, "data: ")
	if data == "[DONE]" {
		return ""
	}
	return data
}

// Models is unimplemented for generic OpenAI-compatible hosts that don't
// expose a model listing endpoint this client understands; callers
// configure the models to use out of band (domain.Environment's
// DefaultModel and SmallModel).
func (o *OpenAICompatible) Models(ctx context.Context) ([]domain.ModelId, error) {
	return nil, fmt.Errorf("%s: model listing is configured statically, not queried", o.Name)
}

// Parameters reports tool_supported=true for every model: every backend
// this client speaks to (OpenAI, OpenRouter, LiteLLM) implements the
// OpenAI tool-calling contract.
func (o *OpenAICompatible) Parameters(ctx context.Context, model domain.ModelId) (domain.Parameters, error) {
	return domain.Parameters{ToolSupported: true}, nil
}
