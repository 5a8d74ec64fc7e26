package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/simonyos/zcode-core/internal/domain"
	"github.com/simonyos/zcode-core/internal/zlog"
)

// Ollama talks to a local Ollama daemon's /api/chat endpoint, which
// streams newline-delimited JSON objects rather than SSE — grounded on
// kadirpekel-hector's pkg/ollama/client.go (shared client, default base
// URL, retry configuration) generalized from its MakeStreamingRequest to
// our normalized Provider interface.
type Ollama struct {
	BaseURL string
	client  *RetryingClient
}

// NewOllama builds a client against baseURL, defaulting to the
// conventional local daemon address when empty.
func NewOllama(baseURL string) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	c := NewRetryingClient(60 * time.Second)
	return &Ollama{BaseURL: baseURL, client: c}
}

type ollamaMessage struct {
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type ollamaTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Stream   bool            `json:"stream"`
}

type ollamaResponse struct {
	Message struct {
		Content   string           `json:"content"`
		ToolCalls []ollamaToolCall `json:"tool_calls"`
	} `json:"message"`
	Done bool `json:"done"`
}

func toOllamaMessages(ctx domain.Context) []ollamaMessage {
	var out []ollamaMessage
	for _, msg := range ctx.Messages {
		switch msg.Kind {
		case domain.ContextMessageContent:
			m := ollamaMessage{Role: string(msg.Role), Content: msg.Text}
			if msg.Role == domain.RoleAssistant && msg.ToolCall != nil {
				var call ollamaToolCall
				call.Function.Name = string(msg.ToolCall.Name)
				call.Function.Arguments = msg.ToolCall.Arguments
				m.ToolCalls = []ollamaToolCall{call}
			}
			out = append(out, m)
		case domain.ContextMessageTool:
			out = append(out, ollamaMessage{Role: "tool", Content: msg.Result.Content})
		}
	}
	return out
}

func toOllamaTools(tools []domain.ToolDefinition) []ollamaTool {
	out := make([]ollamaTool, len(tools))
	for i, t := range tools {
		out[i].Type = "function"
		out[i].Function.Name = string(t.Name)
		out[i].Function.Description = t.Description
		out[i].Function.Parameters = t.Schema
	}
	return out
}

// Chat implements Provider.
func (o *Ollama) Chat(ctx context.Context, model domain.ModelId, chatCtx domain.Context) (<-chan domain.ChatCompletionMessage, error) {
	_, modelName := splitModelId(model)
	if modelName == "" {
		modelName = string(model)
	}

	reqBody := ollamaRequest{
		Model:    modelName,
		Messages: toOllamaMessages(chatCtx),
		Tools:    toOllamaTools(chatCtx.Tools),
		Stream:   true,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("ollama: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("ollama: HTTP %d: %s", resp.StatusCode, string(data))
	}

	out := make(chan domain.ChatCompletionMessage)
	go o.stream(ctx, resp.Body, out)
	return out, nil
}

func (o *Ollama) stream(ctx context.Context, body io.ReadCloser, out chan<- domain.ChatCompletionMessage) {
	defer close(out)
	defer body.Close()

	log := zlog.FromContext(ctx)

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk ollamaResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			log.Warn().Err(err).Msg("discard malformed ollama chunk")
			continue
		}

		msg := domain.ChatCompletionMessage{Content: chunk.Message.Content}
		for _, tc := range chunk.Message.ToolCalls {
			msg.ToolCallParts = append(msg.ToolCallParts, domain.ToolCallPart{
				Name:              domain.ToolName(tc.Function.Name),
				ArgumentsFragment: string(tc.Function.Arguments),
			})
		}
		if chunk.Done {
			reason := domain.FinishStop
			if len(msg.ToolCallParts) > 0 {
				reason = domain.FinishToolCalls
			}
			msg.FinishReason = &reason
		}

		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
		if chunk.Done {
			return
		}
	}
}

// Models queries the daemon's local tag list.
func (o *Ollama) Models(ctx context.Context) ([]domain.ModelId, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("ollama: decode tags: %w", err)
	}

	models := make([]domain.ModelId, len(tags.Models))
	for i, m := range tags.Models {
		models[i] = domain.ModelId("ollama/" + m.Name)
	}
	return models, nil
}

// Parameters reports tool_supported for models known to support Ollama's
// tool-calling API (a small, explicitly maintained allowlist — Ollama does
// not expose this capability via any endpoint).
func (o *Ollama) Parameters(ctx context.Context, model domain.ModelId) (domain.Parameters, error) {
	_, name := splitModelId(model)
	return domain.Parameters{ToolSupported: ollamaToolCapableModels[name]}, nil
}

var ollamaToolCapableModels = map[string]bool{
	"llama3.1":    true,
	"llama3.2":    true,
	"mistral":     true,
	"qwen2.5":     true,
	"qwen2.5-coder": true,
}
