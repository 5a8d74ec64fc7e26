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
	"time"

	"github.com/simonyos/zcode-core/internal/domain"
	"github.com/simonyos/zcode-core/internal/zlog"
)

// defaultAnthropicTimeout is longer than the other backends': Claude can
// take longer on complex tool-heavy turns.
const defaultAnthropicTimeout = 5 * time.Minute

// Anthropic speaks the native Claude Messages API (content-block
// streaming, not OpenAI-style deltas) — grounded on the teacher's
// internal/llm/anthropic.go, normalized to the shared Provider interface.
type Anthropic struct {
	APIKey  string
	BaseURL string
	client  *RetryingClient
}

// NewAnthropic builds an Anthropic client.
func NewAnthropic(apiKey string) *Anthropic {
	return &Anthropic{
		APIKey:  apiKey,
		BaseURL: "https://api.anthropic.com/v1",
		client:  NewRetryingClient(defaultAnthropicTimeout),
	}
}

type anthropicContentBlock struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Input     any    `json:"input,omitempty"`
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Stream    bool               `json:"stream"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
}

type anthropicStreamEvent struct {
	Type         string `json:"type"`
	ContentBlock *struct {
		Type string `json:"type"`
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"content_block,omitempty"`
	Delta *struct {
		Type        string `json:"type"`
		Text        string `json:"text,omitempty"`
		PartialJSON string `json:"partial_json,omitempty"`
	} `json:"delta,omitempty"`
	Usage *struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

func toAnthropicMessages(chatCtx domain.Context) (systemPrompt string, messages []anthropicMessage) {
	for _, msg := range chatCtx.Messages {
		switch msg.Kind {
		case domain.ContextMessageContent:
			if msg.Role == domain.RoleSystem {
				systemPrompt = msg.Text
				continue
			}
			if msg.Role == domain.RoleAssistant && msg.ToolCall != nil {
				var input any
				_ = json.Unmarshal(msg.ToolCall.Arguments, &input)
				var blocks []anthropicContentBlock
				if msg.Text != "" {
					blocks = append(blocks, anthropicContentBlock{Type: "text", Text: msg.Text})
				}
				blocks = append(blocks, anthropicContentBlock{
					Type: "tool_use", ID: string(msg.ToolCall.CallId), Name: string(msg.ToolCall.Name), Input: input,
				})
				messages = append(messages, anthropicMessage{Role: "assistant", Content: blocks})
				continue
			}
			messages = append(messages, anthropicMessage{Role: string(msg.Role), Content: msg.Text})
		case domain.ContextMessageTool:
			messages = append(messages, anthropicMessage{
				Role: "user",
				Content: []anthropicContentBlock{{
					Type:      "tool_result",
					ToolUseID: string(msg.Result.CallId),
					Content:   msg.Result.Content,
				}},
			})
		}
	}
	return systemPrompt, messages
}

func toAnthropicTools(tools []domain.ToolDefinition) []anthropicTool {
	out := make([]anthropicTool, len(tools))
	for i, t := range tools {
		out[i] = anthropicTool{Name: string(t.Name), Description: t.Description, InputSchema: t.Schema}
	}
	return out
}

// Chat implements Provider.
func (a *Anthropic) Chat(ctx context.Context, model domain.ModelId, chatCtx domain.Context) (<-chan domain.ChatCompletionMessage, error) {
	if a.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key not configured")
	}
	_, modelName := splitModelId(model)
	if modelName == "" {
		modelName = string(model)
	}

	system, messages := toAnthropicMessages(chatCtx)
	reqBody := anthropicRequest{
		Model:     modelName,
		MaxTokens: 8192,
		System:    system,
		Messages:  messages,
		Stream:    true,
		Tools:     toAnthropicTools(chatCtx.Tools),
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("anthropic: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("anthropic: HTTP %d: %s", resp.StatusCode, string(data))
	}

	out := make(chan domain.ChatCompletionMessage)
	go a.stream(ctx, resp.Body, out)
	return out, nil
}

func (a *Anthropic) stream(ctx context.Context, body io.ReadCloser, out chan<- domain.ChatCompletionMessage) {
	defer close(out)
	defer body.Close()

	log := zlog.FromContext(ctx)

	reader := bufio.NewReader(body)
	var currentToolName string
	var currentToolID string
	var currentArgs strings.Builder
	inToolBlock := false

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		data := parseSSELine(line)
		if data == "" {
			continue
		}

		var event anthropicStreamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			log.Warn().Err(err).Msg("discard malformed anthropic SSE chunk")
			continue
		}

		switch event.Type {
		case "content_block_start":
			if event.ContentBlock != nil && event.ContentBlock.Type == "tool_use" {
				inToolBlock = true
				currentToolName = event.ContentBlock.Name
				currentToolID = event.ContentBlock.ID
				currentArgs.Reset()
			}
		case "content_block_delta":
			if event.Delta == nil {
				continue
			}
			switch event.Delta.Type {
			case "text_delta":
				select {
				case out <- domain.ChatCompletionMessage{Content: event.Delta.Text}:
				case <-ctx.Done():
					return
				}
			case "input_json_delta":
				if inToolBlock {
					currentArgs.WriteString(event.Delta.PartialJSON)
				}
			}
		case "content_block_stop":
			if inToolBlock {
				msg := domain.ChatCompletionMessage{ToolCallParts: []domain.ToolCallPart{{
					Name:              domain.ToolName(currentToolName),
					CallId:            domain.ToolCallId(currentToolID),
					ArgumentsFragment: currentArgs.String(),
				}}}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
				inToolBlock = false
			}
		case "message_delta":
			// stop_reason arrives here in the real API; we emit our own
			// terminal chunk on message_stop instead of parsing it twice.
		case "message_stop":
			reason := domain.FinishStop
			if currentToolName != "" {
				reason = domain.FinishToolCalls
			}
			out <- domain.ChatCompletionMessage{FinishReason: &reason}
			return
		}
	}
}

// Models is unimplemented: Anthropic's model catalog is configured
// statically, not queried, matching the teacher's fixed default-model
// convention.
func (a *Anthropic) Models(ctx context.Context) ([]domain.ModelId, error) {
	return nil, fmt.Errorf("anthropic: model listing is configured statically, not queried")
}

// Parameters reports tool_supported=true: every current Claude model this
// client targets supports native tool calling.
func (a *Anthropic) Parameters(ctx context.Context, model domain.ModelId) (domain.Parameters, error) {
	return domain.Parameters{ToolSupported: true}, nil
}
