package domain

import (
	"encoding/json"
	"fmt"
)

// ContextMessageKind discriminates the two shapes a ContextMessage can take.
// Go has no tagged union, so we use an explicit discriminant plus optional
// fields rather than an interface hierarchy — this keeps JSON round-tripping
// trivial, which matters because serialize(deserialize(ctx)) == ctx is a
// testable property of the whole system.
type ContextMessageKind string

const (
	ContextMessageContent ContextMessageKind = "content"
	ContextMessageTool    ContextMessageKind = "tool"
)

// ContextMessage is one entry in a Context's message sequence. When Kind is
// ContextMessageContent, Role/Text/ToolCall are populated (ToolCall only
// when Role is RoleAssistant and the model emitted a native invocation).
// When Kind is ContextMessageTool, Result is populated.
type ContextMessage struct {
	Kind     ContextMessageKind `json:"kind"`
	Role     Role               `json:"role,omitempty"`
	Text     string             `json:"text,omitempty"`
	ToolCall *ToolCall          `json:"tool_call,omitempty"`
	Result   *ToolResult        `json:"result,omitempty"`
}

// ContentMessage builds a Content-kind ContextMessage.
func ContentMessage(role Role, text string, toolCall *ToolCall) ContextMessage {
	return ContextMessage{Kind: ContextMessageContent, Role: role, Text: text, ToolCall: toolCall}
}

// ToolMessage builds a Tool-kind ContextMessage wrapping a tool result.
func ToolMessage(result ToolResult) ContextMessage {
	return ContextMessage{Kind: ContextMessageTool, Result: &result}
}

// ToolDefinition is the catalog entry a Context carries for the duration of
// a turn — see package tools for the full registry-side type this mirrors.
type ToolDefinition struct {
	Name        ToolName
	Description string
	Schema      json.RawMessage
}

// Context is the totality of messages and tool catalog sent to the model
// for one completion request.
type Context struct {
	Messages []ContextMessage `json:"messages"`
	Tools    []ToolDefinition `json:"-"`
	Model    ModelId          `json:"model"`
}

// AddMessage appends a message, returning a new Context value. The
// orchestrator holds one working copy per turn and writes it back via the
// store on every mutation; Context itself never mutates in place so that
// a held reference from an earlier ContextModified event stays valid.
func (c Context) AddMessage(msg ContextMessage) Context {
	next := make([]ContextMessage, len(c.Messages)+1)
	copy(next, c.Messages)
	next[len(c.Messages)] = msg
	c.Messages = next
	return c
}

// SetSystemMessage replaces (or inserts) the single System message at index
// 0, enforcing invariant 1 of spec.md §3: at most one System message, and if
// present it is at index 0.
func (c Context) SetSystemMessage(text string) Context {
	sys := ContentMessage(RoleSystem, text, nil)
	if len(c.Messages) > 0 && c.Messages[0].Kind == ContextMessageContent && c.Messages[0].Role == RoleSystem {
		next := make([]ContextMessage, len(c.Messages))
		copy(next, c.Messages)
		next[0] = sys
		c.Messages = next
		return c
	}
	next := make([]ContextMessage, len(c.Messages)+1)
	next[0] = sys
	copy(next[1:], c.Messages)
	c.Messages = next
	return c
}

// WithTools fixes the enabled tool catalog for the duration of a turn
// (invariant 3 of spec.md §3).
func (c Context) WithTools(tools []ToolDefinition) Context {
	c.Tools = tools
	return c
}

// WithModel sets the target model for the turn.
func (c Context) WithModel(model ModelId) Context {
	c.Model = model
	return c
}

// Validate checks the structural invariants of spec.md §3: at most one
// System message (at index 0 if present), and every Tool message's call id
// matching a preceding Assistant tool call when call ids are in use.
func (c Context) Validate() error {
	systemSeen := false
	pending := map[ToolCallId]bool{}
	for i, msg := range c.Messages {
		switch msg.Kind {
		case ContextMessageContent:
			if msg.Role == RoleSystem {
				if systemSeen {
					return fmt.Errorf("context: more than one System message")
				}
				if i != 0 {
					return fmt.Errorf("context: System message not at index 0")
				}
				systemSeen = true
			}
			if msg.Role == RoleAssistant && msg.ToolCall != nil && msg.ToolCall.CallId != "" {
				pending[msg.ToolCall.CallId] = true
			}
		case ContextMessageTool:
			if msg.Result == nil {
				return fmt.Errorf("context: tool message at index %d has no result", i)
			}
			if msg.Result.CallId != "" {
				if !pending[msg.Result.CallId] {
					return fmt.Errorf("context: tool result %q at index %d has no matching preceding tool call", msg.Result.CallId, i)
				}
				delete(pending, msg.Result.CallId)
			}
		}
	}
	return nil
}
