package facade

import (
	"github.com/simonyos/zcode-core/internal/domain"
	"github.com/simonyos/zcode-core/internal/orchestrator"
)

// Replay turns a stored Context back into the same Event shapes Chat
// streams live, so a UI reopening an existing conversation can render its
// history through one code path instead of a second "history view" model.
// Grounded on chat_service.rs's `impl From<Context> for ConversationHistory`:
// the System message is dropped (it's implementation detail, not
// conversation content) and every Assistant message with an attached
// ToolCall contributes a ToolCallStart in addition to its Text.
func Replay(ctx domain.Context) []orchestrator.Event {
	var events []orchestrator.Event

	for _, msg := range ctx.Messages {
		switch msg.Kind {
		case domain.ContextMessageContent:
			if msg.Role == domain.RoleSystem {
				continue
			}
			events = append(events, orchestrator.TextEvent(msg.Text))
			if msg.ToolCall != nil {
				events = append(events, orchestrator.ToolCallStartEvent(*msg.ToolCall))
			}
		case domain.ContextMessageTool:
			if msg.Result != nil {
				events = append(events, orchestrator.ToolCallEndEvent(*msg.Result))
			}
		}
	}

	return events
}
