package facade

import (
	"testing"

	"github.com/simonyos/zcode-core/internal/domain"
	"github.com/simonyos/zcode-core/internal/orchestrator"
)

func TestReplayDropsSystemMessageAndExpandsToolCalls(t *testing.T) {
	call := domain.ToolCall{Name: "foo", CallId: "call-1"}
	result := domain.Success("foo", "call-1", "ok")

	ctx := domain.Context{}.
		SetSystemMessage("be helpful").
		AddMessage(domain.ContentMessage(domain.RoleUser, "hello", nil)).
		AddMessage(domain.ContentMessage(domain.RoleAssistant, "let's use foo", &call)).
		AddMessage(domain.ToolMessage(result))

	events := Replay(ctx)

	if len(events) != 4 {
		t.Fatalf("expected 4 events (user text, assistant text+toolcall flattened to 2, tool end), got %d: %+v", len(events), events)
	}
	if events[0].Kind != orchestrator.EventText || events[0].Text != "hello" {
		t.Errorf("event 0 = %+v, want user Text", events[0])
	}
	if events[1].Kind != orchestrator.EventText || events[1].Text != "let's use foo" {
		t.Errorf("event 1 = %+v, want assistant Text", events[1])
	}
}

func TestReplayExpandsAssistantToolCallIntoTwoEvents(t *testing.T) {
	call := domain.ToolCall{Name: "foo", CallId: "call-1"}
	ctx := domain.Context{}.
		AddMessage(domain.ContentMessage(domain.RoleAssistant, "let's use foo", &call))

	events := Replay(ctx)

	if len(events) != 2 {
		t.Fatalf("expected Text + ToolCallStart, got %d: %+v", len(events), events)
	}
	if events[1].Kind != orchestrator.EventToolCallStart || events[1].ToolCall.Name != "foo" {
		t.Errorf("event 1 = %+v, want ToolCallStart for foo", events[1])
	}
}
