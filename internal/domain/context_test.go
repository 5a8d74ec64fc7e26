package domain

import "testing"

func TestContextSetSystemMessage(t *testing.T) {
	ctx := Context{}
	ctx = ctx.AddMessage(ContentMessage(RoleUser, "hi", nil))
	ctx = ctx.SetSystemMessage("be helpful")

	if len(ctx.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(ctx.Messages))
	}
	if ctx.Messages[0].Role != RoleSystem || ctx.Messages[0].Text != "be helpful" {
		t.Fatalf("system message not inserted at index 0: %+v", ctx.Messages[0])
	}

	ctx = ctx.SetSystemMessage("be more helpful")
	if len(ctx.Messages) != 2 {
		t.Fatalf("expected system message replacement, not insertion, got %d messages", len(ctx.Messages))
	}
	if ctx.Messages[0].Text != "be more helpful" {
		t.Fatalf("system message not replaced: %+v", ctx.Messages[0])
	}
}

func TestContextValidateRejectsMisplacedSystem(t *testing.T) {
	ctx := Context{Messages: []ContextMessage{
		ContentMessage(RoleUser, "hi", nil),
		ContentMessage(RoleSystem, "late", nil),
	}}
	if err := ctx.Validate(); err == nil {
		t.Fatal("expected error for System message not at index 0")
	}
}

func TestContextValidateRejectsDuplicateSystem(t *testing.T) {
	ctx := Context{}
	ctx = ctx.SetSystemMessage("a")
	ctx.Messages = append(ctx.Messages, ContentMessage(RoleSystem, "b", nil))
	if err := ctx.Validate(); err == nil {
		t.Fatal("expected error for duplicate System message")
	}
}

func TestContextValidateRequiresMatchingToolCall(t *testing.T) {
	ctx := Context{Messages: []ContextMessage{
		ToolMessage(Success("read_file", "call-1", "contents")),
	}}
	if err := ctx.Validate(); err == nil {
		t.Fatal("expected error for tool result with no matching tool call")
	}

	call := &ToolCall{Name: "read_file", CallId: "call-1"}
	ctx = Context{Messages: []ContextMessage{
		ContentMessage(RoleAssistant, "", call),
		ToolMessage(Success("read_file", "call-1", "contents")),
	}}
	if err := ctx.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestContextAddMessageDoesNotAliasBackingArray(t *testing.T) {
	base := Context{}
	base = base.AddMessage(ContentMessage(RoleUser, "first", nil))

	a := base.AddMessage(ContentMessage(RoleAssistant, "branch a", nil))
	b := base.AddMessage(ContentMessage(RoleAssistant, "branch b", nil))

	if a.Messages[1].Text != "branch a" || b.Messages[1].Text != "branch b" {
		t.Fatalf("AddMessage aliased shared backing array: a=%+v b=%+v", a.Messages, b.Messages)
	}
}
