package orchestrator

import "github.com/simonyos/zcode-core/internal/domain"

// EventKind discriminates the tagged Event variants spec.md §4.5 enumerates.
// ToolCallArgPart (the optional, verbose per-fragment event) is not
// implemented — every field it would carry is already visible in the
// final ToolCallStart, and nothing downstream consumes raw fragments.
type EventKind string

const (
	EventText                EventKind = "text"
	EventToolCallDetected    EventKind = "tool_call_detected"
	EventToolCallStart       EventKind = "tool_call_start"
	EventToolCallEnd         EventKind = "tool_call_end"
	EventContextModified     EventKind = "context_modified"
	EventUsage               EventKind = "usage"
	EventPartialTitle        EventKind = "partial_title"
	EventCompleteTitle       EventKind = "complete_title"
	EventComplete            EventKind = "complete"
	EventError               EventKind = "error"
	// EventConversationStarted is synthesized by package facade (spec.md
	// §4.6 step 6), not emitted by Turn itself — it belongs here so every
	// tagged Event variant lives in one discriminated union.
	EventConversationStarted EventKind = "conversation_started"
)

// Event is one entry in the orchestrator's output stream. Only the fields
// relevant to Kind are populated; this mirrors the discriminated-union
// shape domain.ContextMessage already uses for the same reason — Go has no
// tagged union, so an explicit Kind plus optional fields stands in for one.
type Event struct {
	Kind       EventKind
	Text       string
	ToolName   domain.ToolName
	ToolCall   *domain.ToolCall
	ToolResult *domain.ToolResult
	Context    *domain.Context
	Usage      *domain.Usage
	Err        error
}

// Exported constructors — used both by this package's own Turn loop and
// by package facade, which synthesizes PartialTitle/CompleteTitle/Error
// events of its own while merging the title sub-turn into the main stream.

func TextEvent(s string) Event { return Event{Kind: EventText, Text: s} }

func ToolCallDetectedEvent(name domain.ToolName) Event {
	return Event{Kind: EventToolCallDetected, ToolName: name}
}

func ToolCallStartEvent(call domain.ToolCall) Event {
	return Event{Kind: EventToolCallStart, ToolCall: &call}
}

func ToolCallEndEvent(result domain.ToolResult) Event {
	return Event{Kind: EventToolCallEnd, ToolResult: &result}
}

func ContextModifiedEvent(ctx domain.Context) Event {
	return Event{Kind: EventContextModified, Context: &ctx}
}

func UsageEvent(u domain.Usage) Event {
	return Event{Kind: EventUsage, Usage: &u}
}

func PartialTitleEvent(s string) Event { return Event{Kind: EventPartialTitle, Text: s} }

func CompleteTitleEvent(s string) Event { return Event{Kind: EventCompleteTitle, Text: s} }

func CompleteEvent() Event { return Event{Kind: EventComplete} }

func ErrorEvent(err error) Event { return Event{Kind: EventError, Err: err} }
