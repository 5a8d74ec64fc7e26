package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/simonyos/zcode-core/internal/domain"
	"github.com/simonyos/zcode-core/internal/prompt"
	"github.com/simonyos/zcode-core/internal/provider"
	"github.com/simonyos/zcode-core/internal/tools"
)

// scriptedProvider replays one canned ChatCompletionMessage sequence per
// Chat() call, advancing to the next script entry each call — enough to
// drive a multi-iteration agent loop deterministically.
type scriptedProvider struct {
	script [][]domain.ChatCompletionMessage
	calls  int
	params domain.Parameters
}

func (p *scriptedProvider) Chat(ctx context.Context, model domain.ModelId, chatCtx domain.Context) (<-chan domain.ChatCompletionMessage, error) {
	if p.calls >= len(p.script) {
		return nil, errors.New("scriptedProvider: no more scripted turns")
	}
	chunks := p.script[p.calls]
	p.calls++

	out := make(chan domain.ChatCompletionMessage, len(chunks))
	for _, c := range chunks {
		out <- c
	}
	close(out)
	return out, nil
}

func (p *scriptedProvider) Models(ctx context.Context) ([]domain.ModelId, error) {
	return nil, errors.New("not supported")
}

func (p *scriptedProvider) Parameters(ctx context.Context, model domain.ModelId) (domain.Parameters, error) {
	return p.params, nil
}

type echoTool struct{}

func (echoTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "echo",
		Description: "echoes its message argument",
		Parameters: &tools.JSONSchema{
			Type:       "object",
			Properties: map[string]*tools.JSONSchema{"message": {Type: "string"}},
			Required:   []string{"message"},
		},
	}
}

func (echoTool) Execute(ctx context.Context, args map[string]any) tools.ToolResult {
	msg, _ := args["message"].(string)
	return tools.ToolResult{Success: true, Output: "echo: " + msg}
}

func (echoTool) Validate(args map[string]any) error { return nil }

type fakeFileReader struct{}

func (fakeFileReader) ReadFile(path string) ([]byte, error) {
	return nil, errors.New("no files in this test")
}

func finishPtr(f domain.FinishReason) *domain.FinishReason { return &f }

func newTestOrchestrator(p provider.Provider) (*Orchestrator, domain.Environment) {
	providers := provider.NewRegistry()
	providers.Register("test", p)

	registry := tools.NewRegistry()
	registry.Register(echoTool{})

	env := domain.Environment{WorkingDir: "/work", DefaultModel: "test/model"}
	return New(providers, registry), env
}

func collectEvents(ch <-chan Event) []Event {
	var events []Event
	for e := range ch {
		events = append(events, e)
	}
	return events
}

func TestTurnCompletesWithoutToolCall(t *testing.T) {
	p := &scriptedProvider{
		params: domain.Parameters{ToolSupported: true},
		script: [][]domain.ChatCompletionMessage{
			{
				{Content: "Hello there"},
				{FinishReason: finishPtr(domain.FinishStop)},
			},
		},
	}
	o, env := newTestOrchestrator(p)

	events := collectEvents(o.Turn(context.Background(), domain.Context{}, env, "say hi", fakeFileReader{}))

	if events[len(events)-1].Kind != EventComplete {
		t.Fatalf("expected last event to be Complete, got %+v", events[len(events)-1])
	}

	var sawText bool
	for _, e := range events {
		if e.Kind == EventText && e.Text == "Hello there" {
			sawText = true
		}
	}
	if !sawText {
		t.Error("expected a Text event carrying the streamed content")
	}
}

func TestTurnExecutesNativeToolCallThenCompletes(t *testing.T) {
	args, _ := json.Marshal(map[string]string{"message": "hi"})
	p := &scriptedProvider{
		params: domain.Parameters{ToolSupported: true},
		script: [][]domain.ChatCompletionMessage{
			{
				{ToolCallParts: []domain.ToolCallPart{
					{Name: "echo", CallId: "call-1", ArgumentsFragment: string(args)},
				}},
				{FinishReason: finishPtr(domain.FinishToolCalls)},
			},
			{
				{Content: "done"},
				{FinishReason: finishPtr(domain.FinishStop)},
			},
		},
	}
	o, env := newTestOrchestrator(p)

	events := collectEvents(o.Turn(context.Background(), domain.Context{}, env, "echo hi", fakeFileReader{}))

	var sawDetected, sawStart, sawEnd bool
	for _, e := range events {
		switch e.Kind {
		case EventToolCallDetected:
			sawDetected = true
			if e.ToolName != "echo" {
				t.Errorf("ToolCallDetected name = %q, want echo", e.ToolName)
			}
		case EventToolCallStart:
			sawStart = true
			if e.ToolCall.Name != "echo" {
				t.Errorf("ToolCallStart name = %q, want echo", e.ToolCall.Name)
			}
		case EventToolCallEnd:
			sawEnd = true
			if e.ToolResult.IsError {
				t.Errorf("expected successful tool result, got error: %s", e.ToolResult.Content)
			}
			if e.ToolResult.Content != "echo: hi" {
				t.Errorf("ToolCallEnd content = %q, want %q", e.ToolResult.Content, "echo: hi")
			}
		}
	}
	if !sawDetected || !sawStart || !sawEnd {
		t.Fatalf("expected detected/start/end tool events, got %+v", events)
	}
	if events[len(events)-1].Kind != EventComplete {
		t.Fatalf("expected final event to be Complete, got %+v", events[len(events)-1])
	}
}

func TestTurnRecoversXMLToolCallOnStopFinish(t *testing.T) {
	p := &scriptedProvider{
		params: domain.Parameters{ToolSupported: false},
		script: [][]domain.ChatCompletionMessage{
			{
				{Content: "<echo><message>from xml</message></echo>"},
				{FinishReason: finishPtr(domain.FinishStop)},
			},
			{
				{Content: "all done"},
				{FinishReason: finishPtr(domain.FinishStop)},
			},
		},
	}
	o, env := newTestOrchestrator(p)

	events := collectEvents(o.Turn(context.Background(), domain.Context{}, env, "echo via xml", fakeFileReader{}))

	var sawToolStart bool
	for _, e := range events {
		if e.Kind == EventToolCallStart {
			sawToolStart = true
			if e.ToolCall.Name != "echo" {
				t.Errorf("recovered tool name = %q, want echo", e.ToolCall.Name)
			}
		}
	}
	if !sawToolStart {
		t.Fatal("expected XML-recovered tool call to produce a ToolCallStart event")
	}
}

func TestTurnCompactsContextOnFinishLength(t *testing.T) {
	p := &scriptedProvider{
		params: domain.Parameters{ToolSupported: true},
		script: [][]domain.ChatCompletionMessage{
			{
				{Content: "this reply got cut off"},
				{FinishReason: finishPtr(domain.FinishLength)},
			},
			{
				{Content: "finishing up"},
				{FinishReason: finishPtr(domain.FinishStop)},
			},
		},
	}
	o, env := newTestOrchestrator(p)

	events := collectEvents(o.Turn(context.Background(), domain.Context{}, env, "say something long", fakeFileReader{}))

	if p.calls != 2 {
		t.Fatalf("expected the provider to be called twice (truncated, then resumed), got %d", p.calls)
	}

	var modifiedCount int
	var sawTruncatedText, sawResumedText bool
	for _, e := range events {
		switch e.Kind {
		case EventContextModified:
			modifiedCount++
		case EventText:
			if e.Text == "this reply got cut off" {
				sawTruncatedText = true
			}
			if e.Text == "finishing up" {
				sawResumedText = true
			}
		}
	}
	if modifiedCount < 2 {
		t.Fatalf("expected at least two ContextModified events (initial + post-compaction re-entry), got %d", modifiedCount)
	}
	if !sawTruncatedText || !sawResumedText {
		t.Fatalf("expected both the truncated and resumed text, got %+v", events)
	}
	if events[len(events)-1].Kind != EventComplete {
		t.Fatalf("expected final event to be Complete, got %+v", events[len(events)-1])
	}
}

func TestTurnEmitsErrorOnUnknownProvider(t *testing.T) {
	providers := provider.NewRegistry()
	registry := tools.NewRegistry()
	o := New(providers, registry)
	env := domain.Environment{DefaultModel: "missing/model"}

	events := collectEvents(o.Turn(context.Background(), domain.Context{}, env, "hi", fakeFileReader{}))

	if len(events) != 1 || events[0].Kind != EventError {
		t.Fatalf("expected a single Error event, got %+v", events)
	}
}

func TestTurnStopsOnCancellation(t *testing.T) {
	p := &scriptedProvider{params: domain.Parameters{ToolSupported: true}}
	o, env := newTestOrchestrator(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := collectEvents(o.Turn(ctx, domain.Context{}, env, "hi", fakeFileReader{}))
	if len(events) != 0 {
		t.Fatalf("expected cancellation to end the stream with no events, got %+v", events)
	}
}
