package facade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/simonyos/zcode-core/internal/domain"
	"github.com/simonyos/zcode-core/internal/orchestrator"
	"github.com/simonyos/zcode-core/internal/provider"
	"github.com/simonyos/zcode-core/internal/tools"
)

// memStore is a minimal in-memory store.ConversationStore stand-in — the
// real SQLiteStore is exercised in package store; these tests only need the
// interface's behavior (generated ids, overwrite-preserves-created-at).
type memStore struct {
	rows map[domain.ConversationId]domain.Conversation
	next int
}

func newMemStore() *memStore { return &memStore{rows: map[domain.ConversationId]domain.Conversation{}} }

func (s *memStore) Upsert(ctx context.Context, cctx domain.Context, id *domain.ConversationId) (domain.Conversation, error) {
	now := time.Unix(int64(s.next), 0)
	s.next++

	if id == nil {
		newID := domain.ConversationId(time.Unix(int64(s.next), 0).String())
		conv := domain.NewConversation(newID, cctx, now)
		s.rows[newID] = conv
		return conv, nil
	}

	existing, ok := s.rows[*id]
	if !ok {
		conv := domain.NewConversation(*id, cctx, now)
		s.rows[*id] = conv
		return conv, nil
	}
	updated := existing.WithContext(cctx, now)
	s.rows[*id] = updated
	return updated, nil
}

func (s *memStore) Get(ctx context.Context, id domain.ConversationId) (domain.Conversation, error) {
	conv, ok := s.rows[id]
	if !ok {
		return domain.Conversation{}, errors.New("not found")
	}
	return conv, nil
}

func (s *memStore) List(ctx context.Context) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for _, c := range s.rows {
		if !c.Archived {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) Archive(ctx context.Context, id domain.ConversationId) (domain.Conversation, error) {
	conv := s.rows[id].Archive(time.Now())
	s.rows[id] = conv
	return conv, nil
}

func (s *memStore) SetTitle(ctx context.Context, id domain.ConversationId, title string) (domain.Conversation, error) {
	conv, ok := s.rows[id]
	if !ok {
		return domain.Conversation{}, errors.New("not found")
	}
	conv = conv.WithTitle(title, time.Now())
	s.rows[id] = conv
	return conv, nil
}

// scriptedProvider replays one canned response sequence per Chat() call —
// shared shape with orchestrator's own test double, duplicated here because
// it is unexported in that package.
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

func finishPtr(f domain.FinishReason) *domain.FinishReason { return &f }

type noFiles struct{}

func (noFiles) ReadFile(path string) ([]byte, error) { return nil, errors.New("no files") }

// newTestFacade registers the main and title turns against two distinct
// providers (rather than two script slices on one provider) so the main
// turn's goroutine and the title sub-turn's goroutine — which run
// concurrently — never race over which one consumes which script entry.
func newTestFacade(t *testing.T, mainScript, titleScript [][]domain.ChatCompletionMessage) (*Facade, *memStore) {
	t.Helper()

	providers := provider.NewRegistry()
	providers.Register("main", &scriptedProvider{params: domain.Parameters{ToolSupported: true}, script: mainScript})
	providers.Register("title", &scriptedProvider{params: domain.Parameters{ToolSupported: true}, script: titleScript})
	toolRegistry := tools.NewRegistry()

	env := domain.Environment{WorkingDir: "/work", DefaultModel: "main/model", SmallModel: "title/model"}
	st := newMemStore()
	return New(st, orchestrator.New(providers, toolRegistry), env, noFiles{}), st
}

func collect(ch <-chan orchestrator.Event) []orchestrator.Event {
	var events []orchestrator.Event
	for e := range ch {
		events = append(events, e)
	}
	return events
}

func TestChatNewConversationSynthesizesStartedAndTitle(t *testing.T) {
	mainScript := [][]domain.ChatCompletionMessage{
		{{Content: "Hello"}, {FinishReason: finishPtr(domain.FinishStop)}},
	}
	titleScript := [][]domain.ChatCompletionMessage{
		{{Content: "<title>Greeting</title>"}, {FinishReason: finishPtr(domain.FinishStop)}},
	}
	f, st := newTestFacade(t, mainScript, titleScript)

	events := collect(f.Chat(context.Background(), ChatRequest{Content: "hi"}))

	if events[0].Kind != orchestrator.EventConversationStarted {
		t.Fatalf("expected first event to be ConversationStarted, got %+v", events[0])
	}
	convID := domain.ConversationId(events[0].Text)

	var sawCompleteTitle bool
	for _, e := range events {
		if e.Kind == orchestrator.EventCompleteTitle {
			sawCompleteTitle = true
			if e.Text != "Greeting" {
				t.Errorf("CompleteTitle text = %q, want %q", e.Text, "Greeting")
			}
		}
		if e.Kind == orchestrator.EventContextModified {
			t.Error("ContextModified must be intercepted, not forwarded")
		}
	}
	if !sawCompleteTitle {
		t.Fatal("expected a CompleteTitle event")
	}

	stored, err := st.Get(context.Background(), convID)
	if err != nil {
		t.Fatalf("Get() after Chat() error = %v", err)
	}
	if stored.Title != "Greeting" {
		t.Errorf("persisted title = %q, want %q", stored.Title, "Greeting")
	}
}

func TestChatExistingConversationSkipsTitleSubTurn(t *testing.T) {
	mainScript := [][]domain.ChatCompletionMessage{
		{{Content: "Back again"}, {FinishReason: finishPtr(domain.FinishStop)}},
	}
	f, st := newTestFacade(t, mainScript, nil)

	existingID := domain.ConversationId("existing")
	st.rows[existingID] = domain.NewConversation(existingID, domain.Context{}, time.Unix(0, 0)).WithTitle("Prior Title", time.Unix(0, 0))

	events := collect(f.Chat(context.Background(), ChatRequest{Content: "continue", ConversationID: &existingID}))

	for _, e := range events {
		if e.Kind == orchestrator.EventConversationStarted {
			t.Error("existing conversation must not synthesize ConversationStarted")
		}
		if e.Kind == orchestrator.EventCompleteTitle {
			t.Error("existing conversation must not run the title sub-turn")
		}
	}

	stored, err := st.Get(context.Background(), existingID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Title != "Prior Title" {
		t.Errorf("title changed unexpectedly: %q", stored.Title)
	}
}

func TestChatUnknownConversationIDErrors(t *testing.T) {
	f, _ := newTestFacade(t, nil, nil)

	missing := domain.ConversationId("does-not-exist")
	events := collect(f.Chat(context.Background(), ChatRequest{Content: "hi", ConversationID: &missing}))

	if len(events) != 1 || events[0].Kind != orchestrator.EventError {
		t.Fatalf("expected a single Error event, got %+v", events)
	}
}
