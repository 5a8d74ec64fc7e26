// Package facade is the UI-facing entry point: it wraps package
// orchestrator with conversation persistence and title generation, the two
// concerns ui_service.rs's UIService::chat bundles on top of the bare chat
// loop. package orchestrator itself stays ignorant of conversations as a
// stored concept — Facade is the only place that talks to a
// store.ConversationStore.
package facade

import (
	"context"
	"errors"

	"github.com/simonyos/zcode-core/internal/domain"
	"github.com/simonyos/zcode-core/internal/orchestrator"
	"github.com/simonyos/zcode-core/internal/prompt"
	"github.com/simonyos/zcode-core/internal/store"
	"github.com/simonyos/zcode-core/internal/tools"
	"github.com/simonyos/zcode-core/internal/xmltag"
	"github.com/simonyos/zcode-core/internal/zcerr"
)

const fallbackTitle = "Untitled"

// ChatRequest is the shape a UI submits: free-form task text plus an
// optional conversation to continue. A nil ConversationID starts a new
// conversation and triggers the title sub-turn.
type ChatRequest struct {
	Content        string
	ConversationID *domain.ConversationId
}

// Facade is the single entry point a UI drives.
type Facade struct {
	Store        store.ConversationStore
	Orchestrator *orchestrator.Orchestrator
	Env          domain.Environment
	Files        prompt.FileReader
}

// New builds a Facade around the given persistence, agent loop, run
// environment, and attachment reader.
func New(st store.ConversationStore, orch *orchestrator.Orchestrator, env domain.Environment, files prompt.FileReader) *Facade {
	return &Facade{Store: st, Orchestrator: orch, Env: env, Files: files}
}

// Chat resolves or creates the target conversation, runs the main turn, and
// — on a brand-new conversation — runs a title-generation sub-turn
// concurrently, merging its PartialTitle/CompleteTitle events into the
// returned stream. ContextModified events are intercepted and persisted
// rather than surfaced, exactly as ui_service.rs's `.filter()` drops
// ModifyContext messages after its `.then()` acts on them; CompleteTitle is
// persisted via SetTitle and also forwarded so a UI can update a sidebar.
// Go has no stream combinators, so the Rust `.then()/.filter()/chain()`
// pipeline becomes a goroutine that reads a merged channel and special-cases
// two event kinds before relaying everything else untouched.
func (f *Facade) Chat(ctx context.Context, req ChatRequest) <-chan orchestrator.Event {
	out := make(chan orchestrator.Event)

	go func() {
		defer close(out)

		conv, isNew, err := f.resolveConversation(ctx, req.ConversationID)
		if err != nil {
			out <- orchestrator.ErrorEvent(zcerr.Persistence(err))
			return
		}

		mainEvents := f.Orchestrator.Turn(ctx, conv.Context, f.Env, req.Content, f.Files)

		merged := mainEvents
		if isNew {
			select {
			case out <- orchestrator.Event{Kind: orchestrator.EventConversationStarted, Text: string(conv.ID)}:
			case <-ctx.Done():
				return
			}
			merged = mergeEvents(ctx, mainEvents, f.titleSubTurn(ctx, req.Content))
		}

		for e := range merged {
			switch e.Kind {
			case orchestrator.EventContextModified:
				if _, err := f.Store.Upsert(ctx, *e.Context, &conv.ID); err != nil {
					out <- orchestrator.ErrorEvent(zcerr.Persistence(err))
					return
				}
				continue
			case orchestrator.EventCompleteTitle:
				if _, err := f.Store.SetTitle(ctx, conv.ID, e.Text); err != nil {
					out <- orchestrator.ErrorEvent(zcerr.Persistence(err))
					return
				}
			}

			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// resolveConversation fetches the conversation req.ConversationID names, or
// creates a fresh empty one when it is nil. isNew is true only in the
// latter case and gates the title sub-turn.
func (f *Facade) resolveConversation(ctx context.Context, id *domain.ConversationId) (domain.Conversation, bool, error) {
	if id != nil {
		conv, err := f.Store.Get(ctx, *id)
		if err != nil {
			return domain.Conversation{}, false, err
		}
		return conv, false, nil
	}

	conv, err := f.Store.Upsert(ctx, domain.Context{}, nil)
	if err != nil {
		return domain.Conversation{}, false, err
	}
	return conv, true, nil
}

// titleOrchestrator lazily builds the tool-free Orchestrator the title
// sub-turn runs against: same provider registry as the main conversation,
// but an empty tool Registry so neither a native tool call nor the XML
// fallback can ever find a tool to dispatch. This keeps the title turn's
// prompt-assembly and dispatch code path identical to the main turn's —
// matching the teacher's one-Agent-type style — while making it structurally
// incapable of mutating anything outside its own throwaway Context, per
// spec.md §4.6 ("independent of tool execution").
func (f *Facade) titleOrchestrator() *orchestrator.Orchestrator {
	return orchestrator.New(f.Orchestrator.Providers, tools.NewRegistry())
}

// titleSubTurn runs a dedicated turn asking the small model to summarize
// task in a few words wrapped in a <title> tag, translating its Text chunks
// into PartialTitle events and its final parse into one CompleteTitle
// event. It never surfaces the sub-turn's own ContextModified/Complete/Error
// events — those belong to a throwaway Context the title conversation never
// persists.
func (f *Facade) titleSubTurn(ctx context.Context, task string) <-chan orchestrator.Event {
	titleEvents := make(chan orchestrator.Event)

	go func() {
		defer close(titleEvents)

		model := f.Env.SmallModel
		if model == "" {
			model = f.Env.DefaultModel
		}
		titleCtx := domain.Context{}.WithModel(model)

		var buf string
		for e := range f.titleOrchestrator().Turn(ctx, titleCtx, f.Env, titlePrompt(task), noAttachments{}) {
			switch e.Kind {
			case orchestrator.EventText:
				buf += e.Text
				select {
				case titleEvents <- orchestrator.PartialTitleEvent(e.Text):
				case <-ctx.Done():
					return
				}
			case orchestrator.EventError:
				titleEvents <- orchestrator.CompleteTitleEvent(fallbackTitle)
				return
			}
		}

		titleEvents <- orchestrator.CompleteTitleEvent(extractTitle(buf))
	}()

	return titleEvents
}

func titlePrompt(task string) string {
	return "Summarize the following task as a short title of no more than six words, " +
		"wrapped in a single <title>...</title> tag and nothing else.\n\n" + task
}

// extractTitle pulls the <title> tag's text out of a title sub-turn's
// accumulated response, falling back to fallbackTitle when the model never
// emitted one (RecoverXMLToolCall's candidate-tag leniency doesn't apply
// here — this is plain text content, not a tool call, so package xmltag's
// lower-level FindLeafText is used directly).
func extractTitle(response string) string {
	title, ok := xmltag.FindLeafText(response, "title")
	if !ok || title == "" {
		return fallbackTitle
	}
	return title
}

// noAttachments is a prompt.FileReader that resolves no @path references —
// the title sub-turn's task text is a synthetic prompt, not user input that
// could carry file attachments.
type noAttachments struct{}

func (noAttachments) ReadFile(path string) ([]byte, error) {
	return nil, errAttachmentsUnsupported
}

var errAttachmentsUnsupported = errors.New("facade: attachments are not available to the title sub-turn")

// mergeEvents fans two Event channels into one, closing the output once
// both inputs are drained or ctx is cancelled.
func mergeEvents(ctx context.Context, a, b <-chan orchestrator.Event) <-chan orchestrator.Event {
	out := make(chan orchestrator.Event)

	go func() {
		defer close(out)
		for a != nil || b != nil {
			select {
			case e, ok := <-a:
				if !ok {
					a = nil
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			case e, ok := <-b:
				if !ok {
					b = nil
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
