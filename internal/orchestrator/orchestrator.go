// Package orchestrator drives the agent loop: the streaming state machine
// that interleaves model responses with tool executions. This is the
// teacher's Agent.ChatStream, re-targeted from []llm.Message to
// domain.Context and from the teacher's own XML-only ParseToolCalls to the
// two-channel native/XML assembly in package tools. Tool calls execute
// sequentially within one sub-turn — not in parallel — for the same
// streaming-order reason the teacher's own ChatStream doc comment gives:
// predictable interleaving of tool_start/tool_result beats throughput.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/simonyos/zcode-core/internal/domain"
	"github.com/simonyos/zcode-core/internal/prompt"
	"github.com/simonyos/zcode-core/internal/provider"
	"github.com/simonyos/zcode-core/internal/tools"
	"github.com/simonyos/zcode-core/internal/zcerr"
	"github.com/simonyos/zcode-core/internal/zlog"
)

// compactionKeepPairs bounds how many trailing user/assistant exchanges
// domain.Context.Compact keeps when a provider reports FinishLength — small
// enough to meaningfully shrink a context that just overflowed, large enough
// to keep the immediately relevant exchanges intact.
const compactionKeepPairs = 10

// Orchestrator holds the shared, immutable-after-construction services the
// agent loop dispatches to: the provider registry and the tool registry.
// Both are safe for concurrent use across turns (spec.md §5 "Shared
// resources").
type Orchestrator struct {
	Providers *provider.Registry
	Tools     *tools.Registry
}

// New builds an Orchestrator around the given provider and tool registries.
func New(providers *provider.Registry, toolRegistry *tools.Registry) *Orchestrator {
	return &Orchestrator{Providers: providers, Tools: toolRegistry}
}

// Turn runs the agent loop for one user message against conversationCtx,
// returning a stream of Events. The channel is closed when the loop
// terminates: no tool call on the final turn, a provider error, or ctx
// cancellation. Every termination path emits a terminal Event first
// (Complete or Error) except cancellation, which per spec.md §5 ends the
// stream silently.
func (o *Orchestrator) Turn(ctx context.Context, conversationCtx domain.Context, env domain.Environment, userText string, reader prompt.FileReader) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)
		o.run(ctx, conversationCtx, env, userText, reader, events)
	}()

	return events
}

func (o *Orchestrator) run(ctx context.Context, conversationCtx domain.Context, env domain.Environment, userText string, reader prompt.FileReader, events chan<- Event) {
	model := conversationCtx.Model
	if model == "" {
		model = env.DefaultModel
	}

	log := zlog.FromContext(ctx)

	p, _, err := o.Providers.Resolve(model)
	if err != nil {
		log.Error().Err(err).Str("model", string(model)).Msg("resolve provider")
		events <- ErrorEvent(zcerr.Provider(err))
		return
	}

	log.Debug().Str("model", string(model)).Int("messages", len(conversationCtx.Messages)).Msg("turn starting")

	params, err := p.Parameters(ctx, model)
	if err != nil {
		log.Error().Err(err).Str("model", string(model)).Msg("fetch provider parameters")
		events <- ErrorEvent(zcerr.Provider(err))
		return
	}

	sysPrompt, err := prompt.RenderSystemPrompt(prompt.NewSystemContext(env, o.Tools.UsagePrompt(), params.ToolSupported))
	if err != nil {
		log.Error().Err(err).Msg("render system prompt")
		events <- ErrorEvent(zcerr.Input("render system prompt: %v", err))
		return
	}

	userPrompt, err := prompt.BuildUserPrompt(userText, reader)
	if err != nil {
		log.Error().Err(err).Msg("render user prompt")
		events <- ErrorEvent(zcerr.Input("render user prompt: %v", err))
		return
	}

	cctx := conversationCtx.WithModel(model).SetSystemMessage(sysPrompt)
	cctx = cctx.WithTools(toolCatalog(o.Tools))
	cctx = cctx.AddMessage(domain.ContentMessage(domain.RoleUser, userPrompt, nil))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		events <- ContextModifiedEvent(cctx)

		stream, err := p.Chat(ctx, model, cctx)
		if err != nil {
			log.Error().Err(err).Str("model", string(model)).Msg("open chat stream")
			events <- ErrorEvent(zcerr.Provider(err))
			return
		}

		var buf string
		var parts []domain.ToolCallPart
		var finish domain.FinishReason
		haveFinish := false

		for chunk := range stream {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if chunk.Content != "" {
				buf += chunk.Content
				events <- TextEvent(chunk.Content)
			}
			for _, part := range chunk.ToolCallParts {
				if len(parts) == 0 && part.Name != "" {
					events <- ToolCallDetectedEvent(part.Name)
				}
				parts = append(parts, part)
			}
			if chunk.Usage != nil {
				events <- UsageEvent(*chunk.Usage)
			}
			if chunk.FinishReason != nil {
				finish = *chunk.FinishReason
				haveFinish = true
			}
		}

		if !haveFinish {
			if ctx.Err() != nil {
				return
			}
			log.Error().Str("model", string(model)).Msg("chat stream ended without a finish reason")
			events <- ErrorEvent(zcerr.Provider(fmt.Errorf("chat stream ended without a finish reason")))
			return
		}

		var call *domain.ToolCall
		if haveFinish && finish == domain.FinishToolCalls && len(parts) > 0 {
			assembled, ok, err := tools.Assemble(parts)
			if err != nil {
				// A malformed tool call feeds back into context so the
				// model can self-correct, per spec.md §2 error taxonomy.
				result := domain.Failure(assembled.Name, assembled.CallId, zcerr.ToolSchema(err).Error())
				cctx = cctx.AddMessage(domain.ContentMessage(domain.RoleAssistant, buf, nil))
				cctx = cctx.AddMessage(domain.ToolMessage(result))
				events <- ToolCallEndEvent(result)
				continue
			}
			if ok {
				call = &assembled
			}
		} else if haveFinish && finish == domain.FinishStop {
			if recovered, ok := o.Tools.RecoverXMLToolCall(buf); ok {
				call = &recovered
			}
		} else if haveFinish && finish == domain.FinishLength {
			// The provider truncated its reply for running out of context
			// room, not because the turn finished — keep the partial
			// reply, compact the history, and re-enter the provider rather
			// than surfacing a tool call or completing the turn.
			cctx = cctx.AddMessage(domain.ContentMessage(domain.RoleAssistant, buf, nil))
			cctx = cctx.Compact(compactionKeepPairs)
			log.Warn().Str("model", string(model)).Msg("finish reason length, compacting context")
			continue
		}

		cctx = cctx.AddMessage(domain.ContentMessage(domain.RoleAssistant, buf, call))

		if call == nil {
			events <- CompleteEvent()
			return
		}

		events <- ToolCallStartEvent(*call)
		result := o.dispatch(ctx, *call)
		events <- ToolCallEndEvent(result)
		cctx = cctx.AddMessage(domain.ToolMessage(result))
	}
}

// dispatch converts a domain.ToolCall into the tools package's own call
// shape, executes it, and converts the result back. The two packages use
// different wire shapes for arguments (json.RawMessage vs map[string]any)
// because package tools predates this orchestrator and is shared with the
// XML-fallback path; this is the single seam that bridges them. A
// malformed-arguments decode failure is a ToolSchemaError — per spec.md
// §2/§4.5 it feeds back into context as a failed ToolResult rather than
// terminating the turn, exactly like an Assemble parse failure does.
func (o *Orchestrator) dispatch(ctx context.Context, call domain.ToolCall) domain.ToolResult {
	log := zlog.FromContext(ctx)

	var args map[string]any
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			log.Warn().Err(err).Str("tool", string(call.Name)).Msg("decode tool arguments")
			cause := zcerr.ToolSchema(fmt.Errorf("decode tool arguments: %w", err))
			return domain.Failure(call.Name, call.CallId, cause.Error())
		}
	}

	toolCall := tools.ToolCall{ID: string(call.CallId), Name: string(call.Name), Arguments: args}
	result := o.Tools.Execute(ctx, toolCall)

	if result.Success {
		log.Debug().Str("tool", string(call.Name)).Msg("tool call succeeded")
		return domain.Success(call.Name, call.CallId, result.Output)
	}
	log.Warn().Str("tool", string(call.Name)).Str("error", result.Error).Msg("tool call failed")
	return domain.Failure(call.Name, call.CallId, result.Error)
}

func toolCatalog(registry *tools.Registry) []domain.ToolDefinition {
	defs := registry.List()
	catalog := make([]domain.ToolDefinition, 0, len(defs))
	for _, def := range defs {
		schema, _ := json.Marshal(def.Parameters)
		catalog = append(catalog, domain.ToolDefinition{
			Name:        domain.ToolName(def.Name),
			Description: def.Description,
			Schema:      schema,
		})
	}
	return catalog
}
