package provider

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/simonyos/zcode-core/internal/domain"
	"github.com/simonyos/zcode-core/internal/zlog"
)

// Subprocess wraps a local CLI (the Claude Code CLI, the Gemini CLI) as a
// Provider. Grounded on the teacher's internal/llm/claude_cli.go and
// gemini_cli.go, which duplicated this exec.CommandContext + stdout-pipe
// pattern per binary; generalized here into one implementation
// parameterized by binary name and argument builder.
//
// Subprocess CLIs have no native tool-call channel — their output is plain
// text streamed line by line, ending in FinishStop, or in FinishOther when
// the subprocess times out. The
// orchestrator's XML-recovery path (tools.RecoverXMLToolCall) is what
// turns that text into tool calls when the model emits the XML fallback
// format it was instructed to use.
type Subprocess struct {
	Binary     string
	BuildArgs  func(prompt, systemPrompt string) []string
	Timeout    time.Duration
}

// NewSubprocess builds a Subprocess provider around binary, using
// buildArgs to turn a flattened prompt and optional system prompt into CLI
// arguments.
func NewSubprocess(binary string, buildArgs func(prompt, systemPrompt string) []string) *Subprocess {
	return &Subprocess{
		Binary:    binary,
		BuildArgs: buildArgs,
		Timeout:   2 * time.Minute,
	}
}

// ClaudeCLIArgs builds arguments for the Claude Code CLI's --print mode.
func ClaudeCLIArgs(prompt, systemPrompt string) []string {
	args := []string{"--print", prompt, "--tools", ""}
	if systemPrompt != "" {
		args = append(args, "--system-prompt", systemPrompt)
	}
	return args
}

// GeminiCLIArgs builds arguments for the Gemini CLI's non-interactive mode.
func GeminiCLIArgs(prompt, systemPrompt string) []string {
	args := []string{"-p", prompt}
	if systemPrompt != "" {
		args = append(args, "-s", systemPrompt)
	}
	return args
}

func flattenPrompt(ctx domain.Context) (prompt, systemPrompt string) {
	var parts []string
	for _, msg := range ctx.Messages {
		if msg.Kind != domain.ContextMessageContent {
			continue
		}
		switch msg.Role {
		case domain.RoleSystem:
			systemPrompt = msg.Text
		case domain.RoleUser:
			parts = append(parts, "User: "+msg.Text)
		case domain.RoleAssistant:
			parts = append(parts, "Assistant: "+msg.Text)
		}
	}
	prompt = strings.Join(parts, "\n\n")
	if len(parts) > 1 {
		prompt += "\n\nAssistant:"
	}
	return prompt, systemPrompt
}

// Chat implements Provider by invoking the subprocess and streaming its
// stdout line by line as Content chunks.
func (s *Subprocess) Chat(ctx context.Context, model domain.ModelId, chatCtx domain.Context) (<-chan domain.ChatCompletionMessage, error) {
	prompt, systemPrompt := flattenPrompt(chatCtx)
	args := s.BuildArgs(prompt, systemPrompt)

	execCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	cmd := exec.CommandContext(execCtx, s.Binary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%s: stdout pipe: %w", s.Binary, err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%s: start: %w", s.Binary, err)
	}

	out := make(chan domain.ChatCompletionMessage)
	go func() {
		defer close(out)
		defer cancel()

		var full strings.Builder
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := scanner.Text()
			full.WriteString(line)
			full.WriteString("\n")
			select {
			case out <- domain.ChatCompletionMessage{Content: line + "\n"}:
			case <-execCtx.Done():
				return
			}
		}

		if err := cmd.Wait(); err != nil {
			zlog.FromContext(ctx).Warn().Err(err).Str("binary", s.Binary).Msg("subprocess exited with error")
		}
		reason := domain.FinishStop
		if execCtx.Err() == context.DeadlineExceeded {
			reason = domain.FinishOther
			zlog.FromContext(ctx).Warn().Str("binary", s.Binary).Msg("subprocess timed out")
		}
		out <- domain.ChatCompletionMessage{FinishReason: &reason}
	}()

	return out, nil
}

// Models is unimplemented: subprocess CLIs don't expose a listing and the
// configured model is baked into the binary's own default or env vars.
func (s *Subprocess) Models(ctx context.Context) ([]domain.ModelId, error) {
	return nil, fmt.Errorf("%s: model listing not supported", s.Binary)
}

// Parameters always reports ToolSupported=false: subprocess CLIs speak no
// native tool-call protocol this client understands.
func (s *Subprocess) Parameters(ctx context.Context, model domain.ModelId) (domain.Parameters, error) {
	return domain.Parameters{ToolSupported: false}, nil
}
