package prompt

import (
	"strings"
	"testing"

	"github.com/simonyos/zcode-core/internal/domain"
)

func TestRenderSystemPromptToolSupported(t *testing.T) {
	env := domain.Environment{WorkingDir: "/work", DefaultModel: "anthropic/claude-sonnet-4"}
	sctx := NewSystemContext(env, "read_file: reads a file", true)

	out, err := RenderSystemPrompt(sctx)
	if err != nil {
		t.Fatalf("RenderSystemPrompt() error = %v", err)
	}
	if !strings.Contains(out, "issued natively") {
		t.Error("expected native tool-call instructions when ToolSupported is true")
	}
	if strings.Contains(out, "XML fragment") {
		t.Error("did not expect XML fallback instructions when ToolSupported is true")
	}
	if !strings.Contains(out, "/work") {
		t.Error("expected working directory in rendered prompt")
	}
	if !strings.Contains(out, "read_file: reads a file") {
		t.Error("expected tool catalog in rendered prompt")
	}
}

func TestRenderSystemPromptXMLFallback(t *testing.T) {
	env := domain.Environment{WorkingDir: "/work", DefaultModel: "ollama/llama3.1"}
	sctx := NewSystemContext(env, "no tools", false)

	out, err := RenderSystemPrompt(sctx)
	if err != nil {
		t.Fatalf("RenderSystemPrompt() error = %v", err)
	}
	if !strings.Contains(out, "XML fragment") {
		t.Error("expected XML fallback instructions when ToolSupported is false")
	}
}
