package tools

import "testing"

func TestUsagePromptDeterministicOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(NewListDirTool())
	r.Register(NewReadFileTool())

	first := r.UsagePrompt()
	second := r.UsagePrompt()
	if first != second {
		t.Fatal("expected UsagePrompt to be deterministic across calls")
	}

	// list_dir sorts before read_file
	listIdx := indexOf(first, "list_dir")
	readIdx := indexOf(first, "read_file")
	if listIdx == -1 || readIdx == -1 || listIdx > readIdx {
		t.Fatalf("expected tools sorted by name, got: %s", first)
	}
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
