package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestListDirToolHonorsZcodeignore confirms list_dir skips entries matched
// by a .zcodeignore file in the listed directory — package ignore adapted
// from the teacher's file-completer helper into a tool-visibility filter.
func TestListDirToolHonorsZcodeignore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".zcodeignore"), []byte("secret.txt\n"), 0o644); err != nil {
		t.Fatalf("write .zcodeignore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("shh"), 0o644); err != nil {
		t.Fatalf("write secret.txt: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "visible.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write visible.txt: %v", err)
	}

	tool := NewListDirTool()
	result := tool.Execute(context.Background(), map[string]any{"path": dir})
	if !result.Success {
		t.Fatalf("Execute() failed: %s", result.Error)
	}
	if !strings.Contains(result.Output, "visible.txt") {
		t.Errorf("expected output to contain visible.txt, got %q", result.Output)
	}
	if strings.Contains(result.Output, "secret.txt") {
		t.Errorf("expected secret.txt to be filtered out by .zcodeignore, got %q", result.Output)
	}
}
