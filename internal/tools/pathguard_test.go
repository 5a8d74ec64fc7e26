package tools

import (
	"context"
	"path/filepath"
	"testing"
)

func TestWriteFileToolRejectsRelativePath(t *testing.T) {
	tool := NewWriteFileTool(nil)
	result := tool.Execute(context.Background(), map[string]any{
		"path":    "relative/path.txt",
		"content": "hi",
	})
	if result.Success {
		t.Fatal("expected relative path to be rejected")
	}
}

func TestEditToolRejectsRelativePath(t *testing.T) {
	tool := NewEditTool(nil)
	result := tool.Execute(context.Background(), map[string]any{
		"path":       "relative/path.txt",
		"old_string": "a",
		"new_string": "b",
	})
	if result.Success {
		t.Fatal("expected relative path to be rejected")
	}
}

func TestWriteFileToolAcceptsAbsolutePath(t *testing.T) {
	tmpDir := t.TempDir()
	tool := NewWriteFileTool(nil)
	result := tool.Execute(context.Background(), map[string]any{
		"path":    filepath.Join(tmpDir, "ok.txt"),
		"content": "hi",
	})
	if !result.Success {
		t.Fatalf("expected absolute path write to succeed, got error: %s", result.Error)
	}
}
