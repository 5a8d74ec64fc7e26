package zlog

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestFromContextReturnsAttachedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.InfoLevel)
	ctx := WithLogger(context.Background(), logger)

	zlog := FromContext(ctx)
	zlog.Info().Msg("hello")

	if buf.Len() == 0 {
		t.Fatal("expected log output to be written")
	}
}

func TestFromContextWithoutAttachedLoggerIsSilent(t *testing.T) {
	logger := FromContext(context.Background())
	if logger.GetLevel() != zerolog.Disabled {
		t.Fatalf("expected a disabled logger when none attached, got level %v", logger.GetLevel())
	}
}
