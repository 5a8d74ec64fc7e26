// Package zlog wires up the structured logger every other package logs
// through: zerolog, configured once at process start and threaded via
// context rather than a package-level global, so tests can swap in a
// silent or buffered logger without touching process state.
package zlog

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

type contextKey struct{}

// New builds a zerolog.Logger writing to w (os.Stderr in production, a
// buffer in tests) with pretty console output when attached to a
// terminal and plain JSON otherwise — the same split the teacher's CLI
// made for interactive vs piped output.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// WithLogger attaches logger to ctx.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger attached to ctx, or a disabled logger if
// none was attached — callers never need a nil check.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
