package telemetry

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// Logger is a leveled logger carrying a stack of naming contexts. Each entry
// on the stack prefixes the message ("Pipeline: SignUp: creating user") and
// is repeated in the "context" attribute. The stack is for tracing only.
//
// A Logger is not safe for concurrent use; Fork one per request.
type Logger struct {
	base     *slog.Logger
	ctx      context.Context
	contexts []string
}

// NewLogger wraps base. A nil base uses slog.Default().
func NewLogger(base *slog.Logger) *Logger {
	if base == nil {
		base = slog.Default()
	}
	return &Logger{base: base, ctx: context.Background()}
}

// Discard returns a Logger that writes nothing; handy in tests.
func Discard() *Logger {
	return NewLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Fork returns an independent copy sharing the base logger and carrying ctx
// for trace correlation. Pushes and pops on the copy do not affect l.
func (l *Logger) Fork(ctx context.Context) *Logger {
	contexts := make([]string, len(l.contexts))
	copy(contexts, l.contexts)
	if ctx == nil {
		ctx = context.Background()
	}
	return &Logger{base: l.base, ctx: ctx, contexts: contexts}
}

// With returns a copy whose records carry args as extra attributes.
func (l *Logger) With(args ...any) *Logger {
	forked := l.Fork(l.ctx)
	forked.base = l.base.With(args...)
	return forked
}

// AppendContext pushes name onto the context stack.
func (l *Logger) AppendContext(name string) {
	l.contexts = append(l.contexts, name)
}

// PopContext removes the most recently pushed name. Popping an empty stack is a no-op.
func (l *Logger) PopContext() {
	if len(l.contexts) == 0 {
		return
	}
	l.contexts = l.contexts[:len(l.contexts)-1]
}

// Contexts returns a copy of the current stack, outermost first.
func (l *Logger) Contexts() []string {
	out := make([]string, len(l.contexts))
	copy(out, l.contexts)
	return out
}

func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l *Logger) log(level slog.Level, msg string, args []any) {
	if !l.base.Enabled(l.ctx, level) {
		return
	}
	if len(l.contexts) > 0 {
		joined := strings.Join(l.contexts, ": ")
		msg = joined + ": " + msg
		args = append(args, slog.String("context", joined))
	}
	l.base.Log(l.ctx, level, msg, args...)
}
