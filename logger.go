package colstore

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with colstore-specific per-operation helpers,
// so call sites log a table event with consistent field names instead of
// hand-rolling slog.Attr lists.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger from handler. If handler is nil, uses a
// text handler to stderr at Info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON-formatted logs to
// stderr at the given minimum level.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that writes human-readable text logs to
// stderr at the given minimum level.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger returns a Logger that discards everything.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(1000)}))}
}

// WithTable returns a Logger annotated with the table's class and
// directory, for every subsequent log line.
func (l *Logger) WithTable(class, dir string) *Logger {
	return &Logger{Logger: l.Logger.With("table_class", class, "table_dir", dir)}
}

// LogInsert logs an insertRow outcome.
func (l *Logger) LogInsert(ctx context.Context, gid uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed", "error", err)
		return
	}
	l.DebugContext(ctx, "insert completed", "gid", gid)
}

// LogUpdate logs an updateRow outcome.
func (l *Logger) LogUpdate(ctx context.Context, gid uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed", "gid", gid, "error", err)
		return
	}
	l.DebugContext(ctx, "update completed", "gid", gid)
}

// LogRemove logs a removeRow outcome.
func (l *Logger) LogRemove(ctx context.Context, gid uint64, removed bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "remove failed", "gid", gid, "error", err)
		return
	}
	l.DebugContext(ctx, "remove completed", "gid", gid, "removed", removed)
}

// LogFlush logs a flush-and-freeze pass.
func (l *Logger) LogFlush(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "flush failed", "error", err)
		return
	}
	l.InfoContext(ctx, "flush completed")
}

// LogMerge logs a compress/merge pass across a segment range.
func (l *Logger) LogMerge(ctx context.Context, from, to int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed", "from", from, "to", to, "error", err)
		return
	}
	l.InfoContext(ctx, "merge completed", "from", from, "to", to)
}

// LogPurge logs a purge-delete pass over a single segment.
func (l *Logger) LogPurge(ctx context.Context, segIdx int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "purge failed", "segment", segIdx, "error", err)
		return
	}
	l.InfoContext(ctx, "purge completed", "segment", segIdx)
}

// LogDrop logs a dropTable outcome.
func (l *Logger) LogDrop(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "drop failed", "error", err)
		return
	}
	l.InfoContext(ctx, "drop completed")
}
