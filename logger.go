package lacuna

import (
	"context"
	"log/slog"
	"os"

	"github.com/lacunadb/lacuna/index"
	"github.com/lacunadb/lacuna/model"
)

// Logger wraps slog.Logger with lacuna-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithIndex adds the index definition to the logger.
func (l *Logger) WithIndex(def index.Definition) *Logger {
	return &Logger{
		Logger: l.Logger.With("columns", def.Columns, "backing", def.Backing.String()),
	}
}

// WithKey adds a key field to the logger.
func (l *Logger) WithKey(key model.PointKey) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", key.String()),
	}
}

// WithRange adds a range field to the logger.
func (l *Logger) WithRange(rng model.RangeKey) *Logger {
	return &Logger{
		Logger: l.Logger.With("range", rng.String()),
	}
}

// LogPublish logs a publish operation.
func (l *Logger) LogPublish(ctx context.Context, ops int) {
	l.DebugContext(ctx, "publish completed",
		"ops", ops,
	)
}

// LogEviction logs an eviction pass.
func (l *Logger) LogEviction(ctx context.Context, victims int, bytes int64) {
	l.InfoContext(ctx, "eviction completed",
		"victims", victims,
		"bytes", bytes,
	)
}

// LogFill logs one fill attempt of the replay loop.
func (l *Logger) LogFill(ctx context.Context, target string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fill failed",
			"target", target,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "fill completed",
			"target", target,
		)
	}
}

// LogAdmit logs the outcome of an admission attempt.
func (l *Logger) LogAdmit(ctx context.Context, bytes int64, evictions int, err error) {
	if err != nil {
		l.WarnContext(ctx, "admission failed",
			"bytes", bytes,
			"evictions", evictions,
			"error", err,
		)
	} else if evictions > 0 {
		l.InfoContext(ctx, "admission required eviction",
			"bytes", bytes,
			"evictions", evictions,
		)
	} else {
		l.DebugContext(ctx, "admission completed",
			"bytes", bytes,
		)
	}
}
