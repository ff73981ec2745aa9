package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger writes one JSON object per line.
type Logger struct {
	base *slog.Logger
}

func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout)
}

func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{base: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

func (l *Logger) Info(message string, fields map[string]any) {
	l.write(slog.LevelInfo, message, fields)
}

func (l *Logger) Warn(message string, fields map[string]any) {
	l.write(slog.LevelWarn, message, fields)
}

func (l *Logger) Error(message string, fields map[string]any) {
	l.write(slog.LevelError, message, fields)
}

// With returns a logger that adds fields to every line.
func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{base: l.base.With(attrs(fields)...)}
}

func (l *Logger) write(level slog.Level, message string, fields map[string]any) {
	l.base.Log(context.Background(), level, message, attrs(fields)...)
}

func attrs(fields map[string]any) []any {
	out := make([]any, 0, len(fields))
	for k, v := range fields {
		out = append(out, slog.Any(k, v))
	}
	return out
}
