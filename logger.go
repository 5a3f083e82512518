package brazekit

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// LevelVerbose sits below slog's debug level. The host's verbose
// severity maps onto it.
const LevelVerbose = slog.LevelDebug - 4

// Logger is the leveled sink the destination reports through. Runtime
// transformation fallbacks log at Verbose or Debug; the only Warn the
// core emits is a failed flush.
type Logger interface {
	Verbose(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type slogLogger struct {
	l *slog.Logger
}

// NewLogger adapts an slog.Logger to the destination's sink interface.
// A nil logger falls back to slog.Default.
func NewLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

// NewTextLogger builds a text-format sink writing to w at the named
// severity: verbose, debug, info, warn, error, or none.
func NewTextLogger(w io.Writer, level string) Logger {
	if strings.EqualFold(strings.TrimSpace(level), "none") {
		return NopLogger()
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &slogLogger{l: slog.New(handler)}
}

// NopLogger is the "none" severity sink: everything discarded.
func NopLogger() Logger {
	return &slogLogger{l: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "verbose":
		return LevelVerbose
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *slogLogger) Verbose(msg string, args ...any) {
	s.l.Log(context.Background(), LevelVerbose, msg, args...)
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }
