package observability

import (
	"context"
	"log/slog"
)

// SlogLogger adapts a *slog.Logger to the Logger interface, for
// applications that already standardize on log/slog's structured logging.
type SlogLogger struct {
	Logger *slog.Logger
}

// NewSlogLogger wraps logger as a Logger. A nil logger uses slog.Default().
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{Logger: logger}
}

// Log implements Logger.
func (s *SlogLogger) Log(e Event) {
	level := slog.LevelInfo
	switch e.Level {
	case LevelDebug:
		level = slog.LevelDebug
	case LevelWarn:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}
	attrs := make([]slog.Attr, 0, len(e.Fields)+4)
	if e.Node != "" {
		attrs = append(attrs, slog.String("node", e.Node))
	}
	if e.Edge != "" {
		attrs = append(attrs, slog.String("edge", e.Edge))
	}
	if e.Category != "" {
		attrs = append(attrs, slog.String("category", e.Category))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.Any("error", e.Err))
	}
	for k, v := range e.Fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.Logger.LogAttrs(context.Background(), level, e.Message, attrs...)
}
