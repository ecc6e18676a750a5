package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger defines the interface for logging in Protoscribe.
// It provides standard logging levels and a mechanism to add structured context.
type Logger interface {
	// Debug logs a message at the debug level.
	Debug(msg string, args ...any)
	// Info logs a message at the info level.
	Info(msg string, args ...any)
	// Warn logs a message at the warning level.
	Warn(msg string, args ...any)
	// Error logs a message at the error level.
	Error(msg string, args ...any)
	// With returns a new Logger with the given structured context added.
	With(args ...any) Logger
}

// Log is the global logger instance used throughout the application.
// It writes JSON to stderr so that stdout stays reserved for compiled documents.
var Log Logger = &wrapper{l: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
// Anything else is treated as info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger initializes the global Log instance with the specified level and
// format ("json" or "text") writing to stderr.
func InitLogger(level, format string) {
	Log = NewLogger(os.Stderr, level, format)
}

// NewLogger builds a Logger on w without touching the global instance.
func NewLogger(w io.Writer, level, format string) Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		// Source info only pays off when debugging
		AddSource: level == "debug",
	}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &wrapper{l: slog.New(handler)}
}

type wrapper struct {
	l *slog.Logger
}

func (w *wrapper) Debug(msg string, args ...any) { w.l.Debug(msg, args...) }
func (w *wrapper) Info(msg string, args ...any)  { w.l.Info(msg, args...) }
func (w *wrapper) Warn(msg string, args ...any)  { w.l.Warn(msg, args...) }
func (w *wrapper) Error(msg string, args ...any) { w.l.Error(msg, args...) }
func (w *wrapper) With(args ...any) Logger       { return &wrapper{l: w.l.With(args...)} }

// Personal.AI order the ending
