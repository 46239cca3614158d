package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a JSON logger writing to w. Level is one of debug, info, warn
// or error; anything else selects info.
func New(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return slog.New(handler)
}

// Init creates the process logger on stdout and installs it as the slog
// default. Development environments log at debug level.
func Init(env string) *slog.Logger {
	level := "info"
	if !strings.EqualFold(env, "production") {
		level = "debug"
	}
	l := New(os.Stdout, level).With("env", env)
	slog.SetDefault(l)
	return l
}

// Error logs err with the given context attributes.
func Error(l *slog.Logger, err error, msg string, args ...any) {
	if l == nil {
		l = slog.Default()
	}
	l.Error(msg, append([]any{"error", err}, args...)...)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
