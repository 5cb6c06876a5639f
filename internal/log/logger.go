package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

// Setup initializes the global logger. Invalid levels fall back to INFO.
// When hardened is true every record passes through the masking handler
// before emission, so sensitive fields never reach persistent logs.
// The flag is fixed at process start; it is never mutated afterwards.
func Setup(level string, hardened bool) {
	once.Do(func() {
		logger = newLogger(os.Stdout, level, hardened)
		slog.SetDefault(logger)
	})
}

func newLogger(w io.Writer, level string, hardened bool) *slog.Logger {
	var l slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		l = slog.LevelDebug
	case "WARN":
		l = slog.LevelWarn
	case "ERROR":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l})
	if hardened {
		handler = NewMaskingHandler(handler)
	}
	return slog.New(handler)
}

// Get returns the configured logger, or a non-hardened default if Setup
// hasn't been called.
func Get() *slog.Logger {
	if logger == nil {
		Setup("INFO", false)
	}
	return logger
}

// WithComponent returns a logger with the component field set.
func WithComponent(name string) *slog.Logger {
	return Get().With(slog.String("component", name))
}

// Info logs at INFO level.
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// Warn logs at WARN level.
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

// Error logs at ERROR level.
func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}
