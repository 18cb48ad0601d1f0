// Package logger configures the application slog loggers.
//
// In dev/test environments logs are pretty-printed with tint; elsewhere the
// JSON handler is used so log aggregators get structured output.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// InitLogger creates the application logger and installs it as the slog
// default.
func InitLogger(level slog.Level, environment string) *slog.Logger {
	var handler slog.Handler

	switch environment {
	case "dev", "test":
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	appLogger := slog.New(handler)
	slog.SetDefault(appLogger)

	return appLogger
}

// ParseLogLevel converts a LOG_LEVEL string to a slog.Level (defaults to info).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
