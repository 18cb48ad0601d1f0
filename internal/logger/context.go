package logger

// context.go provides request-scoped loggers.
//
// The request-logging middleware stores a logger (pre-populated with the
// request id) in the request context. Handlers retrieve it with
// ContextRequestLogger and can attach extra attributes for the final request
// log line with ContextWithLogAttrs.

import (
	"context"
	"log/slog"
	"sync"
)

type contextKey int

const (
	requestLoggerKey contextKey = iota
	logAttrsKey
)

// logAttrs collects attributes added by handlers during a request.
// The middleware stores a pointer in the context at the start of the request
// so additions are visible when the final log line is written.
type logAttrs struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

// ContextWithRequestLogger returns a context carrying the request logger and
// an empty attribute collector. Used by the request-logging middleware.
func ContextWithRequestLogger(ctx context.Context, requestLogger *slog.Logger) context.Context {
	ctx = context.WithValue(ctx, requestLoggerKey, requestLogger)
	return context.WithValue(ctx, logAttrsKey, &logAttrs{})
}

// ContextRequestLogger returns the request logger stored in the context,
// falling back to the process default logger when there is none (e.g. in
// tests that call handlers directly).
func ContextRequestLogger(ctx context.Context) *slog.Logger {
	if requestLogger, ok := ctx.Value(requestLoggerKey).(*slog.Logger); ok {
		return requestLogger
	}
	return slog.Default()
}

// ContextWithLogAttrs records attributes that the request-logging middleware
// includes in the final request log line.
func ContextWithLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	collector, ok := ctx.Value(logAttrsKey).(*logAttrs)
	if !ok {
		return
	}
	collector.mu.Lock()
	defer collector.mu.Unlock()
	collector.attrs = append(collector.attrs, attrs...)
}

// ContextLogAttrs returns the attributes recorded during the request.
func ContextLogAttrs(ctx context.Context) []slog.Attr {
	collector, ok := ctx.Value(logAttrsKey).(*logAttrs)
	if !ok {
		return nil
	}
	collector.mu.Lock()
	defer collector.mu.Unlock()
	return append([]slog.Attr(nil), collector.attrs...)
}
