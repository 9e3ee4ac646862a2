package logger

import (
	"context"
)

// Logger is the structured logging interface used across the service.
// All log methods accept a message followed by key-value pairs.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs
	Debug(msg string, args ...any)

	// Info logs an info-level message with optional key-value pairs
	Info(msg string, args ...any)

	// Warn logs a warning-level message with optional key-value pairs
	Warn(msg string, args ...any)

	// Error logs an error-level message with optional key-value pairs
	Error(msg string, args ...any)

	// With creates a child logger with additional key-value pairs that
	// will be included in all subsequent log entries
	With(args ...any) Logger

	// WithContext creates a child logger that extracts the request ID
	// from the context when present
	WithContext(ctx context.Context) Logger
}

// Noop returns a logger that discards everything. Used in tests and as
// a safe default when no logger is configured.
func Noop() Logger {
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any)                 {}
func (noopLogger) Info(string, ...any)                  {}
func (noopLogger) Warn(string, ...any)                  {}
func (noopLogger) Error(string, ...any)                 {}
func (n noopLogger) With(...any) Logger                 { return n }
func (n noopLogger) WithContext(context.Context) Logger { return n }
