// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels. Every handler built by Setup passes attribute values
// through the redact package, and loggers travel between layers inside a context.Context.
package logger
