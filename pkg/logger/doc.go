// Package logger provides structured logging with configurable log levels.
// It wraps the standard log/slog package, writing text records in development
// and JSON records in production, to stdout and optionally to a log file.
package logger
