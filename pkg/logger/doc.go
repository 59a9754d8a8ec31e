// Package logger provides structured logging with configurable log levels.
// It wraps the standard log/slog package and mirrors every record to an
// append-only, size-rotated log file.
package logger
