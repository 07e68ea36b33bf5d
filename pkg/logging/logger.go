// Package logging wraps log/slog with a compact console handler and
// package-level helpers. Verbose diagnostics go to stderr so they never
// interleave with JSON reports on stdout.
package logging

import (
	"log/slog"
	"os"
)

var logger *slog.Logger

func init() {
	logger = slog.New(NewCompactHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// SetLevel replaces the handler with one at the given level.
func SetLevel(level slog.Level) {
	logger = slog.New(NewCompactHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// SetJSONOutput switches to slog's JSON handler, for machine-readable
// diagnostics.
func SetJSONOutput(level slog.Level) {
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// LevelFromVerbosity maps a -v count and an optional explicit name to a
// slog level. The named form wins when both are given.
func LevelFromVerbosity(count int, name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	switch {
	case count >= 2:
		return slog.LevelDebug
	case count == 1:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// Debug logs internal component behavior (per-line parse decisions).
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// Info logs user-facing operations.
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// Warn logs conditions worth a look but not fatal to the run.
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Error logs failures.
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// Fatal logs at error level and exits.
func Fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}
