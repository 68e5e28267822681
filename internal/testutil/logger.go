package testutil

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
)

// NopLogger returns a logger that discards all output.
// Use this in tests to avoid log noise.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// LogRecorder is a slog.Handler that keeps the message and level of every
// record, for asserting that something was logged
type LogRecorder struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogEntry is one recorded log line
type LogEntry struct {
	Level   slog.Level
	Message string
}

// NewLogRecorder returns a recorder and a logger writing to it
func NewLogRecorder() (*LogRecorder, *slog.Logger) {
	r := &LogRecorder{}
	return r, slog.New(r)
}

func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *LogRecorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, LogEntry{Level: rec.Level, Message: rec.Message})
	return nil
}

// Attributes are not recorded, so derived loggers share the same entries
func (r *LogRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *LogRecorder) WithGroup(string) slog.Handler      { return r }

// Entries returns a copy of everything logged so far
func (r *LogRecorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// Logged reports whether a record with the message was logged at level
func (r *LogRecorder) Logged(level slog.Level, message string) bool {
	return slices.Contains(r.Entries(), LogEntry{Level: level, Message: message})
}
