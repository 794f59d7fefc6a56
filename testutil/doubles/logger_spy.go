package doubles

import (
	"sync"
)

// LogEntry is one captured log call.
type LogEntry struct {
	Level string
	Msg   string
	Args  []any
}

// LoggerSpy is a datastore.Logger implementation that captures log calls for
// assertions.
type LoggerSpy struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewLoggerSpy creates a new, empty LoggerSpy.
func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{}
}

// Debug captures a debug log call.
func (l *LoggerSpy) Debug(msg string, args ...any) { l.record("debug", msg, args) }

// Info captures an info log call.
func (l *LoggerSpy) Info(msg string, args ...any) { l.record("info", msg, args) }

// Warn captures a warning log call.
func (l *LoggerSpy) Warn(msg string, args ...any) { l.record("warn", msg, args) }

// Error captures an error log call.
func (l *LoggerSpy) Error(msg string, args ...any) { l.record("error", msg, args) }

// Entries returns a copy of all captured log calls.
func (l *LoggerSpy) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]LogEntry, len(l.entries))
	copy(entries, l.entries)

	return entries
}

// CountWithLevel returns how many captured calls used the given level.
func (l *LoggerSpy) CountWithLevel(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, entry := range l.entries {
		if entry.Level == level {
			count++
		}
	}

	return count
}

func (l *LoggerSpy) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}
