// Package testutils holds helpers shared by package tests.
package testutils

import (
	"sync"
)

// TestingT is the subset of testing.T the helpers report through
type TestingT interface {
	Errorf(format string, args ...any)
}

// FieldsToMap converts alternating key/value log fields to a map, reporting
// malformed pairs through t
func FieldsToMap(t TestingT, fields []any) map[string]any {
	fieldsMap := make(map[string]any, len(fields)/2)

	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			t.Errorf("Malformed fields slice: missing value for key at index %d", i)
			continue
		}
		key, ok := fields[i].(string)
		if !ok {
			t.Errorf("Malformed fields slice: key at index %d is not a string, got %T", i, fields[i])
			continue
		}
		fieldsMap[key] = fields[i+1]
	}

	return fieldsMap
}

// Log levels recorded by RecordingLogger
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Entry is one recorded log call
type Entry struct {
	Level  string
	Msg    string
	Fields []any
}

// RecordingLogger keeps every call in memory. It satisfies the
// application's logger interface and is safe for concurrent use.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []Entry
}

func (l *RecordingLogger) record(level, msg string, fields []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg, Fields: fields})
}

func (l *RecordingLogger) Debug(msg string, fields ...any) { l.record(LevelDebug, msg, fields) }
func (l *RecordingLogger) Info(msg string, fields ...any)  { l.record(LevelInfo, msg, fields) }
func (l *RecordingLogger) Warn(msg string, fields ...any)  { l.record(LevelWarn, msg, fields) }
func (l *RecordingLogger) Error(msg string, fields ...any) { l.record(LevelError, msg, fields) }

// Entries returns the calls at level, or every call when level is empty
func (l *RecordingLogger) Entries(level string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the first call at level with exactly msg
func (l *RecordingLogger) Find(level, msg string) (Entry, bool) {
	for _, e := range l.Entries(level) {
		if e.Msg == msg {
			return e, true
		}
	}
	return Entry{}, false
}
