package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"apptime/internal/testutils"
)

// Mock RepositoryError for testing
type mockRepositoryError struct {
	message   string
	code      string
	retryable bool
	context   map[string]string
	timestamp time.Time
}

func (m *mockRepositoryError) Error() string                 { return m.message }
func (m *mockRepositoryError) GetCode() string               { return m.code }
func (m *mockRepositoryError) IsRetryable() bool             { return m.retryable }
func (m *mockRepositoryError) GetContext() map[string]string { return m.context }
func (m *mockRepositoryError) GetTimestamp() time.Time       { return m.timestamp }

// captureDefaultOutput redirects NewDefaultLogger output for the test duration
func captureDefaultOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := defaultOutput
	defaultOutput = &buf
	t.Cleanup(func() { defaultOutput = original })
	return &buf
}

func decodeEntry(t *testing.T, output string) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log entry: %v, output: %q", err, output)
	}
	return entry
}

func TestNewDefaultLogger(t *testing.T) {
	logger := NewDefaultLogger()
	if logger == nil {
		t.Fatal("NewDefaultLogger() returned nil")
	}

	if _, ok := logger.(*DefaultLogger); !ok {
		t.Errorf("NewDefaultLogger() returned %T, expected *DefaultLogger", logger)
	}
}

func TestDefaultLogger_LogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{Level: "debug", Output: &buf})

	tests := []struct {
		name           string
		logFunc        func(string, ...interface{})
		message        string
		fields         []interface{}
		levelToken     string
		expectedFields map[string]interface{}
	}{
		{
			name:           "Debug",
			logFunc:        logger.Debug,
			message:        "debug message",
			fields:         []interface{}{"key", "value"},
			levelToken:     "debug",
			expectedFields: map[string]interface{}{"key": "value"},
		},
		{
			name:           "Info",
			logFunc:        logger.Info,
			message:        "info message",
			fields:         []interface{}{"count", 42},
			levelToken:     "info",
			expectedFields: map[string]interface{}{"count": float64(42)}, // JSON numbers are float64
		},
		{
			name:           "Warn",
			logFunc:        logger.Warn,
			message:        "warn message",
			fields:         []interface{}{},
			levelToken:     "warn",
			expectedFields: map[string]interface{}{},
		},
		{
			name:           "Error",
			logFunc:        logger.Error,
			message:        "error message",
			fields:         []interface{}{"error", errors.New("test error")},
			levelToken:     "error",
			expectedFields: map[string]interface{}{"error": "test error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc(tt.message, tt.fields...)

			entry := decodeEntry(t, buf.String())

			if entry["time"] == nil {
				t.Error("Expected log entry to have time field")
			}
			if entry["level"] != tt.levelToken {
				t.Errorf("Expected level %q, got %q", tt.levelToken, entry["level"])
			}
			if entry["message"] != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, entry["message"])
			}

			for key, expectedValue := range tt.expectedFields {
				actualValue, exists := entry[key]
				if !exists {
					t.Errorf("Expected field %q to exist", key)
					continue
				}
				if actualValue != expectedValue {
					t.Errorf("Expected field %q to be %v, got %v", key, expectedValue, actualValue)
				}
			}
		})
	}
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{Level: "warn", Output: &buf})

	logger.Debug("hidden")
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("Expected debug and info to be filtered, got %q", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected warn entry, got %q", buf.String())
	}
}

func TestDefaultLogger_MalformedFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{Level: "info", Output: &buf})

	logger.Info("odd fields", 7, "seven", "dangling")

	entry := decodeEntry(t, buf.String())
	if entry["field_0"] != float64(7) || entry["field_0_value"] != "seven" {
		t.Errorf("Expected non-string key to be indexed, got %v", entry)
	}
	if entry["field_1"] != "dangling" {
		t.Errorf("Expected dangling value to be indexed, got %v", entry)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(NewLogger(Options{Output: &buf}), "tracker")

	logger.Info("tick")

	entry := decodeEntry(t, buf.String())
	if entry["component"] != "tracker" {
		t.Errorf("Expected component field, got %v", entry["component"])
	}

	mock := &testutils.RecordingLogger{}
	if WithComponent(mock, "x") != Logger(mock) {
		t.Error("Expected non-zerolog loggers to be returned unchanged")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "debug",
		"WARNING": "warn",
		" error ": "error",
		"":        "info",
		"bogus":   "info",
	}
	for in, want := range cases {
		if got := ParseLevel(in).String(); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestDefaultLogger_TypedFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{Level: "info", Output: &buf})

	at := time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC)
	logger.Info("typed", "wait", 1500*time.Millisecond, "at", at, "err", errors.New("locked"), "nil_err", error(nil))

	entry := decodeEntry(t, buf.String())
	if entry["wait"] != float64(1500) {
		t.Errorf("Expected duration in milliseconds, got %v", entry["wait"])
	}
	if entry["at"] != "2024-05-06T09:00:00Z" {
		t.Errorf("Expected RFC3339 time, got %v", entry["at"])
	}
	if entry["err"] != "locked" {
		t.Errorf("Expected error text, got %v", entry["err"])
	}
	if _, ok := entry["nil_err"]; !ok {
		t.Error("Expected nil field to be kept")
	}
}

func TestLogRepositoryError_WithRepositoryError(t *testing.T) {
	mockLog := &testutils.RecordingLogger{}
	failedAt := time.Now()

	repoErr := &mockRepositoryError{
		message:   "database is locked",
		code:      "busy",
		retryable: true,
		context:   map[string]string{"entity": "Editor", "time_to": "1300"},
		timestamp: failedAt,
	}

	// Found through wrapping
	err := fmt.Errorf("tick: %w", repoErr)
	LogRepositoryError(mockLog, err, "Tick", map[string]interface{}{
		"db_path": "/tmp/apptime.db",
		"writes":  2,
	})

	entries := mockLog.Entries(testutils.LevelError)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 error entry, got %d", len(entries))
	}
	if entries[0].Msg != "Repository operation failed" {
		t.Errorf("Unexpected message %q", entries[0].Msg)
	}

	fields := testutils.FieldsToMap(t, entries[0].Fields)
	expected := map[string]interface{}{
		"operation":  "Tick",
		"error":      err,
		"error_code": "busy",
		"retryable":  true,
		"failed_at":  failedAt,
		"entity":     "Editor",
		"time_to":    "1300",
		"db_path":    "/tmp/apptime.db",
		"writes":     2,
	}
	for key, want := range expected {
		if got, ok := fields[key]; !ok {
			t.Errorf("Expected field %q", key)
		} else if got != want {
			t.Errorf("Field %q: expected %v, got %v", key, want, got)
		}
	}

	// Context keys follow the error keys in sorted order
	keys := make([]string, 0, len(entries[0].Fields)/2)
	for i := 0; i < len(entries[0].Fields); i += 2 {
		keys = append(keys, entries[0].Fields[i].(string))
	}
	if got := strings.Join(keys[len(keys)-4:], ","); got != "entity,time_to,db_path,writes" {
		t.Errorf("Unexpected trailing key order %s", got)
	}
}

func TestLogRepositoryError_WithRegularError(t *testing.T) {
	mockLog := &testutils.RecordingLogger{}
	plain := errors.New("regular error")

	LogRepositoryError(mockLog, plain, "Render", map[string]interface{}{"format": "yaml"})

	entries := mockLog.Entries(testutils.LevelError)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 error entry, got %d", len(entries))
	}
	if entries[0].Msg != "Operation failed" {
		t.Errorf("Unexpected message %q", entries[0].Msg)
	}

	fields := testutils.FieldsToMap(t, entries[0].Fields)
	if fields["operation"] != "Render" || fields["format"] != "yaml" {
		t.Errorf("Unexpected fields %v", fields)
	}
	if fields["error"] != plain {
		t.Errorf("Expected the error value, got %v", fields["error"])
	}
	if fields["error_type"] != "*errors.errorString" {
		t.Errorf("Unexpected error_type %v", fields["error_type"])
	}
	if _, ok := fields["error_code"]; ok {
		t.Error("Plain errors carry no code")
	}
}

func TestLogRepositoryError_WithNilLogger(t *testing.T) {
	buf := captureDefaultOutput(t)

	LogRepositoryError(nil, errors.New("disk I/O error"), "Optimize", nil)

	entry := decodeEntry(t, buf.String())
	if entry["level"] != "error" {
		t.Errorf("Expected level error, got %q", entry["level"])
	}
	if entry["operation"] != "Optimize" || entry["error"] != "disk I/O error" {
		t.Errorf("Unexpected entry %v", entry)
	}
}

func TestLogRepositoryOperation(t *testing.T) {
	mockLog := &testutils.RecordingLogger{}

	LogRepositoryOperation(mockLog, "InsertInterval", 150*time.Millisecond, map[string]interface{}{
		"entity": "Editor",
	})

	entries := mockLog.Entries(testutils.LevelDebug)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 debug entry, got %d", len(entries))
	}
	if entries[0].Msg != "Operation completed" {
		t.Errorf("Unexpected message %q", entries[0].Msg)
	}

	fields := testutils.FieldsToMap(t, entries[0].Fields)
	expected := map[string]interface{}{
		"operation":   "InsertInterval",
		"duration_ms": int64(150),
		"entity":      "Editor",
	}
	for key, want := range expected {
		if got := fields[key]; got != want {
			t.Errorf("Field %q: expected %v, got %v", key, want, got)
		}
	}
}

func TestLogErrorAndLogOperation(t *testing.T) {
	mockLog := &testutils.RecordingLogger{}

	LogError(mockLog, errors.New("boom"), "op", nil)
	LogOperation(mockLog, "op", time.Millisecond, nil)

	if len(mockLog.Entries(testutils.LevelError)) != 1 {
		t.Error("LogError should log one error entry")
	}
	if len(mockLog.Entries(testutils.LevelDebug)) != 1 {
		t.Error("LogOperation should log one debug entry")
	}
}
