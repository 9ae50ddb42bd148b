package logging

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logger used by the tracker, the repository and
// the commands. Fields alternate key, value.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Options configures a zerolog-backed logger
type Options struct {
	Level  string    // debug, info, warn, error
	Format string    // json (default) or text
	Output io.Writer // defaults to stderr
}

// defaultOutput is where NewDefaultLogger writes; swapped by tests.
var defaultOutput io.Writer = os.Stderr

// DefaultLogger writes entries through zerolog
type DefaultLogger struct {
	zl zerolog.Logger
}

// NewDefaultLogger creates a JSON logger at info level
func NewDefaultLogger() Logger {
	return NewLogger(Options{Level: "info", Output: defaultOutput})
}

// NewLogger creates a logger from options
func NewLogger(opts Options) *DefaultLogger {
	out := opts.Output
	if out == nil {
		out = defaultOutput
	}
	if strings.EqualFold(opts.Format, "text") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
	return &DefaultLogger{zl: zl}
}

// ParseLevel maps a config level name onto a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent returns a child logger tagging every entry with
// component=name. Loggers that are not zerolog-backed are returned unchanged.
func WithComponent(logger Logger, name string) Logger {
	switch l := logger.(type) {
	case nil:
		return WithComponent(NewDefaultLogger(), name)
	case *DefaultLogger:
		return &DefaultLogger{zl: l.zl.With().Str("component", name).Logger()}
	default:
		return logger
	}
}

// appendField encodes one value with the zerolog encoder matching its type
func appendField(event *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case error:
		return event.AnErr(key, v)
	case time.Duration:
		return event.Dur(key, v)
	case time.Time:
		return event.Time(key, v)
	case fmt.Stringer:
		return event.Stringer(key, v)
	default:
		return event.Interface(key, v)
	}
}

// emit writes fields in call order. A non-string key is logged as field_N
// with its value as field_N_value; a trailing key without value as field_N.
func (l *DefaultLogger) emit(event *zerolog.Event, msg string, fields []interface{}) {
	if event == nil {
		return
	}
	for i := 0; i < len(fields); i += 2 {
		slot := fmt.Sprintf("field_%d", i/2)
		if i+1 == len(fields) {
			event = appendField(event, slot, fields[i])
			break
		}
		if key, ok := fields[i].(string); ok {
			event = appendField(event, key, fields[i+1])
			continue
		}
		event = appendField(event, slot, fields[i])
		event = appendField(event, slot+"_value", fields[i+1])
	}
	event.Msg(msg)
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) { l.emit(l.zl.Debug(), msg, fields) }
func (l *DefaultLogger) Info(msg string, fields ...interface{})  { l.emit(l.zl.Info(), msg, fields) }
func (l *DefaultLogger) Warn(msg string, fields ...interface{})  { l.emit(l.zl.Warn(), msg, fields) }
func (l *DefaultLogger) Error(msg string, fields ...interface{}) { l.emit(l.zl.Error(), msg, fields) }

// RepositoryError is the view of a classified storage error the helpers
// below log. Declared here so the errors package can depend on logging.
type RepositoryError interface {
	error
	GetCode() string
	IsRetryable() bool
	GetContext() map[string]string
	GetTimestamp() time.Time
}

// LogRepositoryError logs a failed operation at error level. Classified
// errors anywhere in err's chain add their code, retryability and context.
func LogRepositoryError(logger Logger, err error, operation string, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{"operation", operation, "error", err}
	msg := "Operation failed"

	var repoErr RepositoryError
	if errors.As(err, &repoErr) {
		msg = "Repository operation failed"
		fields = append(fields,
			"error_code", repoErr.GetCode(),
			"retryable", repoErr.IsRetryable(),
			"failed_at", repoErr.GetTimestamp())
		errCtx := repoErr.GetContext()
		for _, k := range slices.Sorted(maps.Keys(errCtx)) {
			fields = append(fields, k, errCtx[k])
		}
	} else {
		fields = append(fields, "error_type", fmt.Sprintf("%T", err))
	}

	for _, k := range slices.Sorted(maps.Keys(context)) {
		fields = append(fields, k, context[k])
	}
	logger.Error(msg, fields...)
}

// LogRepositoryOperation logs a completed operation and its latency at
// debug level
func LogRepositoryOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}
	for _, k := range slices.Sorted(maps.Keys(context)) {
		fields = append(fields, k, context[k])
	}
	logger.Debug("Operation completed", fields...)
}

// LogError is shorthand for LogRepositoryError
func LogError(logger Logger, err error, operation string, context map[string]interface{}) {
	LogRepositoryError(logger, err, operation, context)
}

// LogOperation is shorthand for LogRepositoryOperation
func LogOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	LogRepositoryOperation(logger, operation, duration, context)
}
