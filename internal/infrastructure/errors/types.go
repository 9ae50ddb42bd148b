package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// ErrorCode classifies storage failures. String values double as metric
// labels.
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeNotFound
	ErrCodeConstraint
	ErrCodeConnection
	ErrCodeTransaction
	ErrCodeTimeout
	ErrCodeValidation
	ErrCodePermission
	ErrCodeDiskSpace
	ErrCodeCorruption
	ErrCodeInternal
	ErrCodeBusy
	ErrCodeSchema
)

var codeLabels = [...]string{
	ErrCodeUnknown:     "unknown",
	ErrCodeNotFound:    "not_found",
	ErrCodeConstraint:  "constraint",
	ErrCodeConnection:  "connection",
	ErrCodeTransaction: "transaction",
	ErrCodeTimeout:     "timeout",
	ErrCodeValidation:  "validation",
	ErrCodePermission:  "permission",
	ErrCodeDiskSpace:   "disk_space",
	ErrCodeCorruption:  "corruption",
	ErrCodeInternal:    "internal",
	ErrCodeBusy:        "busy",
	ErrCodeSchema:      "schema",
}

func (c ErrorCode) String() string {
	if c < 0 || int(c) >= len(codeLabels) {
		return codeLabels[ErrCodeUnknown]
	}
	return codeLabels[c]
}

// transientCodes may succeed when the same operation runs again
var transientCodes = map[ErrorCode]bool{
	ErrCodeConnection:  true,
	ErrCodeTimeout:     true,
	ErrCodeTransaction: true,
	ErrCodeBusy:        true,
}

// transientHints mark unclassified driver messages as transient. "temporar"
// covers both temporary and temporarily.
var transientHints = []string{"temporar", "retry", "busy", "locked", "deadlock"}

// RepositoryError is a failed session store operation: the operation name,
// its cause, a classification and the interval it concerned.
type RepositoryError struct {
	Op        string
	Err       error
	Code      ErrorCode
	Retryable bool
	Context   map[string]string // entity, time_from, time_to, phase ...
	Timestamp time.Time
}

// Error renders "op: cause (code, retryable; k=v ...)" with context keys
// sorted
func (e *RepositoryError) Error() string {
	if e == nil {
		return "repository error"
	}

	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("repository error")
	}

	b.WriteString(" (")
	b.WriteString(e.Code.String())
	if e.Retryable {
		b.WriteString(", retryable")
	}
	for i, k := range slices.Sorted(maps.Keys(e.Context)) {
		if i == 0 {
			b.WriteString(";")
		}
		fmt.Fprintf(&b, " %s=%s", k, e.Context[k])
	}
	b.WriteString(")")
	return b.String()
}

func (e *RepositoryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *RepositoryError by code and defers to the cause
// otherwise
func (e *RepositoryError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*RepositoryError); ok {
		return e.Code == t.Code
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// IsRetryable, GetCode, GetContext and GetTimestamp satisfy
// logging.RepositoryError.

func (e *RepositoryError) IsRetryable() bool {
	return e != nil && e.Retryable
}

func (e *RepositoryError) GetCode() string {
	if e == nil {
		return ErrCodeUnknown.String()
	}
	return e.Code.String()
}

func (e *RepositoryError) GetContext() map[string]string {
	if e == nil || e.Context == nil {
		return map[string]string{}
	}
	return e.Context
}

func (e *RepositoryError) GetTimestamp() time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.Timestamp
}

// NewRepositoryError creates a repository error, deciding retryability from
// the code
func NewRepositoryError(op string, err error, code ErrorCode) *RepositoryError {
	return &RepositoryError{
		Op:        op,
		Err:       err,
		Code:      code,
		Retryable: transient(code, err),
		Context:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewRepositoryErrorWithContext creates a repository error holding a copy of
// context
func NewRepositoryErrorWithContext(op string, err error, code ErrorCode, context map[string]string) *RepositoryError {
	repoErr := NewRepositoryError(op, err, code)
	maps.Copy(repoErr.Context, context)
	return repoErr
}

// transient looks at the message only for unclassified errors. Disk space,
// corruption and permission problems never clear up on their own.
func transient(code ErrorCode, err error) bool {
	if code != ErrCodeUnknown {
		return transientCodes[code]
	}
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return slices.ContainsFunc(transientHints, func(hint string) bool {
		return strings.Contains(msg, hint)
	})
}

// CodeOf returns the code of the first RepositoryError in err's chain, or
// ErrCodeUnknown when there is none
func CodeOf(err error) ErrorCode {
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.Code
	}
	return ErrCodeUnknown
}

func hasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

func IsNotFound(err error) bool   { return hasCode(err, ErrCodeNotFound) }
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidation) }
func IsConnection(err error) bool { return hasCode(err, ErrCodeConnection) }
func IsBusy(err error) bool       { return hasCode(err, ErrCodeBusy) }
func IsSchema(err error) bool     { return hasCode(err, ErrCodeSchema) }

// IsRetryable reports whether err wraps a retryable RepositoryError
func IsRetryable(err error) bool {
	var repoErr *RepositoryError
	return errors.As(err, &repoErr) && repoErr.Retryable
}
