package errors

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
)

// ClassifyError classifies database errors into repository error codes
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}

	// Already classified further down the stack
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.Code
	}

	if code := classifySQLiteError(err); code != ErrCodeUnknown {
		return code
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrCodeNotFound
	case errors.Is(err, sql.ErrTxDone):
		return ErrCodeTransaction
	case errors.Is(err, sql.ErrConnDone):
		return ErrCodeConnection
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrCodeTimeout
	}

	// Driver-agnostic fallback on the message text
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "database is locked"), strings.Contains(errStr, "database table is locked"):
		return ErrCodeBusy
	case strings.Contains(errStr, "not null constraint"), strings.Contains(errStr, "check constraint"):
		return ErrCodeValidation
	case strings.Contains(errStr, "constraint"):
		return ErrCodeConstraint
	case strings.Contains(errStr, "no such table"), strings.Contains(errStr, "no such column"):
		return ErrCodeSchema
	case strings.Contains(errStr, "database disk image is malformed"):
		return ErrCodeCorruption
	case strings.Contains(errStr, "permission denied"), strings.Contains(errStr, "readonly database"):
		return ErrCodePermission
	case strings.Contains(errStr, "disk full"), strings.Contains(errStr, "no space left"):
		return ErrCodeDiskSpace
	case strings.Contains(errStr, "unable to open database"):
		return ErrCodeConnection
	case strings.Contains(errStr, "timeout"):
		return ErrCodeTimeout
	default:
		return ErrCodeUnknown
	}
}

// WrapDatabaseError wraps a database error with repository error context
func WrapDatabaseError(op string, err error) error {
	if err == nil {
		return nil
	}
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return err
	}
	return NewRepositoryError(op, err, ClassifyError(err))
}

// WrapDatabaseErrorWithContext wraps a database error and attaches contextMap
func WrapDatabaseErrorWithContext(op string, err error, contextMap map[string]string) error {
	if err == nil {
		return nil
	}
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return err
	}
	return NewRepositoryErrorWithContext(op, err, ClassifyError(err), contextMap)
}

// IntervalContext builds the standard context map for an interval operation
func IntervalContext(entity string, from, to uint32) map[string]string {
	return map[string]string{
		"entity":    entity,
		"time_from": strconv.FormatUint(uint64(from), 10),
		"time_to":   strconv.FormatUint(uint64(to), 10),
	}
}

// HandleNotFound creates a standardized not found error
func HandleNotFound(op string, resource string, identifier string) error {
	return NewRepositoryErrorWithContext(op, sql.ErrNoRows, ErrCodeNotFound, map[string]string{
		"resource":   resource,
		"identifier": identifier,
	})
}

// HandleOpenIntervalNotFound reports an Extend that matched no record of entity
func HandleOpenIntervalNotFound(op string, entity string, to uint32) error {
	return NewRepositoryErrorWithContext(op, sql.ErrNoRows, ErrCodeNotFound, map[string]string{
		"resource": "open_interval",
		"entity":   entity,
		"time_to":  strconv.FormatUint(uint64(to), 10),
	})
}

// HandleValidationError creates a standardized validation error
func HandleValidationError(op string, field string, value string, reason string) error {
	return NewRepositoryErrorWithContext(op, errors.New("validation failed"), ErrCodeValidation, map[string]string{
		"field":  field,
		"value":  value,
		"reason": reason,
	})
}

// HandleIntervalOrderError reports an extend whose end would precede the
// start of the open interval
func HandleIntervalOrderError(op string, entity string, from, to uint32) error {
	ctx := IntervalContext(entity, from, to)
	ctx["reason"] = "time_to precedes time_from"
	return NewRepositoryErrorWithContext(op, errors.New("validation failed"), ErrCodeValidation, ctx)
}

// HandleConnectionError creates a standardized connection error
func HandleConnectionError(op string, details string) error {
	return NewRepositoryErrorWithContext(op, errors.New("connection error"), ErrCodeConnection, map[string]string{
		"details": details,
	})
}

// HandleTransactionError creates a standardized transaction error
func HandleTransactionError(op string, phase string, cause error) error {
	if cause == nil {
		cause = errors.New("transaction error")
	}
	return NewRepositoryErrorWithContext(op, cause, ErrCodeTransaction, map[string]string{
		"phase": phase,
	})
}
