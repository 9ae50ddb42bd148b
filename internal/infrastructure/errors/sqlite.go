package errors

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// Extended constraint codes are checked first. The activity table only has
// NOT NULL columns, so a violation there is bad input rather than a conflict.
var sqliteExtendedCodes = map[sqlite3.ErrNoExtended]ErrorCode{
	sqlite3.ErrConstraintNotNull:    ErrCodeValidation,
	sqlite3.ErrConstraintCheck:      ErrCodeValidation,
	sqlite3.ErrConstraintUnique:     ErrCodeConstraint,
	sqlite3.ErrConstraintPrimaryKey: ErrCodeConstraint,
	sqlite3.ErrConstraintForeignKey: ErrCodeConstraint,
	sqlite3.ErrConstraintTrigger:    ErrCodeConstraint,
	sqlite3.ErrConstraintRowID:      ErrCodeConstraint,
}

var sqliteCodes = map[sqlite3.ErrNo]ErrorCode{
	sqlite3.ErrConstraint: ErrCodeConstraint,
	sqlite3.ErrBusy:       ErrCodeBusy,
	sqlite3.ErrLocked:     ErrCodeBusy,
	sqlite3.ErrInterrupt:  ErrCodeTimeout, // statement cancelled through its context
	sqlite3.ErrCantOpen:   ErrCodeConnection,
	sqlite3.ErrIoErr:      ErrCodeConnection,
	sqlite3.ErrCorrupt:    ErrCodeCorruption,
	sqlite3.ErrNotADB:     ErrCodeCorruption,
	sqlite3.ErrPerm:       ErrCodePermission,
	sqlite3.ErrAuth:       ErrCodePermission,
	sqlite3.ErrReadonly:   ErrCodePermission,
	sqlite3.ErrFull:       ErrCodeDiskSpace,
	sqlite3.ErrMisuse:     ErrCodeInternal,
	sqlite3.ErrSchema:     ErrCodeSchema,
}

// classifySQLiteError maps a go-sqlite3 error onto ErrorCode, or
// ErrCodeUnknown for anything else
func classifySQLiteError(err error) ErrorCode {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return ErrCodeUnknown
	}
	if code, ok := sqliteExtendedCodes[sqliteErr.ExtendedCode]; ok {
		return code
	}
	if code, ok := sqliteCodes[sqliteErr.Code]; ok {
		return code
	}
	return ErrCodeUnknown
}
