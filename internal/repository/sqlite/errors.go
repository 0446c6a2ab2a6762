package sqlite

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// constraintCode returns the SQLite result code of err, or 0 if err did not
// come from the driver.
func constraintCode(err error) int {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code()
	}
	return 0
}

// isUniqueViolation reports whether err is a UNIQUE (or PRIMARY KEY) constraint failure.
//
// The driver reports extended result codes; the message check covers the
// case where only the primary SQLITE_CONSTRAINT code comes back.
func isUniqueViolation(err error) bool {
	switch code := constraintCode(err); {
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case code&0xff == sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	}
	return false
}

// isForeignKeyViolation reports whether err is a FOREIGN KEY constraint failure.
func isForeignKeyViolation(err error) bool {
	switch code := constraintCode(err); {
	case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return true
	case code&0xff == sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
	}
	return false
}

// violatedColumn extracts "email" from "UNIQUE constraint failed: users.email".
func violatedColumn(err error) string {
	msg := err.Error()
	idx := strings.LastIndex(msg, "constraint failed: ")
	if idx < 0 {
		return ""
	}
	target := msg[idx+len("constraint failed: "):]
	if end := strings.IndexAny(target, ", )"); end >= 0 {
		target = target[:end]
	}
	if dot := strings.IndexByte(target, '.'); dot >= 0 {
		target = target[dot+1:]
	}
	return target
}
