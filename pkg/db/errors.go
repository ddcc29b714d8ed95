package db

import "strings"

// IsUniqueViolation reports whether err indicates a unique constraint
// violation. It matches the Postgres and SQLite message shapes so callers
// behave the same under both drivers. When constraintName is given the
// error must mention that constraint.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
