package db

import "strings"

// IsUniqueViolation reports whether err is a unique-constraint violation.
// A named constraint matches on the Postgres constraint text; otherwise the
// generic Postgres and sqlite wordings are recognized so the helper also
// works against the sqlite-backed package tests.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
