package db

import "strings"

// IsUniqueViolation reports whether err is a unique-index violation. When
// constraintName is set, the match is narrowed to that constraint. The sqlite
// message form is matched too because the test suite runs on sqlite.
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
