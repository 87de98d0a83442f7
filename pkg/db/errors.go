package db

import "strings"

// IsUniqueViolation reports whether err describes a Postgres unique
// constraint violation. With a non-empty constraintName it matches that
// specific constraint, otherwise any duplicate-key error qualifies.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}
