package database

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres SQLSTATEs raised when a deployment has not provisioned a table or
// column yet. Rolling migrations introduce the leveling schema gradually, so
// callers treat these as "schema not provisioned" rather than as failures.
const (
	sqlStateUndefinedTable  = "42P01"
	sqlStateUndefinedColumn = "42703"
)

// IsSchemaMissing reports whether err means the target relation or column does
// not exist in this deployment.
func IsSchemaMissing(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	code := string(pqErr.Code)
	return code == sqlStateUndefinedTable || code == sqlStateUndefinedColumn
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == "23505"
}
