// internal/repository/postgres/errors.go
package postgres

import (
	"errors"
	"strings"

	"github.com/lib/pq"

	"pixbank/internal/util"
)

// Postgres error codes this layer cares about.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// translateError maps driver-level failures onto the application's error
// taxonomy. Serialization failures and deadlocks become the retryable
// ErrConcurrencyConflict; connection-class failures become ErrStoreUnavailable.
// Anything else is returned unchanged for the caller to wrap.
func translateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case codeSerializationFailure, codeDeadlockDetected:
		return util.ErrConcurrencyConflict
	}
	// Class 08 covers connection exceptions.
	if strings.HasPrefix(string(pqErr.Code), "08") {
		return util.ErrStoreUnavailable
	}
	return err
}

// isUniqueViolation reports whether err is a unique constraint violation on
// the given constraint (or any unique violation when constraint is empty).
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != codeUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
