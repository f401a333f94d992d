// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrInvalidAmount       = errors.New("amount must be a positive value")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAccountNotFound     = errors.New("account not found")
	ErrSameAccount         = errors.New("cannot transfer to the same account")
	ErrNoPixKeyRegistered  = errors.New("account has no active pix key")
	ErrPixKeyNotFound      = errors.New("pix key not found or inactive")
	ErrKeyAlreadyInUse     = errors.New("pix key already in use")
	ErrMalformedPixCode    = errors.New("malformed pix code")
	ErrDuplicatePayment    = errors.New("duplicate payment")
	ErrConcurrencyConflict = errors.New("concurrent modification detected")
	ErrStoreUnavailable    = errors.New("persistence layer unavailable")
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input provided")
)

// IsError checks whether err matches the given sentinel error.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
