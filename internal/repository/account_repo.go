// internal/repository/account_repo.go
package repository

import (
	"context"

	"pixbank/internal/domain"

	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account balance store operations.
type AccountRepository interface {
	// CreateAccount adds a new account to the database using the provided DBExecutor.
	CreateAccount(ctx context.Context, q DBExecutor, account *domain.Account) error
	// GetAccountByID retrieves an account by its ID using the provided DBExecutor.
	GetAccountByID(ctx context.Context, q DBExecutor, id string) (*domain.Account, error)
	// GetAccountByNumber retrieves an account by its human-facing number.
	GetAccountByNumber(ctx context.Context, q DBExecutor, accountNumber string) (*domain.Account, error)
	// GetAccountByIDForUpdate retrieves an account and locks its row for the
	// duration of the surrounding transaction. Callers touching two accounts
	// must lock them in ascending id order.
	GetAccountByIDForUpdate(ctx context.Context, q DBExecutor, id string) (*domain.Account, error)
	// ApplyBalanceDelta atomically adjusts the available and invested balances.
	// The update is conditioned on neither balance going negative; a failed
	// condition surfaces as util.ErrInsufficientFunds.
	ApplyBalanceDelta(ctx context.Context, q DBExecutor, accountID string, availableDelta, investedDelta decimal.Decimal) error
	// DeactivateAccount soft-deletes an account. Accounts are never removed.
	DeactivateAccount(ctx context.Context, q DBExecutor, id string) error
}
