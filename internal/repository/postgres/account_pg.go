// internal/repository/postgres/account_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pixbank/internal/domain"
	"pixbank/internal/repository"
	"pixbank/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// AccountRepository implements repository.AccountRepository for PostgreSQL.
type AccountRepository struct {
	// Methods receive a DBExecutor directly; no connection is stored here.
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sqlx.DB) repository.AccountRepository {
	return &AccountRepository{}
}

const accountColumns = `id, owner_id, owner_name, account_number, available_balance, invested_balance, version, active, created_at, updated_at`

// CreateAccount inserts a new account using the provided DBExecutor.
func (r *AccountRepository) CreateAccount(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	query := `INSERT INTO accounts (id, owner_id, owner_name, account_number, available_balance, invested_balance, version, active, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := q.ExecContext(ctx, query,
		account.ID, account.OwnerID, account.OwnerName, account.AccountNumber,
		account.AvailableBalance, account.InvestedBalance, account.Version,
		account.Active, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("account number %s already taken: %w", account.AccountNumber, util.ErrInvalidInput)
		}
		return fmt.Errorf("failed to create account: %w", translateError(err))
	}
	return nil
}

// GetAccountByID retrieves an account by its ID using the provided DBExecutor.
func (r *AccountRepository) GetAccountByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.Account, error) {
	var account domain.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	err := q.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by ID %s: %w", id, translateError(err))
	}
	return &account, nil
}

// GetAccountByNumber retrieves an account by its human-facing number.
func (r *AccountRepository) GetAccountByNumber(ctx context.Context, q repository.DBExecutor, accountNumber string) (*domain.Account, error) {
	var account domain.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	err := q.GetContext(ctx, &account, query, accountNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by number %s: %w", accountNumber, translateError(err))
	}
	return &account, nil
}

// GetAccountByIDForUpdate retrieves an account and takes a row lock held for
// the duration of the surrounding transaction. Two-account operations must
// call this in ascending account id order to keep lock acquisition
// deterministic.
func (r *AccountRepository) GetAccountByIDForUpdate(ctx context.Context, q repository.DBExecutor, id string) (*domain.Account, error) {
	var account domain.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	err := q.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account %s: %w", id, translateError(err))
	}
	return &account, nil
}

// ApplyBalanceDelta atomically adjusts both balances of an account. The
// condition in the WHERE clause makes the mutation and the sufficient-funds
// check a single statement, so a concurrent writer can never slip a balance
// below zero between a read and a write.
func (r *AccountRepository) ApplyBalanceDelta(ctx context.Context, q repository.DBExecutor, accountID string, availableDelta, investedDelta decimal.Decimal) error {
	query := `UPDATE accounts
              SET available_balance = available_balance + $1,
                  invested_balance = invested_balance + $2,
                  version = version + 1,
                  updated_at = $3
              WHERE id = $4
                AND available_balance + $1 >= 0
                AND invested_balance + $2 >= 0`
	result, err := q.ExecContext(ctx, query, availableDelta, investedDelta, time.Now().UTC(), accountID)
	if err != nil {
		return fmt.Errorf("failed to apply balance delta for account %s: %w", accountID, translateError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for account %s: %w", accountID, err)
	}
	if rowsAffected == 0 {
		// Either the account does not exist or the guard rejected the delta.
		if _, getErr := r.GetAccountByID(ctx, q, accountID); getErr != nil {
			return getErr
		}
		return util.ErrInsufficientFunds
	}
	return nil
}

// DeactivateAccount soft-deletes an account.
func (r *AccountRepository) DeactivateAccount(ctx context.Context, q repository.DBExecutor, id string) error {
	query := `UPDATE accounts SET active = FALSE, updated_at = $1 WHERE id = $2`
	result, err := q.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate account %s: %w", id, translateError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected deactivating account %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrAccountNotFound
	}
	return nil
}
