// internal/domain/account.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Account represents a customer account with a spendable and an invested balance.
// Balances are mutated exclusively through the movement service; both are
// guaranteed non-negative in any committed state.
type Account struct {
	ID               string          `db:"id" json:"id"`                               // UUID primary key
	OwnerID          string          `db:"owner_id" json:"owner_id"`                   // Reference to the identity provider's user
	OwnerName        string          `db:"owner_name" json:"owner_name"`               // Display name used on pix receipts
	AccountNumber    string          `db:"account_number" json:"account_number"`       // Human-facing unique number
	AvailableBalance decimal.Decimal `db:"available_balance" json:"available_balance"` // NUMERIC(20, 2) in DB
	InvestedBalance  decimal.Decimal `db:"invested_balance" json:"invested_balance"`   // NUMERIC(20, 2) in DB
	Version          int64           `db:"version" json:"-"`                           // Bumped on every balance mutation
	Active           bool            `db:"active" json:"active"`                       // Soft deactivation flag; accounts are never deleted
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// NewAccount creates a new Account instance with zero balances.
func NewAccount(ownerID, ownerName, accountNumber string) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		OwnerName:        ownerName,
		AccountNumber:    accountNumber,
		AvailableBalance: decimal.Zero,
		InvestedBalance:  decimal.Zero,
		Version:          1,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// BalanceSummary is a point-in-time read of an account's committed balances.
// LedgerBalance is the available balance implied by replaying the account's
// ledger entries; it equals AvailableBalance in any consistent state.
type BalanceSummary struct {
	AccountID        string          `json:"account_id"`
	AccountNumber    string          `json:"account_number"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	InvestedBalance  decimal.Decimal `json:"invested_balance"`
	LedgerBalance    decimal.Decimal `json:"ledger_balance"`
}
