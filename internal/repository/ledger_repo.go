// internal/repository/ledger_repo.go
package repository

import (
	"context"

	"pixbank/internal/domain"

	"github.com/shopspring/decimal"
)

// LedgerRepository defines the interface for the append-only ledger entry store.
// Entries are only ever inserted; there are deliberately no update or delete
// operations on this interface.
type LedgerRepository interface {
	// AppendEntries inserts one or more entries. Callers performing a
	// multi-entry operation must pass a transactional DBExecutor so the
	// append is all-or-nothing.
	AppendEntries(ctx context.Context, q DBExecutor, entries []*domain.LedgerEntry) error
	// GetEntryByID retrieves a single ledger entry.
	GetEntryByID(ctx context.Context, q DBExecutor, id string) (*domain.LedgerEntry, error)
	// ListEntries returns an account's entries newest-first, narrowed by the
	// filter and positioned by its keyset cursor.
	ListEntries(ctx context.Context, q DBExecutor, accountID string, filter domain.EntryFilter) ([]domain.LedgerEntry, error)
	// FindEntryByIdempotencyKey returns the completed entry previously
	// recorded for the given caller-supplied key, or util.ErrNotFound.
	FindEntryByIdempotencyKey(ctx context.Context, q DBExecutor, accountID, key string) (*domain.LedgerEntry, error)
	// HasBoletoPayment reports whether the account already paid the barcode.
	HasBoletoPayment(ctx context.Context, q DBExecutor, accountID, barCode string) (bool, error)
	// SumEffects computes credits minus debits over the account's entire
	// ledger, the balance the entries alone imply.
	SumEffects(ctx context.Context, q DBExecutor, accountID string) (decimal.Decimal, error)
}
