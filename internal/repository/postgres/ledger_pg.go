// internal/repository/postgres/ledger_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pixbank/internal/domain"
	"pixbank/internal/repository"
	"pixbank/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements repository.LedgerRepository for PostgreSQL.
// The backing table is insert-only; no method here issues UPDATE or DELETE.
type LedgerRepository struct {
	// Methods receive a DBExecutor directly; no connection is stored here.
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *sqlx.DB) repository.LedgerRepository {
	return &LedgerRepository{}
}

const entryColumns = `id, account_id, type, amount, effect, description, counterparty_account_id, related_entry_id, transaction_id, reference, idempotency_key, created_at`

// AppendEntries inserts the given entries. Callers performing a paired
// debit/credit must pass a transactional DBExecutor so both rows commit or
// neither does.
func (r *LedgerRepository) AppendEntries(ctx context.Context, q repository.DBExecutor, entries []*domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (` + entryColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	for _, entry := range entries {
		_, err := q.ExecContext(ctx, query,
			entry.ID, entry.AccountID, entry.Type, entry.Amount, entry.Effect,
			entry.Description, entry.CounterpartyAccountID, entry.RelatedEntryID,
			entry.TransactionID, entry.Reference, entry.IdempotencyKey, entry.CreatedAt,
		)
		if err != nil {
			// The partial unique indexes on (account_id, reference) and
			// (account_id, idempotency_key) are the race backstop behind the
			// service-level duplicate checks.
			if isUniqueViolation(err, "") {
				return util.ErrDuplicatePayment
			}
			return fmt.Errorf("failed to append ledger entry %s: %w", entry.ID, translateError(err))
		}
	}
	return nil
}

// GetEntryByID retrieves a single ledger entry.
func (r *LedgerRepository) GetEntryByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1`
	err := q.GetContext(ctx, &entry, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ledger entry %s: %w", id, translateError(err))
	}
	return &entry, nil
}

// ListEntries returns an account's entries newest-first using keyset
// pagination over (created_at, id), which stays stable under concurrent
// appends where an offset would not.
func (r *LedgerRepository) ListEntries(ctx context.Context, q repository.DBExecutor, accountID string, filter domain.EntryFilter) ([]domain.LedgerEntry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + entryColumns + ` FROM ledger_entries WHERE account_id = $1`)
	args := []interface{}{accountID}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		fmt.Fprintf(&sb, " AND type = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		fmt.Fprintf(&sb, " AND created_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		fmt.Fprintf(&sb, " AND created_at <= $%d", len(args))
	}
	if filter.Cursor != nil {
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ID)
		fmt.Fprintf(&sb, " AND (created_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, filter.Limit)
	fmt.Fprintf(&sb, " ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	entries := []domain.LedgerEntry{}
	if err := q.SelectContext(ctx, &entries, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("failed to list ledger entries for account %s: %w", accountID, translateError(err))
	}
	return entries, nil
}

// FindEntryByIdempotencyKey returns the entry previously recorded for the
// caller-supplied key, so a retried request can be answered without
// re-applying its effect.
func (r *LedgerRepository) FindEntryByIdempotencyKey(ctx context.Context, q repository.DBExecutor, accountID, key string) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE account_id = $1 AND idempotency_key = $2`
	err := q.GetContext(ctx, &entry, query, accountID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up idempotency key for account %s: %w", accountID, translateError(err))
	}
	return &entry, nil
}

// HasBoletoPayment reports whether the account already has a boleto_payment
// entry referencing the barcode.
func (r *LedgerRepository) HasBoletoPayment(ctx context.Context, q repository.DBExecutor, accountID, barCode string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
                SELECT 1 FROM ledger_entries
                WHERE account_id = $1 AND type = $2 AND reference = $3)`
	err := q.GetContext(ctx, &exists, query, accountID, domain.EntryTypeBoletoPayment, barCode)
	if err != nil {
		return false, fmt.Errorf("failed to check boleto payment for account %s: %w", accountID, translateError(err))
	}
	return exists, nil
}

// SumEffects computes credits minus debits over the account's whole ledger,
// i.e. the available balance the entries alone imply.
func (r *LedgerRepository) SumEffects(ctx context.Context, q repository.DBExecutor, accountID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `SELECT COALESCE(SUM(CASE WHEN effect = $1 THEN amount ELSE -amount END), 0)
              FROM ledger_entries WHERE account_id = $2`
	err := q.GetContext(ctx, &sum, query, domain.EffectCredit, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum ledger effects for account %s: %w", accountID, translateError(err))
	}
	return sum, nil
}
