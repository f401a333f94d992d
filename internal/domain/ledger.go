// internal/domain/ledger.go
package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// EntryType classifies a balance-affecting event.
type EntryType string

const (
	EntryTypeDeposit       EntryType = "deposit"
	EntryTypeWithdraw      EntryType = "withdraw"
	EntryTypeTransferOut   EntryType = "transfer_out"
	EntryTypeTransferIn    EntryType = "transfer_in"
	EntryTypePixOut        EntryType = "pix_out"
	EntryTypePixIn         EntryType = "pix_in"
	EntryTypeBoletoPayment EntryType = "boleto_payment"
	EntryTypeInvest        EntryType = "invest"
	EntryTypeRedeem        EntryType = "redeem"
)

// EntryEffect is the signed effect of an entry on the available balance.
type EntryEffect string

const (
	EffectCredit EntryEffect = "credit"
	EffectDebit  EntryEffect = "debit"
)

// EffectOf returns the signed effect implied by an entry type.
func EffectOf(t EntryType) EntryEffect {
	switch t {
	case EntryTypeDeposit, EntryTypeTransferIn, EntryTypePixIn, EntryTypeRedeem:
		return EffectCredit
	default:
		return EffectDebit
	}
}

// LedgerEntry is one immutable record of a balance-affecting event.
// Entries are append-only: they are never updated or deleted, and reversals
// are modeled as new offsetting entries.
type LedgerEntry struct {
	ID                    string          `db:"id" json:"id"`                                         // UUID primary key
	AccountID             string          `db:"account_id" json:"account_id"`                         // Account whose balance this entry affects
	Type                  EntryType       `db:"type" json:"type"`                                     // Event classification
	Amount                decimal.Decimal `db:"amount" json:"amount"`                                 // Always positive; direction comes from Effect
	Effect                EntryEffect     `db:"effect" json:"effect"`                                 // credit or debit
	Description           *string         `db:"description" json:"description"`                       // Optional free text
	CounterpartyAccountID *string         `db:"counterparty_account_id" json:"counterparty_account_id"` // Other side of a transfer/pix, if any
	RelatedEntryID        *string         `db:"related_entry_id" json:"related_entry_id"`             // Paired entry of a transfer/pix
	TransactionID         string          `db:"transaction_id" json:"transaction_id"`                 // Shared by both sides of one atomic operation
	Reference             *string         `db:"reference" json:"reference"`                           // External instrument reference (boleto barcode)
	IdempotencyKey        *string         `db:"idempotency_key" json:"-"`                             // Caller-supplied retry protection key
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
}

// NewLedgerEntry creates a single ledger entry for a one-sided operation
// (deposit, withdraw, invest, redeem, boleto payment).
func NewLedgerEntry(accountID string, entryType EntryType, amount decimal.Decimal, description *string) *LedgerEntry {
	return &LedgerEntry{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		Type:          entryType,
		Amount:        amount,
		Effect:        EffectOf(entryType),
		Description:   description,
		TransactionID: uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
	}
}

// NewEntryPair creates the two linked entries of a transfer or pix payment.
// Both share a transaction identifier, reference each other and carry the
// same amount with opposite effects; they must be appended in one atomic unit.
func NewEntryPair(fromAccountID, toAccountID string, outType, inType EntryType, amount decimal.Decimal, description *string) (*LedgerEntry, *LedgerEntry) {
	now := time.Now().UTC()
	txID := uuid.NewString()

	out := &LedgerEntry{
		ID:                    uuid.NewString(),
		AccountID:             fromAccountID,
		Type:                  outType,
		Amount:                amount,
		Effect:                EffectDebit,
		Description:           description,
		CounterpartyAccountID: &toAccountID,
		TransactionID:         txID,
		CreatedAt:             now,
	}
	in := &LedgerEntry{
		ID:                    uuid.NewString(),
		AccountID:             toAccountID,
		Type:                  inType,
		Amount:                amount,
		Effect:                EffectCredit,
		Description:           description,
		CounterpartyAccountID: &fromAccountID,
		TransactionID:         txID,
		CreatedAt:             now,
	}
	out.RelatedEntryID = &in.ID
	in.RelatedEntryID = &out.ID
	return out, in
}

// EntryFilter narrows and paginates a ledger listing.
type EntryFilter struct {
	Type   *EntryType
	From   *time.Time
	To     *time.Time
	Limit  int
	Cursor *Cursor
}

// Cursor is an opaque keyset-pagination position derived from an entry's
// creation time and id. Unlike an offset it stays stable while new entries
// are appended concurrently.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorFromEntry builds the cursor pointing just past the given entry.
func CursorFromEntry(e *LedgerEntry) Cursor {
	return Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
}

// Encode serializes the cursor into an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("%s|%s", c.CreatedAt.UTC().Format(time.RFC3339Nano), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor decodes a cursor token produced by Encode.
func ParseCursor(token string) (*Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid cursor structure")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	return &Cursor{CreatedAt: createdAt, ID: parts[1]}, nil
}
