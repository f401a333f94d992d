// internal/domain/pix.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PixKeyType classifies the registered pix addressing key.
type PixKeyType string

const (
	PixKeyTypeEmail    PixKeyType = "email"
	PixKeyTypePhone    PixKeyType = "phone"
	PixKeyTypeDocument PixKeyType = "document"
	PixKeyTypeRandom   PixKeyType = "random"
)

// ValidPixKeyType reports whether t is one of the supported key types.
func ValidPixKeyType(t PixKeyType) bool {
	switch t {
	case PixKeyTypeEmail, PixKeyTypePhone, PixKeyTypeDocument, PixKeyTypeRandom:
		return true
	}
	return false
}

// PixKey addresses a receiving account by a registered value instead of
// full banking details. (keyType, keyValue) is unique among active keys;
// a deactivated key's value may be re-registered by a different owner.
type PixKey struct {
	ID             string     `db:"id" json:"id"`
	OwnerAccountID string     `db:"owner_account_id" json:"owner_account_id"`
	KeyType        PixKeyType `db:"key_type" json:"key_type"`
	KeyValue       string     `db:"key_value" json:"key_value"`
	Active         bool       `db:"active" json:"active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// NewPixKey creates an active pix key for an account.
func NewPixKey(ownerAccountID string, keyType PixKeyType, keyValue string) *PixKey {
	return &PixKey{
		ID:             uuid.NewString(),
		OwnerAccountID: ownerAccountID,
		KeyType:        keyType,
		KeyValue:       keyValue,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
}

// PixPayload is the transient content of a transferable pix code.
// It is produced when a receiver generates a charge and consumed when a
// payer decodes and pays it; it is never persisted.
type PixPayload struct {
	PixKey       string          `json:"pix_key"`
	ReceiverName string          `json:"receiver_name"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	RawCode      string          `json:"raw_code"`
}
