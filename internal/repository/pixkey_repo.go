// internal/repository/pixkey_repo.go
package repository

import (
	"context"

	"pixbank/internal/domain"
)

// PixKeyRepository defines the interface for pix key store operations.
type PixKeyRepository interface {
	// CreatePixKey registers a new active key. A value already active under
	// any account surfaces as util.ErrKeyAlreadyInUse.
	CreatePixKey(ctx context.Context, q DBExecutor, key *domain.PixKey) error
	// GetActiveKeyByValue resolves a key value to its active registration.
	GetActiveKeyByValue(ctx context.Context, q DBExecutor, keyValue string) (*domain.PixKey, error)
	// ListActiveKeysByAccount returns the account's active keys, oldest first.
	ListActiveKeysByAccount(ctx context.Context, q DBExecutor, accountID string) ([]domain.PixKey, error)
	// DeactivateKey retires a key; its value becomes reusable by other owners.
	DeactivateKey(ctx context.Context, q DBExecutor, id string) error
}
