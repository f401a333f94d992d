// internal/repository/postgres/pixkey_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pixbank/internal/domain"
	"pixbank/internal/repository"
	"pixbank/internal/util"

	"github.com/jmoiron/sqlx"
)

// PixKeyRepository implements repository.PixKeyRepository for PostgreSQL.
type PixKeyRepository struct {
	// Methods receive a DBExecutor directly; no connection is stored here.
}

// NewPixKeyRepository creates a new PixKeyRepository.
func NewPixKeyRepository(db *sqlx.DB) repository.PixKeyRepository {
	return &PixKeyRepository{}
}

const pixKeyColumns = `id, owner_account_id, key_type, key_value, active, created_at`

// CreatePixKey registers a new active key. Uniqueness of (key_type, key_value)
// among active keys is enforced by a partial unique index.
func (r *PixKeyRepository) CreatePixKey(ctx context.Context, q repository.DBExecutor, key *domain.PixKey) error {
	query := `INSERT INTO pix_keys (id, owner_account_id, key_type, key_value, active, created_at)
              VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := q.ExecContext(ctx, query, key.ID, key.OwnerAccountID, key.KeyType, key.KeyValue, key.Active, key.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return util.ErrKeyAlreadyInUse
		}
		return fmt.Errorf("failed to create pix key: %w", translateError(err))
	}
	return nil
}

// GetActiveKeyByValue resolves a key value to its active registration.
func (r *PixKeyRepository) GetActiveKeyByValue(ctx context.Context, q repository.DBExecutor, keyValue string) (*domain.PixKey, error) {
	var key domain.PixKey
	query := `SELECT ` + pixKeyColumns + ` FROM pix_keys
              WHERE key_value = $1 AND active ORDER BY created_at LIMIT 1`
	err := q.GetContext(ctx, &key, query, keyValue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrPixKeyNotFound
		}
		return nil, fmt.Errorf("failed to resolve pix key: %w", translateError(err))
	}
	return &key, nil
}

// ListActiveKeysByAccount returns the account's active keys, oldest first.
func (r *PixKeyRepository) ListActiveKeysByAccount(ctx context.Context, q repository.DBExecutor, accountID string) ([]domain.PixKey, error) {
	keys := []domain.PixKey{}
	query := `SELECT ` + pixKeyColumns + ` FROM pix_keys
              WHERE owner_account_id = $1 AND active ORDER BY created_at`
	if err := q.SelectContext(ctx, &keys, query, accountID); err != nil {
		return nil, fmt.Errorf("failed to list pix keys for account %s: %w", accountID, translateError(err))
	}
	return keys, nil
}

// DeactivateKey retires a key so its value becomes reusable.
func (r *PixKeyRepository) DeactivateKey(ctx context.Context, q repository.DBExecutor, id string) error {
	query := `UPDATE pix_keys SET active = FALSE WHERE id = $1`
	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate pix key %s: %w", id, translateError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected deactivating pix key %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrPixKeyNotFound
	}
	return nil
}
