// internal/repository/postgres/wallet_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/repository"
	"marketplace-core/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const walletColumns = `id, owner_id, balance, status, version, created_at, updated_at`

// WalletRepository implements repository.WalletRepository for PostgreSQL.
type WalletRepository struct{}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository() repository.WalletRepository {
	return &WalletRepository{}
}

// EnsureWallet inserts an empty wallet for ownerID. Concurrent callers race on the
// owner_id unique key and the loser's insert is a no-op.
func (r *WalletRepository) EnsureWallet(ctx context.Context, q repository.DBExecutor, ownerID string) error {
	now := time.Now().UTC()
	query := `INSERT INTO wallets (id, owner_id, balance, status, version, created_at, updated_at)
              VALUES ($1, $2, 0, $3, 0, $4, $4)
              ON CONFLICT (owner_id) DO NOTHING`
	if _, err := q.ExecContext(ctx, query, uuid.NewString(), ownerID, domain.WalletStatusActive, now); err != nil {
		return fmt.Errorf("failed to ensure wallet for owner %s: %w", ownerID, err)
	}
	return nil
}

// GetWalletByOwner retrieves a wallet by its owner using the provided DBExecutor.
func (r *WalletRepository) GetWalletByOwner(ctx context.Context, q repository.DBExecutor, ownerID string) (*domain.Wallet, error) {
	return r.getWallet(ctx, q, `SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1`, ownerID)
}

// GetWalletByOwnerForUpdate retrieves and locks a wallet by its owner.
func (r *WalletRepository) GetWalletByOwnerForUpdate(ctx context.Context, q repository.DBExecutor, ownerID string) (*domain.Wallet, error) {
	return r.getWallet(ctx, q, `SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1 FOR UPDATE`, ownerID)
}

// GetWalletByIDForUpdate retrieves and locks a wallet by its ID.
func (r *WalletRepository) GetWalletByIDForUpdate(ctx context.Context, q repository.DBExecutor, walletID string) (*domain.Wallet, error) {
	return r.getWallet(ctx, q, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, walletID)
}

func (r *WalletRepository) getWallet(ctx context.Context, q repository.DBExecutor, query string, arg string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := q.GetContext(ctx, &wallet, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet %s: %w", arg, err)
	}
	return &wallet, nil
}

// UpdateWalletBalance writes the new balance guarded by the version the caller read.
func (r *WalletRepository) UpdateWalletBalance(ctx context.Context, q repository.DBExecutor, walletID string, newBalance decimal.Decimal, expectedVersion int64) error {
	query := `UPDATE wallets SET balance = $1, version = version + 1, updated_at = $2
              WHERE id = $3 AND version = $4`
	result, err := q.ExecContext(ctx, query, newBalance, time.Now().UTC(), walletID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance for ID %s: %w", walletID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating wallet balance for ID %s: %w", walletID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("wallet %s changed since version %d: %w", walletID, expectedVersion, util.ErrConcurrentModification)
	}
	return nil
}

// UpdateWalletStatus sets the status of a wallet.
func (r *WalletRepository) UpdateWalletStatus(ctx context.Context, q repository.DBExecutor, walletID string, status domain.WalletStatus) error {
	query := `UPDATE wallets SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, status, time.Now().UTC(), walletID)
	if err != nil {
		return fmt.Errorf("failed to update wallet status for ID %s: %w", walletID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating wallet status for ID %s: %w", walletID, err)
	}
	if rowsAffected == 0 {
		return util.ErrWalletNotFound
	}
	return nil
}
