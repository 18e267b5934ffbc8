// internal/repository/wallet_repo.go
package repository

import (
	"context"

	"marketplace-core/internal/domain"

	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for wallet data operations.
type WalletRepository interface {
	// EnsureWallet creates an empty active wallet for ownerID unless one already exists.
	EnsureWallet(ctx context.Context, q DBExecutor, ownerID string) error
	// GetWalletByOwner retrieves the wallet of ownerID without locking it.
	GetWalletByOwner(ctx context.Context, q DBExecutor, ownerID string) (*domain.Wallet, error)
	// GetWalletByOwnerForUpdate retrieves and row-locks the wallet of ownerID until q commits.
	GetWalletByOwnerForUpdate(ctx context.Context, q DBExecutor, ownerID string) (*domain.Wallet, error)
	// GetWalletByIDForUpdate retrieves and row-locks a wallet by its ID.
	GetWalletByIDForUpdate(ctx context.Context, q DBExecutor, walletID string) (*domain.Wallet, error)
	// UpdateWalletBalance writes newBalance if the stored version still equals expectedVersion.
	UpdateWalletBalance(ctx context.Context, q DBExecutor, walletID string, newBalance decimal.Decimal, expectedVersion int64) error
	// UpdateWalletStatus freezes or unfreezes a wallet.
	UpdateWalletStatus(ctx context.Context, q DBExecutor, walletID string, status domain.WalletStatus) error
}
