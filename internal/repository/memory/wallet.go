// internal/repository/memory/wallet.go
package memory

import (
	"context"
	"fmt"
	"time"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/repository"
	"marketplace-core/internal/util"

	"github.com/shopspring/decimal"
)

// WalletRepository implements repository.WalletRepository on a Store.
type WalletRepository struct {
	store *Store
}

func NewWalletRepository(store *Store) repository.WalletRepository {
	return &WalletRepository{store: store}
}

func (r *WalletRepository) EnsureWallet(_ context.Context, q repository.DBExecutor, ownerID string) error {
	defer r.store.access(q)()
	data := r.store.data
	if _, ok := data.walletOwners[ownerID]; ok {
		return nil
	}
	wallet := domain.NewWallet(ownerID)
	data.wallets[wallet.ID] = *wallet
	data.walletOwners[ownerID] = wallet.ID
	return nil
}

func (r *WalletRepository) GetWalletByOwner(_ context.Context, q repository.DBExecutor, ownerID string) (*domain.Wallet, error) {
	defer r.store.access(q)()
	return r.byOwner(ownerID)
}

// GetWalletByOwnerForUpdate needs no row lock: the transaction already holds the store.
func (r *WalletRepository) GetWalletByOwnerForUpdate(_ context.Context, q repository.DBExecutor, ownerID string) (*domain.Wallet, error) {
	defer r.store.access(q)()
	return r.byOwner(ownerID)
}

func (r *WalletRepository) GetWalletByIDForUpdate(_ context.Context, q repository.DBExecutor, walletID string) (*domain.Wallet, error) {
	defer r.store.access(q)()
	wallet, ok := r.store.data.wallets[walletID]
	if !ok {
		return nil, util.ErrWalletNotFound
	}
	return &wallet, nil
}

func (r *WalletRepository) byOwner(ownerID string) (*domain.Wallet, error) {
	id, ok := r.store.data.walletOwners[ownerID]
	if !ok {
		return nil, util.ErrWalletNotFound
	}
	wallet := r.store.data.wallets[id]
	return &wallet, nil
}

func (r *WalletRepository) UpdateWalletBalance(_ context.Context, q repository.DBExecutor, walletID string, newBalance decimal.Decimal, expectedVersion int64) error {
	defer r.store.access(q)()
	wallet, ok := r.store.data.wallets[walletID]
	if !ok {
		return util.ErrWalletNotFound
	}
	if wallet.Version != expectedVersion {
		return fmt.Errorf("wallet %s changed since version %d: %w", walletID, expectedVersion, util.ErrConcurrentModification)
	}
	if newBalance.IsNegative() {
		return fmt.Errorf("wallet %s balance would become %s: %w", walletID, newBalance, util.ErrInsufficientFunds)
	}
	wallet.Balance = newBalance
	wallet.Version++
	wallet.UpdatedAt = time.Now().UTC()
	r.store.data.wallets[walletID] = wallet
	return nil
}

func (r *WalletRepository) UpdateWalletStatus(_ context.Context, q repository.DBExecutor, walletID string, status domain.WalletStatus) error {
	defer r.store.access(q)()
	wallet, ok := r.store.data.wallets[walletID]
	if !ok {
		return util.ErrWalletNotFound
	}
	wallet.Status = status
	wallet.UpdatedAt = time.Now().UTC()
	r.store.data.wallets[walletID] = wallet
	return nil
}
