// internal/repository/memory/transaction.go
package memory

import (
	"context"
	"fmt"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/repository"
	"marketplace-core/internal/util"

	"github.com/shopspring/decimal"
)

// TransactionRepository implements repository.TransactionRepository on a Store.
type TransactionRepository struct {
	store *Store
}

func NewTransactionRepository(store *Store) repository.TransactionRepository {
	return &TransactionRepository{store: store}
}

func (r *TransactionRepository) CreateTransaction(_ context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	defer r.store.access(q)()
	data := r.store.data
	if !transaction.Amount.IsPositive() {
		return fmt.Errorf("transaction amount %s: %w", transaction.Amount, util.ErrInvalidInput)
	}
	if _, ok := data.wallets[transaction.WalletID]; !ok {
		return util.ErrWalletNotFound
	}
	if transaction.Reference.Type == domain.ReferenceTransactionReversal {
		for _, t := range data.transactions {
			if t.Reference == transaction.Reference {
				return util.ErrAlreadyReversed
			}
		}
	}
	data.txIndex[transaction.ID] = len(data.transactions)
	data.transactions = append(data.transactions, *transaction)
	return nil
}

func (r *TransactionRepository) GetTransactionByID(_ context.Context, q repository.DBExecutor, id string) (*domain.Transaction, error) {
	defer r.store.access(q)()
	i, ok := r.store.data.txIndex[id]
	if !ok {
		return nil, util.ErrTransactionNotFound
	}
	transaction := r.store.data.transactions[i]
	return &transaction, nil
}

// GetTransactionsByWalletID returns entries newest first.
func (r *TransactionRepository) GetTransactionsByWalletID(_ context.Context, q repository.DBExecutor, walletID string, limit, offset int) ([]domain.Transaction, int64, error) {
	defer r.store.access(q)()
	all := r.store.data.transactions
	matched := []domain.Transaction{}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].WalletID == walletID {
			matched = append(matched, all[i])
		}
	}
	return page(matched, limit, offset), int64(len(matched)), nil
}

func (r *TransactionRepository) ExistsByReference(_ context.Context, q repository.DBExecutor, walletID string, ref domain.Reference) (bool, error) {
	defer r.store.access(q)()
	for _, t := range r.store.data.transactions {
		if t.WalletID == walletID && t.Reference == ref {
			return true, nil
		}
	}
	return false, nil
}

func (r *TransactionRepository) SumCompleted(_ context.Context, q repository.DBExecutor, walletID string) (decimal.Decimal, decimal.Decimal, error) {
	defer r.store.access(q)()
	credits, debits := decimal.Zero, decimal.Zero
	for _, t := range r.store.data.transactions {
		if t.WalletID != walletID || t.Status != domain.TransactionStatusCompleted {
			continue
		}
		if t.Direction == domain.DirectionCredit {
			credits = credits.Add(t.Amount)
		} else {
			debits = debits.Add(t.Amount)
		}
	}
	return credits, debits, nil
}
