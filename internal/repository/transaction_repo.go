// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"marketplace-core/internal/domain"

	"github.com/shopspring/decimal"
)

// TransactionRepository defines the interface for ledger entries. It is append-only.
type TransactionRepository interface {
	// CreateTransaction appends a ledger entry using the provided DBExecutor.
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// GetTransactionByID retrieves a single ledger entry.
	GetTransactionByID(ctx context.Context, q DBExecutor, id string) (*domain.Transaction, error)
	// GetTransactionsByWalletID retrieves a page of entries, newest first, plus the total count.
	GetTransactionsByWalletID(ctx context.Context, q DBExecutor, walletID string, limit, offset int) ([]domain.Transaction, int64, error)
	// ExistsByReference reports whether any entry of walletID carries ref.
	ExistsByReference(ctx context.Context, q DBExecutor, walletID string, ref domain.Reference) (bool, error)
	// SumCompleted returns the totals of completed credits and debits of walletID.
	SumCompleted(ctx context.Context, q DBExecutor, walletID string) (credits, debits decimal.Decimal, err error)
}
