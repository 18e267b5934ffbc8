// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/repository"
	"marketplace-core/internal/util"

	"github.com/shopspring/decimal"
)

const transactionColumns = `id, wallet_id, direction, amount, status, description,
	reference_type, reference_id, balance_after, created_at`

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository() repository.TransactionRepository {
	return &TransactionRepository{}
}

// CreateTransaction inserts a new ledger entry using the provided DBExecutor.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := q.ExecContext(ctx, query,
		transaction.ID,
		transaction.WalletID,
		transaction.Direction,
		transaction.Amount,
		transaction.Status,
		transaction.Description,
		transaction.Reference.Type,
		transaction.Reference.ID,
		transaction.BalanceAfter,
		transaction.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "uq_transactions_single_reversal") {
			return util.ErrAlreadyReversed
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransactionByID retrieves one ledger entry.
func (r *TransactionRepository) GetTransactionByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	if err := q.GetContext(ctx, &transaction, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return &transaction, nil
}

// GetTransactionsByWalletID retrieves a paginated list of entries for a specific wallet.
// It performs two queries: one for the data and one for the total count.
func (r *TransactionRepository) GetTransactionsByWalletID(ctx context.Context, q repository.DBExecutor, walletID string, limit, offset int) ([]domain.Transaction, int64, error) {
	transactions := []domain.Transaction{}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	err := q.SelectContext(ctx, &transactions, query, walletID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions for wallet %s: %w", walletID, err)
	}

	var totalCount int64
	err = q.GetContext(ctx, &totalCount, `SELECT COUNT(*) FROM transactions WHERE wallet_id = $1`, walletID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total transaction count for wallet %s: %w", walletID, err)
	}

	return transactions, totalCount, nil
}

// ExistsByReference reports whether walletID has an entry carrying ref.
func (r *TransactionRepository) ExistsByReference(ctx context.Context, q repository.DBExecutor, walletID string, ref domain.Reference) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
		SELECT 1 FROM transactions WHERE wallet_id = $1 AND reference_type = $2 AND reference_id = $3)`
	if err := q.GetContext(ctx, &exists, query, walletID, ref.Type, ref.ID); err != nil {
		return false, fmt.Errorf("failed to look up reference %s: %w", ref, err)
	}
	return exists, nil
}

// SumCompleted totals the completed entries of walletID per direction.
func (r *TransactionRepository) SumCompleted(ctx context.Context, q repository.DBExecutor, walletID string) (decimal.Decimal, decimal.Decimal, error) {
	var sums struct {
		Credits decimal.Decimal `db:"credits"`
		Debits  decimal.Decimal `db:"debits"`
	}
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE direction = 'credit'), 0) AS credits,
			COALESCE(SUM(amount) FILTER (WHERE direction = 'debit'), 0) AS debits
		FROM transactions
		WHERE wallet_id = $1 AND status = 'completed'`
	if err := q.GetContext(ctx, &sums, query, walletID); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum transactions for wallet %s: %w", walletID, err)
	}
	return sums.Credits, sums.Debits, nil
}
