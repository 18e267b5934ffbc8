// internal/service/wallet_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/repository"
	"marketplace-core/internal/util"

	"github.com/shopspring/decimal"
)

// BalanceReport compares a stored balance with the one recomputed from the ledger.
type BalanceReport struct {
	WalletID string          `json:"wallet_id"`
	OwnerID  string          `json:"owner_id"`
	Stored   decimal.Decimal `json:"stored"`
	Credits  decimal.Decimal `json:"credits"`
	Debits   decimal.Decimal `json:"debits"`
	Computed decimal.Decimal `json:"computed"`
	Balanced bool            `json:"balanced"`
}

// WalletService defines the interface for wallet-related business logic.
// It is the only writer of wallet balances and ledger entries.
type WalletService interface {
	Debit(ctx context.Context, ownerID string, amount decimal.Decimal, description string, ref domain.Reference) (*domain.Transaction, error)
	Credit(ctx context.Context, ownerID string, amount decimal.Decimal, description string, ref domain.Reference) (*domain.Transaction, error)
	// DebitInTx and CreditInTx post on a transaction the caller already holds open.
	DebitInTx(ctx context.Context, q repository.DBExecutor, ownerID string, amount decimal.Decimal, description string, ref domain.Reference) (*domain.Transaction, error)
	CreditInTx(ctx context.Context, q repository.DBExecutor, ownerID string, amount decimal.Decimal, description string, ref domain.Reference) (*domain.Transaction, error)
	Reverse(ctx context.Context, transactionID string, actor domain.Actor, description string) (*domain.Transaction, error)
	Freeze(ctx context.Context, ownerID string, actor domain.Actor) (*domain.Wallet, error)
	Unfreeze(ctx context.Context, ownerID string, actor domain.Actor) (*domain.Wallet, error)
	GetWallet(ctx context.Context, ownerID string) (*domain.Wallet, error)
	GetTransactionHistory(ctx context.Context, ownerID string, limit, offset int) ([]domain.Transaction, int64, error)
	VerifyBalance(ctx context.Context, ownerID string) (*BalanceReport, error)
}

// walletService implements the WalletService interface.
type walletService struct {
	tx              TxManager
	dbExecutor      repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
}

// NewWalletService creates a new instance of WalletService.
func NewWalletService(
	tx TxManager,
	dbExecutor repository.DBExecutor,
	walletRepo repository.WalletRepository,
	transactionRepo repository.TransactionRepository,
) WalletService {
	return &walletService{
		tx:              tx,
		dbExecutor:      dbExecutor,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
	}
}

// Debit removes amount from the owner's wallet and records one debit entry.
func (s *walletService) Debit(ctx context.Context, ownerID string, amount decimal.Decimal, description string, ref domain.Reference) (*domain.Transaction, error) {
	var transaction *domain.Transaction
	err := s.tx.within(ctx, "debit", func(q repository.DBExecutor) error {
		var err error
		transaction, err = s.DebitInTx(ctx, q, ownerID, amount, description, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// Credit adds amount to the owner's wallet and records one credit entry.
func (s *walletService) Credit(ctx context.Context, ownerID string, amount decimal.Decimal, description string, ref domain.Reference) (*domain.Transaction, error) {
	var transaction *domain.Transaction
	err := s.tx.within(ctx, "credit", func(q repository.DBExecutor) error {
		var err error
		transaction, err = s.CreditInTx(ctx, q, ownerID, amount, description, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *walletService) DebitInTx(ctx context.Context, q repository.DBExecutor, ownerID string, amount decimal.Decimal, description string, ref domain.Reference) (*domain.Transaction, error) {
	return s.post(ctx, q, ownerID, domain.DirectionDebit, amount, description, ref)
}

func (s *walletService) CreditInTx(ctx context.Context, q repository.DBExecutor, ownerID string, amount decimal.Decimal, description string, ref domain.Reference) (*domain.Transaction, error) {
	return s.post(ctx, q, ownerID, domain.DirectionCredit, amount, description, ref)
}

// post runs the check-update-append sequence under the wallet row lock held by q.
func (s *walletService) post(
	ctx context.Context,
	q repository.DBExecutor,
	ownerID string,
	direction domain.Direction,
	amount decimal.Decimal,
	description string,
	ref domain.Reference,
) (*domain.Transaction, error) {
	op := string(direction)
	if ownerID == "" || amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%s: %w", op, util.ErrInvalidInput)
	}

	if err := s.walletRepo.EnsureWallet(ctx, q, ownerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	wallet, err := s.walletRepo.GetWalletByOwnerForUpdate(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to lock wallet of %s: %w", op, ownerID, err)
	}
	return s.apply(ctx, q, wallet, direction, amount, description, ref)
}

func (s *walletService) apply(
	ctx context.Context,
	q repository.DBExecutor,
	wallet *domain.Wallet,
	direction domain.Direction,
	amount decimal.Decimal,
	description string,
	ref domain.Reference,
) (*domain.Transaction, error) {
	op := string(direction)
	if wallet.IsFrozen() {
		return nil, fmt.Errorf("%s: wallet %s: %w", op, wallet.ID, util.ErrWalletFrozen)
	}

	newBalance := wallet.Balance.Add(amount)
	if direction == domain.DirectionDebit {
		if !wallet.CanDebit(amount) {
			return nil, &util.InsufficientFundsError{WalletID: wallet.ID, Available: wallet.Balance, Requested: amount}
		}
		newBalance = wallet.Balance.Sub(amount)
	}

	if err := s.walletRepo.UpdateWalletBalance(ctx, q, wallet.ID, newBalance, wallet.Version); err != nil {
		return nil, fmt.Errorf("%s: failed to update wallet balance: %w", op, err)
	}

	transaction := domain.NewTransaction(wallet.ID, direction, amount, description, ref, newBalance)
	if err := s.transactionRepo.CreateTransaction(ctx, q, transaction); err != nil {
		return nil, fmt.Errorf("%s: failed to create transaction: %w", op, err)
	}

	slog.DebugContext(ctx, "ledger entry posted",
		"wallet_id", wallet.ID,
		"direction", direction,
		"amount", amount.String(),
		"reference", ref.String(),
	)
	return transaction, nil
}

// Reverse appends a compensating entry for transactionID. The original entry stays untouched.
func (s *walletService) Reverse(ctx context.Context, transactionID string, actor domain.Actor, description string) (*domain.Transaction, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleSystem {
		return nil, fmt.Errorf("reverse: %w", util.ErrForbidden)
	}

	var compensation *domain.Transaction
	err := s.tx.within(ctx, "reverse", func(q repository.DBExecutor) error {
		original, err := s.transactionRepo.GetTransactionByID(ctx, q, transactionID)
		if err != nil {
			return fmt.Errorf("reverse: %w", err)
		}
		if original.Status != domain.TransactionStatusCompleted || original.Reference.Type == domain.ReferenceTransactionReversal {
			return fmt.Errorf("reverse: entry %s cannot be reversed: %w", transactionID, util.ErrInvalidInput)
		}

		ref := domain.NewReference(domain.ReferenceTransactionReversal, original.ID)
		reversed, err := s.transactionRepo.ExistsByReference(ctx, q, original.WalletID, ref)
		if err != nil {
			return fmt.Errorf("reverse: %w", err)
		}
		if reversed {
			return fmt.Errorf("reverse: entry %s: %w", transactionID, util.ErrAlreadyReversed)
		}

		wallet, err := s.walletRepo.GetWalletByIDForUpdate(ctx, q, original.WalletID)
		if err != nil {
			return fmt.Errorf("reverse: %w", err)
		}
		if description == "" {
			description = "Reversal of " + original.ID
		}
		compensation, err = s.apply(ctx, q, wallet, original.Direction.Opposite(), original.Amount, description, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return compensation, nil
}

func (s *walletService) Freeze(ctx context.Context, ownerID string, actor domain.Actor) (*domain.Wallet, error) {
	return s.setStatus(ctx, ownerID, actor, domain.WalletStatusFrozen)
}

func (s *walletService) Unfreeze(ctx context.Context, ownerID string, actor domain.Actor) (*domain.Wallet, error) {
	return s.setStatus(ctx, ownerID, actor, domain.WalletStatusActive)
}

func (s *walletService) setStatus(ctx context.Context, ownerID string, actor domain.Actor, status domain.WalletStatus) (*domain.Wallet, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("set wallet status: %w", util.ErrForbidden)
	}
	if ownerID == "" {
		return nil, util.ErrInvalidInput
	}

	var wallet *domain.Wallet
	err := s.tx.within(ctx, "set wallet status", func(q repository.DBExecutor) error {
		if err := s.walletRepo.EnsureWallet(ctx, q, ownerID); err != nil {
			return err
		}
		var err error
		wallet, err = s.walletRepo.GetWalletByOwnerForUpdate(ctx, q, ownerID)
		if err != nil {
			return fmt.Errorf("set wallet status: %w", err)
		}
		if wallet.Status == status {
			return nil
		}
		if err := s.walletRepo.UpdateWalletStatus(ctx, q, wallet.ID, status); err != nil {
			return fmt.Errorf("set wallet status: %w", err)
		}
		wallet.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "wallet status changed", "wallet_id", wallet.ID, "status", status, "actor", actor.ID)
	return wallet, nil
}

// GetWallet returns the owner's wallet. Owners without postings have no wallet yet.
func (s *walletService) GetWallet(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByOwner(ctx, s.dbExecutor, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return wallet, nil
}

// GetTransactionHistory retrieves a paginated list of entries of the owner's wallet.
func (s *walletService) GetTransactionHistory(ctx context.Context, ownerID string, limit, offset int) ([]domain.Transaction, int64, error) {
	if err := validatePage(limit, offset); err != nil {
		return nil, 0, fmt.Errorf("transaction history: %w", err)
	}
	wallet, err := s.walletRepo.GetWalletByOwner(ctx, s.dbExecutor, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to check wallet existence: %w", err)
	}

	transactions, totalCount, err := s.transactionRepo.GetTransactionsByWalletID(ctx, s.dbExecutor, wallet.ID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve transaction history: %w", err)
	}
	return transactions, totalCount, nil
}

// VerifyBalance recomputes the balance from completed entries and compares it with the stored one.
func (s *walletService) VerifyBalance(ctx context.Context, ownerID string) (*BalanceReport, error) {
	var report *BalanceReport
	err := s.tx.within(ctx, "verify balance", func(q repository.DBExecutor) error {
		wallet, err := s.walletRepo.GetWalletByOwnerForUpdate(ctx, q, ownerID)
		if err != nil {
			return fmt.Errorf("verify balance: %w", err)
		}
		credits, debits, err := s.transactionRepo.SumCompleted(ctx, q, wallet.ID)
		if err != nil {
			return fmt.Errorf("verify balance: %w", err)
		}
		computed := credits.Sub(debits)
		report = &BalanceReport{
			WalletID: wallet.ID,
			OwnerID:  wallet.OwnerID,
			Stored:   wallet.Balance,
			Credits:  credits,
			Debits:   debits,
			Computed: computed,
			Balanced: computed.Equal(wallet.Balance),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !report.Balanced {
		slog.ErrorContext(ctx, "wallet balance drift", "wallet_id", report.WalletID,
			"stored", report.Stored.String(), "computed", report.Computed.String())
	}
	return report, nil
}
