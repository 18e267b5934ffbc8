// internal/service/wallet_service_test.go
package service

import (
	"context"
	"errors"
	"testing"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type walletMocks struct {
	walletRepo      *MockWalletRepository
	transactionRepo *MockTransactionRepository
	dbExecutor      *MockDBExecutor
	txController    *MockTxController
}

func newMockedWalletService() (WalletService, walletMocks) {
	m := walletMocks{
		walletRepo:      new(MockWalletRepository),
		transactionRepo: new(MockTransactionRepository),
		dbExecutor:      new(MockDBExecutor),
		txController:    new(MockTxController),
	}
	svc := NewWalletService(mockTxManager(m.txController), m.dbExecutor, m.walletRepo, m.transactionRepo)
	return svc, m
}

func (m walletMocks) assertAll(t *testing.T) {
	mock.AssertExpectationsForObjects(t, m.walletRepo, m.transactionRepo, m.dbExecutor, m.txController)
}

func activeWallet(balance string) *domain.Wallet {
	return &domain.Wallet{
		ID:      "wallet-1",
		OwnerID: "owner-1",
		Balance: decimal.RequireFromString(balance),
		Status:  domain.WalletStatusActive,
		Version: 3,
	}
}

// TestDebit tests the Debit method of WalletService.
func TestDebit(t *testing.T) {
	ref := domain.NewReference(domain.ReferenceVisaRequest, "visa-42")

	t.Run("SuccessfulDebit", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newMockedWalletService()

		m.txController.On("Commit").Return(nil).Once()
		m.txController.On("Rollback").Return(nil).Maybe() // deferred after commit
		m.walletRepo.On("EnsureWallet", ctx, mock.Anything, "owner-1").Return(nil).Once()
		m.walletRepo.On("GetWalletByOwnerForUpdate", ctx, mock.Anything, "owner-1").Return(activeWallet("500"), nil).Once()
		m.walletRepo.On("UpdateWalletBalance", ctx, mock.Anything, "wallet-1", decimalEq("400"), int64(3)).Return(nil).Once()
		m.transactionRepo.On("CreateTransaction", ctx, mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil).Once()

		tx, err := svc.Debit(ctx, "owner-1", decimal.NewFromInt(100), "Visa fee", ref)

		assert.NoError(t, err)
		assert.Equal(t, domain.DirectionDebit, tx.Direction)
		assert.Equal(t, domain.TransactionStatusCompleted, tx.Status)
		assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(400)))
		assert.Equal(t, ref, tx.Reference)
		m.assertAll(t)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newMockedWalletService()
		m.txController.On("Rollback").Return(nil).Once()

		tx, err := svc.Debit(ctx, "owner-1", decimal.NewFromInt(-10), "", ref)

		assert.ErrorIs(t, err, util.ErrInvalidInput)
		assert.Nil(t, tx)
		m.walletRepo.AssertNotCalled(t, "EnsureWallet", mock.Anything, mock.Anything, mock.Anything)
		m.txController.AssertNotCalled(t, "Commit")
		m.assertAll(t)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newMockedWalletService()

		// The balance check fails after the lock, so Rollback is called and nothing is written.
		m.walletRepo.On("EnsureWallet", ctx, mock.Anything, "owner-1").Return(nil).Once()
		m.walletRepo.On("GetWalletByOwnerForUpdate", ctx, mock.Anything, "owner-1").Return(activeWallet("1000.00"), nil).Once()
		m.txController.On("Rollback").Return(nil).Once()

		tx, err := svc.Debit(ctx, "owner-1", decimal.RequireFromString("1200.00"), "Flight", ref)

		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		var shortfall *util.InsufficientFundsError
		assert.True(t, errors.As(err, &shortfall))
		assert.True(t, shortfall.Available.Equal(decimal.NewFromInt(1000)))
		assert.Nil(t, tx)
		m.walletRepo.AssertNotCalled(t, "UpdateWalletBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.transactionRepo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything, mock.Anything)
		m.txController.AssertNotCalled(t, "Commit")
		m.assertAll(t)
	})

	t.Run("FrozenWallet", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newMockedWalletService()
		frozen := activeWallet("500")
		frozen.Status = domain.WalletStatusFrozen

		m.walletRepo.On("EnsureWallet", ctx, mock.Anything, "owner-1").Return(nil).Once()
		m.walletRepo.On("GetWalletByOwnerForUpdate", ctx, mock.Anything, "owner-1").Return(frozen, nil).Once()
		m.txController.On("Rollback").Return(nil).Once()

		_, err := svc.Debit(ctx, "owner-1", decimal.NewFromInt(1), "", ref)

		assert.ErrorIs(t, err, util.ErrWalletFrozen)
		m.txController.AssertNotCalled(t, "Commit")
		m.assertAll(t)
	})

	t.Run("CreateTransactionError", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newMockedWalletService()

		m.walletRepo.On("EnsureWallet", ctx, mock.Anything, "owner-1").Return(nil).Once()
		m.walletRepo.On("GetWalletByOwnerForUpdate", ctx, mock.Anything, "owner-1").Return(activeWallet("500"), nil).Once()
		m.walletRepo.On("UpdateWalletBalance", ctx, mock.Anything, "wallet-1", decimalEq("400"), int64(3)).Return(nil).Once()
		m.transactionRepo.On("CreateTransaction", ctx, mock.Anything, mock.Anything).Return(errors.New("db error")).Once()
		m.txController.On("Rollback").Return(nil).Once()

		_, err := svc.Debit(ctx, "owner-1", decimal.NewFromInt(100), "", ref)

		assert.ErrorContains(t, err, "failed to create transaction")
		m.txController.AssertNotCalled(t, "Commit")
		m.assertAll(t)
	})
}

func TestCredit_VersionConflict(t *testing.T) {
	ctx := context.Background()
	svc, m := newMockedWalletService()

	m.walletRepo.On("EnsureWallet", ctx, mock.Anything, "owner-1").Return(nil).Once()
	m.walletRepo.On("GetWalletByOwnerForUpdate", ctx, mock.Anything, "owner-1").Return(activeWallet("10"), nil).Once()
	m.walletRepo.On("UpdateWalletBalance", ctx, mock.Anything, "wallet-1", decimalEq("15"), int64(3)).
		Return(util.ErrConcurrentModification).Once()
	m.txController.On("Rollback").Return(nil).Once()

	_, err := svc.Credit(ctx, "owner-1", decimal.NewFromInt(5), "Top up",
		domain.NewReference(domain.ReferenceGatewayPayment, "pay-1"))

	assert.ErrorIs(t, err, util.ErrConcurrentModification)
	m.transactionRepo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything, mock.Anything)
	m.assertAll(t)
}

func TestReverse(t *testing.T) {
	original := &domain.Transaction{
		ID:        "tx-1",
		WalletID:  "wallet-1",
		Direction: domain.DirectionDebit,
		Amount:    decimal.NewFromInt(75),
		Status:    domain.TransactionStatusCompleted,
		Reference: domain.NewReference(domain.ReferenceHotelBooking, "hotel-1"),
	}
	reversalRef := domain.NewReference(domain.ReferenceTransactionReversal, "tx-1")

	t.Run("Forbidden", func(t *testing.T) {
		svc, m := newMockedWalletService()
		_, err := svc.Reverse(context.Background(), "tx-1", domain.Actor{ID: "u", Role: domain.RoleOwner}, "")
		assert.ErrorIs(t, err, util.ErrForbidden)
		m.assertAll(t)
	})

	t.Run("AlreadyReversed", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newMockedWalletService()
		m.transactionRepo.On("GetTransactionByID", ctx, mock.Anything, "tx-1").Return(original, nil).Once()
		m.transactionRepo.On("ExistsByReference", ctx, mock.Anything, "wallet-1", reversalRef).Return(true, nil).Once()
		m.txController.On("Rollback").Return(nil).Once()

		_, err := svc.Reverse(ctx, "tx-1", domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}, "")

		assert.ErrorIs(t, err, util.ErrAlreadyReversed)
		m.assertAll(t)
	})

	t.Run("CompensatesDebit", func(t *testing.T) {
		ctx := context.Background()
		svc, m := newMockedWalletService()
		m.transactionRepo.On("GetTransactionByID", ctx, mock.Anything, "tx-1").Return(original, nil).Once()
		m.transactionRepo.On("ExistsByReference", ctx, mock.Anything, "wallet-1", reversalRef).Return(false, nil).Once()
		m.walletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, "wallet-1").Return(activeWallet("25"), nil).Once()
		m.walletRepo.On("UpdateWalletBalance", ctx, mock.Anything, "wallet-1", decimalEq("100"), int64(3)).Return(nil).Once()
		m.transactionRepo.On("CreateTransaction", ctx, mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil).Once()
		m.txController.On("Commit").Return(nil).Once()
		m.txController.On("Rollback").Return(nil).Maybe()

		tx, err := svc.Reverse(ctx, "tx-1", domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}, "")

		assert.NoError(t, err)
		assert.Equal(t, domain.DirectionCredit, tx.Direction)
		assert.True(t, tx.Amount.Equal(decimal.NewFromInt(75)))
		assert.Equal(t, reversalRef, tx.Reference)
		m.assertAll(t)
	})
}

func TestVerifyBalance(t *testing.T) {
	ctx := context.Background()
	svc, m := newMockedWalletService()
	m.walletRepo.On("GetWalletByOwnerForUpdate", ctx, mock.Anything, "owner-1").Return(activeWallet("40"), nil).Once()
	m.transactionRepo.On("SumCompleted", ctx, mock.Anything, "wallet-1").
		Return(decimal.NewFromInt(100), decimal.NewFromInt(60), nil).Once()
	m.txController.On("Commit").Return(nil).Once()
	m.txController.On("Rollback").Return(nil).Maybe()

	report, err := svc.VerifyBalance(ctx, "owner-1")

	assert.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.True(t, report.Computed.Equal(decimal.NewFromInt(40)))
	m.assertAll(t)
}

func TestGetTransactionHistory_WalletNotFound(t *testing.T) {
	ctx := context.Background()
	svc, m := newMockedWalletService()
	m.walletRepo.On("GetWalletByOwner", ctx, m.dbExecutor, "ghost").Return(nil, util.ErrWalletNotFound).Once()

	_, _, err := svc.GetTransactionHistory(ctx, "ghost", 10, 0)

	assert.ErrorIs(t, err, util.ErrWalletNotFound)
	m.assertAll(t)
}
