// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/repository"
	"marketplace-core/pkg/db"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockTxController is a mock implementation of db.TxController.
// It also implements repository.DBExecutor by embedding MockDBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// mockTxManager routes the injected transaction functions to tx.
func mockTxManager(tx *MockTxController) TxManager {
	return TxManager{
		Begin: func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			return tx, nil
		},
		Commit: func(db.TxController) error {
			return tx.Commit()
		},
		Rollback: func(db.TxController) {
			_ = tx.Rollback()
		},
	}
}

// MockWalletRepository is a mock implementation of repository.WalletRepository.
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) EnsureWallet(ctx context.Context, q repository.DBExecutor, ownerID string) error {
	args := m.Called(ctx, q, ownerID)
	return args.Error(0)
}

func (m *MockWalletRepository) GetWalletByOwner(ctx context.Context, q repository.DBExecutor, ownerID string) (*domain.Wallet, error) {
	args := m.Called(ctx, q, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetWalletByOwnerForUpdate(ctx context.Context, q repository.DBExecutor, ownerID string) (*domain.Wallet, error) {
	args := m.Called(ctx, q, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetWalletByIDForUpdate(ctx context.Context, q repository.DBExecutor, walletID string) (*domain.Wallet, error) {
	args := m.Called(ctx, q, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateWalletBalance(ctx context.Context, q repository.DBExecutor, walletID string, newBalance decimal.Decimal, expectedVersion int64) error {
	args := m.Called(ctx, q, walletID, newBalance, expectedVersion)
	return args.Error(0)
}

func (m *MockWalletRepository) UpdateWalletStatus(ctx context.Context, q repository.DBExecutor, walletID string, status domain.WalletStatus) error {
	args := m.Called(ctx, q, walletID, status)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	args := m.Called(ctx, q, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetTransactionByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.Transaction, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetTransactionsByWalletID(ctx context.Context, q repository.DBExecutor, walletID string, limit, offset int) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, q, walletID, limit, offset)
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) ExistsByReference(ctx context.Context, q repository.DBExecutor, walletID string, ref domain.Reference) (bool, error) {
	args := m.Called(ctx, q, walletID, ref)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) SumCompleted(ctx context.Context, q repository.DBExecutor, walletID string) (decimal.Decimal, decimal.Decimal, error) {
	args := m.Called(ctx, q, walletID)
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Error(2)
}

// decimalEq matches a decimal argument by value rather than by representation.
func decimalEq(want string) interface{} {
	expected := decimal.RequireFromString(want)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(expected) })
}
