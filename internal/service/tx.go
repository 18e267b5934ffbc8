// internal/service/tx.go
package service

import (
	"context"
	"fmt"

	"marketplace-core/internal/repository"
	"marketplace-core/pkg/db"
)

// TxManager carries the injected transaction functions shared by every service.
// Beginner may be nil when Begin ignores it, as the in-memory store does.
type TxManager struct {
	Beginner db.DBTxBeginner
	Begin    db.BeginTxFunc
	Commit   db.CommitTxFunc
	Rollback db.RollbackTxFunc
}

// NewTxManager wires the pkg/db transaction functions around a *sqlx.DB.
func NewTxManager(beginner db.DBTxBeginner) TxManager {
	return TxManager{
		Beginner: beginner,
		Begin:    db.BeginTx,
		Commit:   db.CommitTx,
		Rollback: db.RollbackTx,
	}
}

// within runs fn inside one database transaction. fn's error aborts the transaction
// and is returned as is; op only prefixes errors of the transaction itself.
func (m TxManager) within(ctx context.Context, op string, fn func(q repository.DBExecutor) error) error {
	txController, err := m.Begin(ctx, m.Beginner)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer m.Rollback(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("%s: transaction controller does not implement DBExecutor", op)
	}

	if err := fn(txExecutor); err != nil {
		return err
	}

	if err := m.Commit(txController); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	return nil
}
