// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Direction defines whether a ledger entry adds to or removes from a balance.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Opposite returns the direction that cancels d.
func (d Direction) Opposite() Direction {
	if d == DirectionCredit {
		return DirectionDebit
	}
	return DirectionCredit
}

// TransactionStatus defines the status of a ledger entry.
// Only completed entries count towards a balance. The wallet service only ever
// persists completed entries; failed and reversed exist for imported history.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusReversed  TransactionStatus = "reversed"
)

// Transaction is one immutable ledger entry.
type Transaction struct {
	ID           string            `db:"id" json:"id"`
	WalletID     string            `db:"wallet_id" json:"wallet_id"`
	Direction    Direction         `db:"direction" json:"direction"`
	Amount       decimal.Decimal   `db:"amount" json:"amount"`
	Status       TransactionStatus `db:"status" json:"status"`
	Description  string            `db:"description" json:"description"`
	Reference
	BalanceAfter decimal.Decimal `db:"balance_after" json:"balance_after"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// NewTransaction creates a completed ledger entry.
func NewTransaction(
	walletID string,
	direction Direction,
	amount decimal.Decimal,
	description string,
	ref Reference,
	balanceAfter decimal.Decimal,
) *Transaction {
	return &Transaction{
		ID:           uuid.NewString(),
		WalletID:     walletID,
		Direction:    direction,
		Amount:       amount,
		Status:       TransactionStatusCompleted,
		Description:  description,
		Reference:    ref,
		BalanceAfter: balanceAfter,
		CreatedAt:    time.Now().UTC(),
	}
}

// SignedAmount returns the amount with the sign of its effect on the balance.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Direction == DirectionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
