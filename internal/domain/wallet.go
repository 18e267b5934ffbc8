// internal/domain/wallet.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// WalletStatus defines whether a wallet accepts postings.
type WalletStatus string

const (
	WalletStatusActive WalletStatus = "active"
	WalletStatusFrozen WalletStatus = "frozen"
)

// Wallet represents a user's stored monetary balance.
type Wallet struct {
	ID        string          `db:"id" json:"id"`
	OwnerID   string          `db:"owner_id" json:"owner_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"` // NUMERIC(20, 4), never negative
	Status    WalletStatus    `db:"status" json:"status"`
	Version   int64           `db:"version" json:"version"` // bumped on every balance write
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// NewWallet creates a new, empty, active Wallet instance for ownerID.
func NewWallet(ownerID string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Balance:   decimal.Zero,
		Status:    WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsFrozen reports whether postings are blocked.
func (w *Wallet) IsFrozen() bool {
	return w.Status == WalletStatusFrozen
}

// CanDebit reports whether the balance covers amount.
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}
