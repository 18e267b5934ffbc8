// internal/domain/quote.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteStatus is the resolution state of a quote. A quote leaves pending exactly once.
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// Quote is a priced offer submitted by a servicing party against an application.
type Quote struct {
	ID            string          `db:"id" json:"id"`
	ApplicationID string          `db:"application_id" json:"application_id"`
	SubmitterID   string          `db:"submitter_id" json:"submitter_id"`
	QuotedPrice   decimal.Decimal `db:"quoted_price" json:"quoted_price"`
	Status        QuoteStatus     `db:"status" json:"status"`
	ExpiresAt     time.Time       `db:"expires_at" json:"expires_at"`
	ResolvedAt    *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// NewQuote creates a pending quote.
func NewQuote(applicationID, submitterID string, price decimal.Decimal, expiresAt time.Time) *Quote {
	return &Quote{
		ID:            uuid.NewString(),
		ApplicationID: applicationID,
		SubmitterID:   submitterID,
		QuotedPrice:   price,
		Status:        QuoteStatusPending,
		ExpiresAt:     expiresAt.UTC(),
		CreatedAt:     time.Now().UTC(),
	}
}

// IsExpired reports whether the quote can no longer be accepted at now.
func (q *Quote) IsExpired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// IsPending reports whether the quote is still unresolved.
func (q *Quote) IsPending() bool {
	return q.Status == QuoteStatusPending
}

// Resolve moves the quote out of pending.
func (q *Quote) Resolve(status QuoteStatus, at time.Time) {
	q.Status = status
	resolved := at
	q.ResolvedAt = &resolved
}
