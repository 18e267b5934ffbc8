// internal/repository/quote_repo.go
package repository

import (
	"context"
	"time"

	"marketplace-core/internal/domain"
)

// QuoteRepository defines the interface for quote data operations. Quotes are never deleted.
type QuoteRepository interface {
	CreateQuote(ctx context.Context, q DBExecutor, quote *domain.Quote) error
	GetQuoteByID(ctx context.Context, q DBExecutor, id string) (*domain.Quote, error)
	ListQuotesByApplication(ctx context.Context, q DBExecutor, applicationID string) ([]domain.Quote, error)
	// ResolveQuote moves a pending quote to quote.Status. It fails with util.ErrQuoteNotPending
	// when the stored quote is no longer pending.
	ResolveQuote(ctx context.Context, q DBExecutor, quote *domain.Quote) error
	// RejectPendingSiblings rejects every pending quote of applicationID except exceptID.
	// An empty exceptID rejects all of them.
	RejectPendingSiblings(ctx context.Context, q DBExecutor, applicationID, exceptID string, at time.Time) (int64, error)
	// ExpirePendingQuotes marks pending quotes whose expiry is at or before now as expired.
	ExpirePendingQuotes(ctx context.Context, q DBExecutor, now time.Time) (int64, error)
	// HasAcceptedQuote reports whether applicationID already has an accepted quote.
	HasAcceptedQuote(ctx context.Context, q DBExecutor, applicationID string) (bool, error)
}
