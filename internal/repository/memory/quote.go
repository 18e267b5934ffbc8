// internal/repository/memory/quote.go
package memory

import (
	"context"
	"sort"
	"time"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/repository"
	"marketplace-core/internal/util"
)

// QuoteRepository implements repository.QuoteRepository on a Store.
type QuoteRepository struct {
	store *Store
}

func NewQuoteRepository(store *Store) repository.QuoteRepository {
	return &QuoteRepository{store: store}
}

func (r *QuoteRepository) CreateQuote(_ context.Context, q repository.DBExecutor, quote *domain.Quote) error {
	defer r.store.access(q)()
	if _, ok := r.store.data.applications[quote.ApplicationID]; !ok {
		return util.ErrApplicationNotFound
	}
	r.store.data.quotes[quote.ID] = *quote
	return nil
}

func (r *QuoteRepository) GetQuoteByID(_ context.Context, q repository.DBExecutor, id string) (*domain.Quote, error) {
	defer r.store.access(q)()
	quote, ok := r.store.data.quotes[id]
	if !ok {
		return nil, util.ErrQuoteNotFound
	}
	return &quote, nil
}

func (r *QuoteRepository) ListQuotesByApplication(_ context.Context, q repository.DBExecutor, applicationID string) ([]domain.Quote, error) {
	defer r.store.access(q)()
	quotes := []domain.Quote{}
	for _, quote := range r.store.data.quotes {
		if quote.ApplicationID == applicationID {
			quotes = append(quotes, quote)
		}
	}
	sort.Slice(quotes, func(i, j int) bool {
		if quotes[i].CreatedAt.Equal(quotes[j].CreatedAt) {
			return quotes[i].ID < quotes[j].ID
		}
		return quotes[i].CreatedAt.Before(quotes[j].CreatedAt)
	})
	return quotes, nil
}

func (r *QuoteRepository) ResolveQuote(_ context.Context, q repository.DBExecutor, quote *domain.Quote) error {
	defer r.store.access(q)()
	stored, ok := r.store.data.quotes[quote.ID]
	if !ok || !stored.IsPending() {
		return util.ErrQuoteNotPending
	}
	if quote.Status == domain.QuoteStatusAccepted && r.hasAccepted(stored.ApplicationID) {
		return util.ErrAlreadyResolved
	}
	stored.Status = quote.Status
	stored.ResolvedAt = quote.ResolvedAt
	r.store.data.quotes[quote.ID] = stored
	return nil
}

func (r *QuoteRepository) RejectPendingSiblings(_ context.Context, q repository.DBExecutor, applicationID, exceptID string, at time.Time) (int64, error) {
	defer r.store.access(q)()
	return r.resolveWhere(domain.QuoteStatusRejected, at, func(quote domain.Quote) bool {
		return quote.ApplicationID == applicationID && quote.ID != exceptID
	}), nil
}

func (r *QuoteRepository) ExpirePendingQuotes(_ context.Context, q repository.DBExecutor, now time.Time) (int64, error) {
	defer r.store.access(q)()
	return r.resolveWhere(domain.QuoteStatusExpired, now, func(quote domain.Quote) bool {
		return quote.IsExpired(now)
	}), nil
}

func (r *QuoteRepository) HasAcceptedQuote(_ context.Context, q repository.DBExecutor, applicationID string) (bool, error) {
	defer r.store.access(q)()
	return r.hasAccepted(applicationID), nil
}

func (r *QuoteRepository) hasAccepted(applicationID string) bool {
	for _, quote := range r.store.data.quotes {
		if quote.ApplicationID == applicationID && quote.Status == domain.QuoteStatusAccepted {
			return true
		}
	}
	return false
}

// resolveWhere moves every pending quote matching match to status.
func (r *QuoteRepository) resolveWhere(status domain.QuoteStatus, at time.Time, match func(domain.Quote) bool) int64 {
	var n int64
	for id, quote := range r.store.data.quotes {
		if !quote.IsPending() || !match(quote) {
			continue
		}
		quote.Resolve(status, at)
		r.store.data.quotes[id] = quote
		n++
	}
	return n
}
