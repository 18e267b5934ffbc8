// internal/repository/postgres/quote_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/repository"
	"marketplace-core/internal/util"
)

const quoteColumns = `id, application_id, submitter_id, quoted_price, status, expires_at, resolved_at, created_at`

// QuoteRepository implements repository.QuoteRepository for PostgreSQL.
type QuoteRepository struct{}

// NewQuoteRepository creates a new QuoteRepository.
func NewQuoteRepository() repository.QuoteRepository {
	return &QuoteRepository{}
}

func (r *QuoteRepository) CreateQuote(ctx context.Context, q repository.DBExecutor, quote *domain.Quote) error {
	query := `INSERT INTO quotes (` + quoteColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q.ExecContext(ctx, query,
		quote.ID,
		quote.ApplicationID,
		quote.SubmitterID,
		quote.QuotedPrice,
		quote.Status,
		quote.ExpiresAt,
		quote.ResolvedAt,
		quote.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}
	return nil
}

func (r *QuoteRepository) GetQuoteByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.Quote, error) {
	var quote domain.Quote
	if err := q.GetContext(ctx, &quote, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote %s: %w", id, err)
	}
	return &quote, nil
}

func (r *QuoteRepository) ListQuotesByApplication(ctx context.Context, q repository.DBExecutor, applicationID string) ([]domain.Quote, error) {
	quotes := []domain.Quote{}
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE application_id = $1 ORDER BY created_at ASC, id ASC`
	if err := q.SelectContext(ctx, &quotes, query, applicationID); err != nil {
		return nil, fmt.Errorf("failed to list quotes for application %s: %w", applicationID, err)
	}
	return quotes, nil
}

// ResolveQuote moves a still-pending quote to its new status.
func (r *QuoteRepository) ResolveQuote(ctx context.Context, q repository.DBExecutor, quote *domain.Quote) error {
	query := `UPDATE quotes SET status = $1, resolved_at = $2 WHERE id = $3 AND status = 'pending'`
	result, err := q.ExecContext(ctx, query, quote.Status, quote.ResolvedAt, quote.ID)
	if err != nil {
		if isUniqueViolation(err, "uq_quotes_one_accepted") {
			return util.ErrAlreadyResolved
		}
		return fmt.Errorf("failed to resolve quote %s: %w", quote.ID, err)
	}
	return expectOneRow(result, util.ErrQuoteNotPending)
}

func (r *QuoteRepository) RejectPendingSiblings(ctx context.Context, q repository.DBExecutor, applicationID, exceptID string, at time.Time) (int64, error) {
	query := `UPDATE quotes SET status = 'rejected', resolved_at = $1
              WHERE application_id = $2 AND status = 'pending'`
	args := []interface{}{at, applicationID}
	if exceptID != "" {
		query += ` AND id <> $3`
		args = append(args, exceptID)
	}
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to reject sibling quotes of %s: %w", applicationID, err)
	}
	return result.RowsAffected()
}

func (r *QuoteRepository) ExpirePendingQuotes(ctx context.Context, q repository.DBExecutor, now time.Time) (int64, error) {
	query := `UPDATE quotes SET status = 'expired', resolved_at = $1 WHERE status = 'pending' AND expires_at <= $1`
	result, err := q.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire quotes: %w", err)
	}
	return result.RowsAffected()
}

func (r *QuoteRepository) HasAcceptedQuote(ctx context.Context, q repository.DBExecutor, applicationID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM quotes WHERE application_id = $1 AND status = 'accepted')`
	if err := q.GetContext(ctx, &exists, query, applicationID); err != nil {
		return false, fmt.Errorf("failed to check accepted quote for %s: %w", applicationID, err)
	}
	return exists, nil
}
