// internal/service/quote_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/notify"
	"marketplace-core/internal/repository"
	"marketplace-core/internal/util"

	"github.com/shopspring/decimal"
)

// QuoteService runs competitive quoting on service applications.
type QuoteService interface {
	SubmitQuote(ctx context.Context, applicationID string, submitter domain.Actor, price decimal.Decimal, expiresAt time.Time) (*domain.Quote, error)
	// AcceptQuote accepts quoteID, rejects its pending siblings, debits the owner and
	// approves the application, all or nothing.
	AcceptQuote(ctx context.Context, applicationID, quoteID string, actor domain.Actor) (*domain.ServiceApplication, error)
	RejectQuote(ctx context.Context, applicationID, quoteID string, actor domain.Actor) (*domain.Quote, error)
	ListQuotes(ctx context.Context, applicationID string, actor domain.Actor) ([]domain.Quote, error)
	// ExpireStale marks overdue pending quotes as expired. Acceptance never relies on it.
	ExpireStale(ctx context.Context) (int64, error)
}

type quoteService struct {
	tx              TxManager
	dbExecutor      repository.DBExecutor
	applicationRepo repository.ApplicationRepository
	quoteRepo       repository.QuoteRepository
	wallets         WalletService
	dispatcher      notify.Dispatcher
	now             func() time.Time
}

// NewQuoteService creates a new instance of QuoteService.
func NewQuoteService(
	tx TxManager,
	dbExecutor repository.DBExecutor,
	applicationRepo repository.ApplicationRepository,
	quoteRepo repository.QuoteRepository,
	wallets WalletService,
	dispatcher notify.Dispatcher,
) QuoteService {
	return &quoteService{
		tx:              tx,
		dbExecutor:      dbExecutor,
		applicationRepo: applicationRepo,
		quoteRepo:       quoteRepo,
		wallets:         wallets,
		dispatcher:      dispatcher,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *quoteService) SubmitQuote(ctx context.Context, applicationID string, submitter domain.Actor, price decimal.Decimal, expiresAt time.Time) (*domain.Quote, error) {
	if !submitter.IsStaff() || submitter.ID == "" {
		return nil, fmt.Errorf("submit quote: %w", util.ErrForbidden)
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("submit quote: price must be positive: %w", util.ErrInvalidInput)
	}

	var (
		quote *domain.Quote
		app   *domain.ServiceApplication
	)
	err := s.tx.within(ctx, "submit quote", func(q repository.DBExecutor) error {
		var err error
		app, err = s.applicationRepo.GetApplicationByIDForUpdate(ctx, q, applicationID)
		if err != nil {
			return fmt.Errorf("submit quote: %w", err)
		}
		if !app.Status.AcceptsQuotes() {
			return fmt.Errorf("submit quote: application is %s: %w", app.Status, util.ErrApplicationNotAcceptingQuotes)
		}
		now := s.now()
		if !expiresAt.After(now) {
			return fmt.Errorf("submit quote: expiry %s is not in the future: %w", expiresAt.Format(time.RFC3339), util.ErrQuoteExpired)
		}

		quote = domain.NewQuote(app.ID, submitter.ID, price, expiresAt)
		quote.CreatedAt = now
		if err := s.quoteRepo.CreateQuote(ctx, q, quote); err != nil {
			return fmt.Errorf("submit quote: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notify.Send(ctx, s.dispatcher, notify.Event{
		Type:          notify.EventQuoteSubmitted,
		ApplicationID: app.ID,
		OwnerID:       app.OwnerID,
		QuoteID:       quote.ID,
		ActorID:       submitter.ID,
		Metadata:      map[string]string{"quoted_price": price.String()},
	})
	return quote, nil
}

// lockQuote locks the application first, then loads the quote and checks it belongs there.
// All quote resolutions of one application serialize on the application row.
func (s *quoteService) lockQuote(ctx context.Context, q repository.DBExecutor, applicationID, quoteID string) (*domain.ServiceApplication, *domain.Quote, error) {
	app, err := s.applicationRepo.GetApplicationByIDForUpdate(ctx, q, applicationID)
	if err != nil {
		return nil, nil, err
	}
	quote, err := s.quoteRepo.GetQuoteByID(ctx, q, quoteID)
	if err != nil {
		return nil, nil, err
	}
	if quote.ApplicationID != app.ID {
		return nil, nil, util.ErrQuoteNotFound
	}
	return app, quote, nil
}

func canDecideQuote(app *domain.ServiceApplication, actor domain.Actor) bool {
	return actor.Owns(app.OwnerID) || actor.Role == domain.RoleAdmin
}

func (s *quoteService) AcceptQuote(ctx context.Context, applicationID, quoteID string, actor domain.Actor) (*domain.ServiceApplication, error) {
	var (
		app      *domain.ServiceApplication
		quote    *domain.Quote
		from     domain.ApplicationStatus
		rejected int64
	)
	err := s.tx.within(ctx, "accept quote", func(q repository.DBExecutor) error {
		var err error
		app, quote, err = s.lockQuote(ctx, q, applicationID, quoteID)
		if err != nil {
			return fmt.Errorf("accept quote: %w", err)
		}
		if !canDecideQuote(app, actor) {
			return fmt.Errorf("accept quote: %w", util.ErrForbidden)
		}
		from = app.Status

		accepted, err := s.quoteRepo.HasAcceptedQuote(ctx, q, app.ID)
		if err != nil {
			return fmt.Errorf("accept quote: %w", err)
		}
		if app.Status.IsTerminal() || accepted {
			return fmt.Errorf("accept quote: application %s is %s: %w", app.ID, app.Status, util.ErrAlreadyResolved)
		}
		if !app.Status.AcceptsQuotes() {
			return fmt.Errorf("accept quote: application is %s: %w", app.Status, util.ErrApplicationNotAcceptingQuotes)
		}
		if !quote.IsPending() {
			return fmt.Errorf("accept quote: quote %s is %s: %w", quote.ID, quote.Status, util.ErrQuoteNotPending)
		}
		now := s.now()
		if quote.IsExpired(now) {
			return fmt.Errorf("accept quote: quote %s expired at %s: %w", quote.ID, quote.ExpiresAt.Format(time.RFC3339), util.ErrQuoteExpired)
		}

		quote.Resolve(domain.QuoteStatusAccepted, now)
		if err := s.quoteRepo.ResolveQuote(ctx, q, quote); err != nil {
			return fmt.Errorf("accept quote: %w", err)
		}
		rejected, err = s.quoteRepo.RejectPendingSiblings(ctx, q, app.ID, quote.ID, now)
		if err != nil {
			return fmt.Errorf("accept quote: %w", err)
		}

		_, err = s.wallets.DebitInTx(ctx, q, app.OwnerID, quote.QuotedPrice,
			fmt.Sprintf("Accepted quote for %s", app.DisplayNumber()),
			domain.NewReference(domain.ReferenceQuote, quote.ID))
		if err != nil {
			return fmt.Errorf("accept quote: %w", err)
		}

		// Resolution is performed on the subsystem's own behalf.
		if err := authorizeTransition(app, domain.ApplicationStatusApproved, domain.SystemActor); err != nil {
			return err
		}
		app.SetAmount(quote.QuotedPrice)
		return applyTransition(ctx, q, s.applicationRepo, s.quoteRepo, app, domain.ApplicationStatusApproved, quote.ID, now)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "quote accepted",
		"application_id", app.ID,
		"quote_id", quote.ID,
		"price", quote.QuotedPrice.String(),
		"rejected_siblings", rejected,
	)
	notify.Send(ctx, s.dispatcher, notify.Event{
		Type:          notify.EventQuoteAccepted,
		ApplicationID: app.ID,
		OwnerID:       app.OwnerID,
		QuoteID:       quote.ID,
		ActorID:       actor.ID,
		Metadata: map[string]string{
			"quoted_price":      quote.QuotedPrice.String(),
			"rejected_siblings": strconv.FormatInt(rejected, 10),
		},
	})
	notify.Send(ctx, s.dispatcher, transitionEvent(app, from, domain.SystemActor))
	return app, nil
}

func (s *quoteService) RejectQuote(ctx context.Context, applicationID, quoteID string, actor domain.Actor) (*domain.Quote, error) {
	var (
		app   *domain.ServiceApplication
		quote *domain.Quote
	)
	err := s.tx.within(ctx, "reject quote", func(q repository.DBExecutor) error {
		var err error
		app, quote, err = s.lockQuote(ctx, q, applicationID, quoteID)
		if err != nil {
			return fmt.Errorf("reject quote: %w", err)
		}
		if !canDecideQuote(app, actor) {
			return fmt.Errorf("reject quote: %w", util.ErrForbidden)
		}
		if !quote.IsPending() {
			return fmt.Errorf("reject quote: quote %s is %s: %w", quote.ID, quote.Status, util.ErrQuoteNotPending)
		}
		quote.Resolve(domain.QuoteStatusRejected, s.now())
		if err := s.quoteRepo.ResolveQuote(ctx, q, quote); err != nil {
			return fmt.Errorf("reject quote: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notify.Send(ctx, s.dispatcher, notify.Event{
		Type:          notify.EventQuoteRejected,
		ApplicationID: app.ID,
		OwnerID:       app.OwnerID,
		QuoteID:       quote.ID,
		ActorID:       actor.ID,
	})
	return quote, nil
}

func (s *quoteService) ListQuotes(ctx context.Context, applicationID string, actor domain.Actor) ([]domain.Quote, error) {
	app, err := s.applicationRepo.GetApplicationByID(ctx, s.dbExecutor, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	if !canView(app, actor) {
		return nil, util.ErrApplicationNotFound
	}
	quotes, err := s.quoteRepo.ListQuotesByApplication(ctx, s.dbExecutor, app.ID)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	return quotes, nil
}

func (s *quoteService) ExpireStale(ctx context.Context) (int64, error) {
	expired, err := s.quoteRepo.ExpirePendingQuotes(ctx, s.dbExecutor, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire stale quotes: %w", err)
	}
	if expired > 0 {
		slog.InfoContext(ctx, "expired stale quotes", "count", expired)
		notify.Send(ctx, s.dispatcher, notify.Event{
			Type:     notify.EventQuotesExpired,
			Metadata: map[string]string{"count": strconv.FormatInt(expired, 10)},
		})
	}
	return expired, nil
}
