// internal/service/harness_test.go
package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/notify"
	"marketplace-core/internal/repository/memory"
	"marketplace-core/pkg/db"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	ownerActor  = domain.Actor{ID: "owner-1", Role: domain.RoleOwner}
	otherOwner  = domain.Actor{ID: "owner-2", Role: domain.RoleOwner}
	agencyActor = domain.Actor{ID: "agency-1", Role: domain.RoleAgency}
	adminActor  = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

// recordingDispatcher keeps every event and fails with err when set.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, event notify.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return d.err
}

func (d *recordingDispatcher) types() []notify.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notify.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

// harness wires every service to one in-memory store.
type harness struct {
	store    *memory.Store
	wallets  WalletService
	workflow WorkflowService
	quotes   QuoteService
	factory  ApplicationFactory
	events   *recordingDispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	tx := TxManager{Begin: store.Begin, Commit: db.CommitTx, Rollback: db.RollbackTx}
	events := &recordingDispatcher{}

	applications := memory.NewApplicationRepository(store)
	quotes := memory.NewQuoteRepository(store)
	wallets := NewWalletService(tx, store, memory.NewWalletRepository(store), memory.NewTransactionRepository(store))

	return &harness{
		store:    store,
		wallets:  wallets,
		workflow: NewWorkflowService(tx, store, applications, quotes, wallets, events),
		quotes:   NewQuoteService(tx, store, applications, quotes, wallets, events),
		factory:  NewApplicationFactory(store, applications, events),
		events:   events,
	}
}

// shiftClock moves the clock of the quote service by d.
func (h *harness) shiftClock(d time.Duration) {
	h.quotes.(*quoteService).now = func() time.Time { return time.Now().UTC().Add(d) }
}

func (h *harness) fund(t *testing.T, ownerID, amount string) {
	t.Helper()
	_, err := h.wallets.Credit(context.Background(), ownerID, decimal.RequireFromString(amount), "Top up",
		domain.NewReference(domain.ReferenceGatewayPayment, uuid.NewString()))
	require.NoError(t, err)
}

func (h *harness) balance(t *testing.T, ownerID string) decimal.Decimal {
	t.Helper()
	wallet, err := h.wallets.GetWallet(context.Background(), ownerID)
	require.NoError(t, err)
	return wallet.Balance
}

func (h *harness) attach(t *testing.T, ownerID string, payload domain.Payload) *domain.ServiceApplication {
	t.Helper()
	source := domain.SourceRecord{
		Reference: domain.NewReference(domain.ReferenceVisaRequest, uuid.NewString()),
		OwnerID:   ownerID,
	}
	app, err := h.factory.AttachServiceApplication(context.Background(), source, "visa", payload)
	require.NoError(t, err)
	return app
}

func (h *harness) submit(t *testing.T, applicationID, price string) *domain.Quote {
	t.Helper()
	quote, err := h.quotes.SubmitQuote(context.Background(), applicationID, agencyActor,
		decimal.RequireFromString(price), time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	return quote
}

func (h *harness) quoteStatus(t *testing.T, applicationID, quoteID string) domain.QuoteStatus {
	t.Helper()
	quotes, err := h.quotes.ListQuotes(context.Background(), applicationID, adminActor)
	require.NoError(t, err)
	for _, q := range quotes {
		if q.ID == quoteID {
			return q.Status
		}
	}
	t.Fatalf("quote %s not listed", quoteID)
	return ""
}

func decimalOf(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
