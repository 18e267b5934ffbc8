// internal/service/workflow_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/notify"
	"marketplace-core/internal/repository"
	"marketplace-core/internal/util"

	"github.com/shopspring/decimal"
)

// MaxPageSize caps list operations.
const MaxPageSize = 100

// WorkflowService drives the lifecycle of service applications.
type WorkflowService interface {
	Transition(ctx context.Context, applicationID string, target domain.ApplicationStatus, actor domain.Actor) (*domain.ServiceApplication, error)
	// CancelWithRefund credits refund to the owner and cancels the application in one transaction.
	// Only admins and the system may call it, and never on a draft.
	CancelWithRefund(ctx context.Context, applicationID string, actor domain.Actor, refund decimal.Decimal) (*domain.ServiceApplication, *domain.Transaction, error)
	CreateDraft(ctx context.Context, actor domain.Actor, serviceTypeKey string, payload domain.Payload) (*domain.ServiceApplication, error)
	UpdateDraft(ctx context.Context, applicationID string, actor domain.Actor, payload domain.Payload) (*domain.ServiceApplication, error)
	DeleteDraft(ctx context.Context, applicationID string, actor domain.Actor) error
	Get(ctx context.Context, applicationID string, actor domain.Actor) (*domain.ServiceApplication, error)
	ListByOwner(ctx context.Context, ownerID string, actor domain.Actor, limit, offset int) ([]domain.ServiceApplication, int64, error)
	ListByStatus(ctx context.Context, status domain.ApplicationStatus, actor domain.Actor, limit, offset int) ([]domain.ServiceApplication, int64, error)
}

type workflowService struct {
	tx              TxManager
	dbExecutor      repository.DBExecutor
	applicationRepo repository.ApplicationRepository
	quoteRepo       repository.QuoteRepository
	wallets         WalletService
	dispatcher      notify.Dispatcher
	now             func() time.Time
}

// NewWorkflowService creates a new instance of WorkflowService.
func NewWorkflowService(
	tx TxManager,
	dbExecutor repository.DBExecutor,
	applicationRepo repository.ApplicationRepository,
	quoteRepo repository.QuoteRepository,
	wallets WalletService,
	dispatcher notify.Dispatcher,
) WorkflowService {
	return &workflowService{
		tx:              tx,
		dbExecutor:      dbExecutor,
		applicationRepo: applicationRepo,
		quoteRepo:       quoteRepo,
		wallets:         wallets,
		dispatcher:      dispatcher,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// authorizeTransition checks table legality first, then the actor's role, then ownership.
func authorizeTransition(app *domain.ServiceApplication, target domain.ApplicationStatus, actor domain.Actor) error {
	if !domain.CanTransition(app.Status, target) {
		return &util.TransitionError{From: string(app.Status), To: string(target)}
	}
	if !domain.RoleAllowed(app.Status, target, actor.Role) {
		return fmt.Errorf("role %s cannot move %s to %s: %w", actor.Role, app.Status, target, util.ErrForbidden)
	}
	if actor.Role == domain.RoleOwner && !actor.Owns(app.OwnerID) {
		return fmt.Errorf("actor %s does not own application %s: %w", actor.ID, app.ID, util.ErrForbidden)
	}
	return nil
}

// applyTransition writes a validated status change on a locked application. Entering a
// terminal status rejects the quotes still pending, except keepQuoteID.
func applyTransition(
	ctx context.Context,
	q repository.DBExecutor,
	applications repository.ApplicationRepository,
	quotes repository.QuoteRepository,
	app *domain.ServiceApplication,
	target domain.ApplicationStatus,
	keepQuoteID string,
	at time.Time,
) error {
	app.ApplyStatus(target, at)
	if err := applications.UpdateApplicationStatus(ctx, q, app); err != nil {
		return fmt.Errorf("transition: %w", err)
	}
	if target.IsTerminal() {
		if _, err := quotes.RejectPendingSiblings(ctx, q, app.ID, keepQuoteID, at); err != nil {
			return fmt.Errorf("transition: %w", err)
		}
	}
	return nil
}

func transitionEvent(app *domain.ServiceApplication, from domain.ApplicationStatus, actor domain.Actor) notify.Event {
	return notify.Event{
		Type:          notify.EventApplicationTransition,
		ApplicationID: app.ID,
		OwnerID:       app.OwnerID,
		FromStatus:    string(from),
		ToStatus:      string(app.Status),
		ActorID:       actor.ID,
		Metadata:      map[string]string{"number": app.DisplayNumber()},
	}
}

func (s *workflowService) Transition(ctx context.Context, applicationID string, target domain.ApplicationStatus, actor domain.Actor) (*domain.ServiceApplication, error) {
	if !target.Valid() || !actor.Role.Valid() {
		return nil, util.ErrInvalidInput
	}

	var (
		app  *domain.ServiceApplication
		from domain.ApplicationStatus
	)
	err := s.tx.within(ctx, "transition", func(q repository.DBExecutor) error {
		var err error
		app, err = s.applicationRepo.GetApplicationByIDForUpdate(ctx, q, applicationID)
		if err != nil {
			return fmt.Errorf("transition: %w", err)
		}
		from = app.Status
		if err := authorizeTransition(app, target, actor); err != nil {
			return err
		}
		return applyTransition(ctx, q, s.applicationRepo, s.quoteRepo, app, target, "", s.now())
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "application transitioned", "application_id", app.ID, "from", from, "to", target, "actor", actor.ID)
	notify.Send(ctx, s.dispatcher, transitionEvent(app, from, actor))
	return app, nil
}

// CancelWithRefund cancels a charged application and credits refund to its owner.
// The refund amount is decided by the booking flow or an admin, never by the owner.
func (s *workflowService) CancelWithRefund(ctx context.Context, applicationID string, actor domain.Actor, refund decimal.Decimal) (*domain.ServiceApplication, *domain.Transaction, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleSystem {
		return nil, nil, fmt.Errorf("cancel with refund: %w", util.ErrForbidden)
	}
	if refund.LessThanOrEqual(decimal.Zero) {
		return nil, nil, fmt.Errorf("cancel with refund: refund must be positive: %w", util.ErrInvalidInput)
	}

	var (
		app    *domain.ServiceApplication
		from   domain.ApplicationStatus
		credit *domain.Transaction
	)
	err := s.tx.within(ctx, "cancel with refund", func(q repository.DBExecutor) error {
		var err error
		app, err = s.applicationRepo.GetApplicationByIDForUpdate(ctx, q, applicationID)
		if err != nil {
			return fmt.Errorf("cancel with refund: %w", err)
		}
		from = app.Status
		if app.Status == domain.ApplicationStatusDraft {
			return fmt.Errorf("cancel with refund: draft %s was never charged: %w", app.ID, util.ErrInvalidStateTransition)
		}
		if err := authorizeTransition(app, domain.ApplicationStatusCancelled, actor); err != nil {
			return err
		}
		if !app.Amount.Valid || refund.GreaterThan(app.Amount.Decimal) {
			return fmt.Errorf("cancel with refund: refund %s exceeds paid amount: %w", refund, util.ErrInvalidInput)
		}

		// The refund is posted before the status is written.
		credit, err = s.wallets.CreditInTx(ctx, q, app.OwnerID, refund,
			"Refund for "+app.DisplayNumber(),
			domain.NewReference(domain.ReferenceApplicationRefund, app.ID))
		if err != nil {
			return fmt.Errorf("cancel with refund: %w", err)
		}
		return applyTransition(ctx, q, s.applicationRepo, s.quoteRepo, app, domain.ApplicationStatusCancelled, "", s.now())
	})
	if err != nil {
		return nil, nil, err
	}

	slog.InfoContext(ctx, "application cancelled with refund", "application_id", app.ID, "refund", refund.String(), "actor", actor.ID)
	notify.Send(ctx, s.dispatcher, transitionEvent(app, from, actor))
	return app, credit, nil
}

func (s *workflowService) CreateDraft(ctx context.Context, actor domain.Actor, serviceTypeKey string, payload domain.Payload) (*domain.ServiceApplication, error) {
	if actor.Role != domain.RoleOwner || actor.ID == "" {
		return nil, fmt.Errorf("create draft: %w", util.ErrForbidden)
	}
	app, err := buildApplication(actor.ID, serviceTypeKey, domain.ApplicationStatusDraft, payload, domain.Reference{})
	if err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	if err := s.applicationRepo.CreateApplication(ctx, s.dbExecutor, app); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	return app, nil
}

func (s *workflowService) UpdateDraft(ctx context.Context, applicationID string, actor domain.Actor, payload domain.Payload) (*domain.ServiceApplication, error) {
	snapshot, err := payload.Clone()
	if err != nil {
		return nil, fmt.Errorf("update draft: %v: %w", err, util.ErrInvalidInput)
	}
	amount, hasAmount, err := snapshot.Amount()
	if err != nil {
		return nil, fmt.Errorf("update draft: %v: %w", err, util.ErrInvalidInput)
	}

	var app *domain.ServiceApplication
	err = s.tx.within(ctx, "update draft", func(q repository.DBExecutor) error {
		var err error
		app, err = s.applicationRepo.GetApplicationByIDForUpdate(ctx, q, applicationID)
		if err != nil {
			return fmt.Errorf("update draft: %w", err)
		}
		if !actor.Owns(app.OwnerID) {
			return fmt.Errorf("update draft: %w", util.ErrForbidden)
		}
		if app.Status != domain.ApplicationStatusDraft {
			return fmt.Errorf("update draft: application is %s: %w", app.Status, util.ErrInvalidStateTransition)
		}
		app.Payload = snapshot
		app.Amount = decimal.NullDecimal{}
		if hasAmount {
			app.SetAmount(amount)
		}
		app.UpdatedAt = s.now()
		return s.applicationRepo.UpdateDraft(ctx, q, app)
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

func (s *workflowService) DeleteDraft(ctx context.Context, applicationID string, actor domain.Actor) error {
	return s.tx.within(ctx, "delete draft", func(q repository.DBExecutor) error {
		app, err := s.applicationRepo.GetApplicationByIDForUpdate(ctx, q, applicationID)
		if err != nil {
			return fmt.Errorf("delete draft: %w", err)
		}
		if !actor.Owns(app.OwnerID) && actor.Role != domain.RoleAdmin {
			return fmt.Errorf("delete draft: %w", util.ErrForbidden)
		}
		if app.Status != domain.ApplicationStatusDraft {
			return fmt.Errorf("delete draft: application is %s: %w", app.Status, util.ErrInvalidStateTransition)
		}
		return s.applicationRepo.DeleteDraft(ctx, q, app.ID)
	})
}

// canView: owners see their own applications, staff see everything past draft,
// admins and the system see everything.
func canView(app *domain.ServiceApplication, actor domain.Actor) bool {
	switch actor.Role {
	case domain.RoleOwner:
		return actor.Owns(app.OwnerID)
	case domain.RoleAgency:
		return app.Status != domain.ApplicationStatusDraft
	case domain.RoleAdmin, domain.RoleSystem:
		return true
	}
	return false
}

func (s *workflowService) Get(ctx context.Context, applicationID string, actor domain.Actor) (*domain.ServiceApplication, error) {
	app, err := s.applicationRepo.GetApplicationByID(ctx, s.dbExecutor, applicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if !canView(app, actor) {
		// Hidden drafts and foreign applications look absent.
		return nil, util.ErrApplicationNotFound
	}
	return app, nil
}

func (s *workflowService) ListByOwner(ctx context.Context, ownerID string, actor domain.Actor, limit, offset int) ([]domain.ServiceApplication, int64, error) {
	if err := validatePage(limit, offset); err != nil {
		return nil, 0, err
	}
	if !actor.Owns(ownerID) && actor.Role != domain.RoleAdmin && actor.Role != domain.RoleSystem {
		return nil, 0, fmt.Errorf("list applications: %w", util.ErrForbidden)
	}
	apps, total, err := s.applicationRepo.ListApplicationsByOwner(ctx, s.dbExecutor, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	return apps, total, nil
}

// ListByStatus is the agency work queue.
func (s *workflowService) ListByStatus(ctx context.Context, status domain.ApplicationStatus, actor domain.Actor, limit, offset int) ([]domain.ServiceApplication, int64, error) {
	if err := validatePage(limit, offset); err != nil {
		return nil, 0, err
	}
	if !status.Valid() {
		return nil, 0, util.ErrInvalidInput
	}
	allowed := actor.Role == domain.RoleAdmin || actor.Role == domain.RoleSystem ||
		(actor.Role == domain.RoleAgency && status != domain.ApplicationStatusDraft)
	if !allowed {
		return nil, 0, fmt.Errorf("list applications by status: %w", util.ErrForbidden)
	}
	apps, total, err := s.applicationRepo.ListApplicationsByStatus(ctx, s.dbExecutor, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications by status: %w", err)
	}
	return apps, total, nil
}

func validatePage(limit, offset int) error {
	if limit <= 0 || limit > MaxPageSize || offset < 0 {
		return fmt.Errorf("page limit must be 1..%d: %w", MaxPageSize, util.ErrInvalidInput)
	}
	return nil
}
