// internal/service/application_factory.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/notify"
	"marketplace-core/internal/repository"
	"marketplace-core/internal/util"
)

// ApplicationFactory is the single entry point booking flows use to hand a paid or
// priced request over to the shared fulfillment pipeline.
type ApplicationFactory interface {
	AttachServiceApplication(ctx context.Context, source domain.SourceRecord, serviceTypeKey string, payload domain.Payload) (*domain.ServiceApplication, error)
}

type applicationFactory struct {
	dbExecutor      repository.DBExecutor
	applicationRepo repository.ApplicationRepository
	dispatcher      notify.Dispatcher
}

// NewApplicationFactory creates a new ApplicationFactory.
func NewApplicationFactory(dbExecutor repository.DBExecutor, applicationRepo repository.ApplicationRepository, dispatcher notify.Dispatcher) ApplicationFactory {
	return &applicationFactory{
		dbExecutor:      dbExecutor,
		applicationRepo: applicationRepo,
		dispatcher:      dispatcher,
	}
}

// AttachServiceApplication creates a pending application for source. It never touches
// the wallet: the caller has already charged or priced the request.
func (f *applicationFactory) AttachServiceApplication(ctx context.Context, source domain.SourceRecord, serviceTypeKey string, payload domain.Payload) (*domain.ServiceApplication, error) {
	if source.OwnerID == "" || source.Reference.IsZero() {
		return nil, fmt.Errorf("attach service application: source record is incomplete: %w", util.ErrInvalidInput)
	}

	app, err := buildApplication(source.OwnerID, serviceTypeKey, domain.ApplicationStatusPending, payload, source.Reference)
	if err != nil {
		return nil, fmt.Errorf("attach service application: %w", err)
	}
	if err := f.applicationRepo.CreateApplication(ctx, f.dbExecutor, app); err != nil {
		return nil, fmt.Errorf("attach service application: %w", err)
	}

	slog.InfoContext(ctx, "service application attached",
		"application_id", app.ID,
		"number", app.DisplayNumber(),
		"service_type", serviceTypeKey,
		"reference", source.Reference.String(),
	)
	notify.Send(ctx, f.dispatcher, notify.Event{
		Type:          notify.EventApplicationCreated,
		ApplicationID: app.ID,
		OwnerID:       app.OwnerID,
		ToStatus:      string(app.Status),
		Metadata:      map[string]string{"service_type": serviceTypeKey, "number": app.DisplayNumber()},
	})
	return app, nil
}

// buildApplication snapshots payload and copies its amount, if any, verbatim.
func buildApplication(ownerID, serviceTypeKey string, status domain.ApplicationStatus, payload domain.Payload, ref domain.Reference) (*domain.ServiceApplication, error) {
	if !domain.ValidServiceTypeKey(serviceTypeKey) {
		return nil, fmt.Errorf("service type key %q: %w", serviceTypeKey, util.ErrInvalidInput)
	}
	snapshot, err := payload.Clone()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, util.ErrInvalidInput)
	}
	amount, hasAmount, err := snapshot.Amount()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, util.ErrInvalidInput)
	}
	if hasAmount && amount.IsNegative() {
		return nil, fmt.Errorf("negative amount %s: %w", amount, util.ErrInvalidInput)
	}

	app := domain.NewServiceApplication(ownerID, serviceTypeKey, status, snapshot, ref)
	if hasAmount {
		app.SetAmount(amount)
	}
	return app, nil
}
