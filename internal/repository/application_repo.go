// internal/repository/application_repo.go
package repository

import (
	"context"

	"marketplace-core/internal/domain"
)

// ApplicationRepository defines the interface for service application data operations.
type ApplicationRepository interface {
	// CreateApplication inserts app and fills in its sequential Number.
	CreateApplication(ctx context.Context, q DBExecutor, app *domain.ServiceApplication) error
	GetApplicationByID(ctx context.Context, q DBExecutor, id string) (*domain.ServiceApplication, error)
	// GetApplicationByIDForUpdate row-locks the application until q commits.
	GetApplicationByIDForUpdate(ctx context.Context, q DBExecutor, id string) (*domain.ServiceApplication, error)
	ListApplicationsByOwner(ctx context.Context, q DBExecutor, ownerID string, limit, offset int) ([]domain.ServiceApplication, int64, error)
	ListApplicationsByStatus(ctx context.Context, q DBExecutor, status domain.ApplicationStatus, limit, offset int) ([]domain.ServiceApplication, int64, error)
	// UpdateApplicationStatus persists status, amount and lifecycle timestamps.
	// Only the workflow and quote services call it.
	UpdateApplicationStatus(ctx context.Context, q DBExecutor, app *domain.ServiceApplication) error
	// UpdateDraft persists payload and amount of an application still in draft.
	UpdateDraft(ctx context.Context, q DBExecutor, app *domain.ServiceApplication) error
	// DeleteDraft removes an application still in draft.
	DeleteDraft(ctx context.Context, q DBExecutor, id string) error
}
