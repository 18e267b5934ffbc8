// internal/repository/postgres/application_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/repository"
	"marketplace-core/internal/util"
)

const applicationColumns = `id, number, owner_id, service_type_key, status, payload, amount,
	reference_type, reference_id, submitted_at, resolved_at, created_at, updated_at`

// ApplicationRepository implements repository.ApplicationRepository for PostgreSQL.
type ApplicationRepository struct{}

// NewApplicationRepository creates a new ApplicationRepository.
func NewApplicationRepository() repository.ApplicationRepository {
	return &ApplicationRepository{}
}

// CreateApplication inserts app and reads back the number assigned by the sequence.
func (r *ApplicationRepository) CreateApplication(ctx context.Context, q repository.DBExecutor, app *domain.ServiceApplication) error {
	query := `INSERT INTO service_applications (id, owner_id, service_type_key, status, payload, amount,
                  reference_type, reference_id, submitted_at, resolved_at, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING number`
	err := q.QueryRowContext(ctx, query,
		app.ID,
		app.OwnerID,
		app.ServiceTypeKey,
		app.Status,
		app.Payload,
		app.Amount,
		app.Reference.Type,
		app.Reference.ID,
		app.SubmittedAt,
		app.ResolvedAt,
		app.CreatedAt,
		app.UpdatedAt,
	).Scan(&app.Number)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// GetApplicationByID retrieves an application without locking it.
func (r *ApplicationRepository) GetApplicationByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.ServiceApplication, error) {
	return r.getApplication(ctx, q, `SELECT `+applicationColumns+` FROM service_applications WHERE id = $1`, id)
}

// GetApplicationByIDForUpdate retrieves and locks an application.
func (r *ApplicationRepository) GetApplicationByIDForUpdate(ctx context.Context, q repository.DBExecutor, id string) (*domain.ServiceApplication, error) {
	return r.getApplication(ctx, q, `SELECT `+applicationColumns+` FROM service_applications WHERE id = $1 FOR UPDATE`, id)
}

func (r *ApplicationRepository) getApplication(ctx context.Context, q repository.DBExecutor, query, id string) (*domain.ServiceApplication, error) {
	var app domain.ServiceApplication
	if err := q.GetContext(ctx, &app, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to get application %s: %w", id, err)
	}
	return &app, nil
}

// ListApplicationsByOwner retrieves a page of the owner's applications, newest first.
func (r *ApplicationRepository) ListApplicationsByOwner(ctx context.Context, q repository.DBExecutor, ownerID string, limit, offset int) ([]domain.ServiceApplication, int64, error) {
	return r.list(ctx, q, "owner_id = $1", "created_at DESC, number DESC", ownerID, limit, offset)
}

// ListApplicationsByStatus retrieves a page of applications in status, oldest first.
func (r *ApplicationRepository) ListApplicationsByStatus(ctx context.Context, q repository.DBExecutor, status domain.ApplicationStatus, limit, offset int) ([]domain.ServiceApplication, int64, error) {
	return r.list(ctx, q, "status = $1", "created_at ASC, number ASC", string(status), limit, offset)
}

func (r *ApplicationRepository) list(ctx context.Context, q repository.DBExecutor, where, order, arg string, limit, offset int) ([]domain.ServiceApplication, int64, error) {
	apps := []domain.ServiceApplication{}
	query := `SELECT ` + applicationColumns + ` FROM service_applications
		WHERE ` + where + ` ORDER BY ` + order + ` LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &apps, query, arg, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}

	var total int64
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM service_applications WHERE `+where, arg); err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return apps, total, nil
}

// UpdateApplicationStatus persists the workflow columns of app.
func (r *ApplicationRepository) UpdateApplicationStatus(ctx context.Context, q repository.DBExecutor, app *domain.ServiceApplication) error {
	query := `UPDATE service_applications
              SET status = $1, amount = $2, submitted_at = $3, resolved_at = $4, updated_at = $5
              WHERE id = $6`
	result, err := q.ExecContext(ctx, query, app.Status, app.Amount, app.SubmittedAt, app.ResolvedAt, app.UpdatedAt, app.ID)
	if err != nil {
		return fmt.Errorf("failed to update application %s: %w", app.ID, err)
	}
	return expectOneRow(result, util.ErrApplicationNotFound)
}

// UpdateDraft persists payload and amount while the application is still a draft.
func (r *ApplicationRepository) UpdateDraft(ctx context.Context, q repository.DBExecutor, app *domain.ServiceApplication) error {
	query := `UPDATE service_applications SET payload = $1, amount = $2, updated_at = $3
              WHERE id = $4 AND status = 'draft'`
	result, err := q.ExecContext(ctx, query, app.Payload, app.Amount, app.UpdatedAt, app.ID)
	if err != nil {
		return fmt.Errorf("failed to update draft %s: %w", app.ID, err)
	}
	return expectOneRow(result, util.ErrApplicationNotFound)
}

// DeleteDraft removes an application still in draft. Drafts never have quotes.
func (r *ApplicationRepository) DeleteDraft(ctx context.Context, q repository.DBExecutor, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM service_applications WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", id, err)
	}
	return expectOneRow(result, util.ErrApplicationNotFound)
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
