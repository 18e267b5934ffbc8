// internal/repository/memory/application.go
package memory

import (
	"context"
	"fmt"
	"sort"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/repository"
	"marketplace-core/internal/util"
)

// ApplicationRepository implements repository.ApplicationRepository on a Store.
type ApplicationRepository struct {
	store *Store
}

func NewApplicationRepository(store *Store) repository.ApplicationRepository {
	return &ApplicationRepository{store: store}
}

func (r *ApplicationRepository) CreateApplication(_ context.Context, q repository.DBExecutor, app *domain.ServiceApplication) error {
	defer r.store.access(q)()
	if _, ok := r.store.data.applications[app.ID]; ok {
		return fmt.Errorf("application %s already exists: %w", app.ID, util.ErrInvalidInput)
	}
	stored, err := detach(app)
	if err != nil {
		return err
	}
	r.store.seq++
	stored.Number = r.store.seq
	app.Number = stored.Number
	r.store.data.applications[app.ID] = stored
	return nil
}

func (r *ApplicationRepository) GetApplicationByID(_ context.Context, q repository.DBExecutor, id string) (*domain.ServiceApplication, error) {
	defer r.store.access(q)()
	return r.get(id)
}

func (r *ApplicationRepository) GetApplicationByIDForUpdate(_ context.Context, q repository.DBExecutor, id string) (*domain.ServiceApplication, error) {
	defer r.store.access(q)()
	return r.get(id)
}

func (r *ApplicationRepository) get(id string) (*domain.ServiceApplication, error) {
	app, ok := r.store.data.applications[id]
	if !ok {
		return nil, util.ErrApplicationNotFound
	}
	out, err := detach(&app)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ApplicationRepository) ListApplicationsByOwner(_ context.Context, q repository.DBExecutor, ownerID string, limit, offset int) ([]domain.ServiceApplication, int64, error) {
	defer r.store.access(q)()
	matched := r.filter(func(a domain.ServiceApplication) bool { return a.OwnerID == ownerID })
	sort.Slice(matched, func(i, j int) bool { return matched[i].Number > matched[j].Number })
	return page(matched, limit, offset), int64(len(matched)), nil
}

func (r *ApplicationRepository) ListApplicationsByStatus(_ context.Context, q repository.DBExecutor, status domain.ApplicationStatus, limit, offset int) ([]domain.ServiceApplication, int64, error) {
	defer r.store.access(q)()
	matched := r.filter(func(a domain.ServiceApplication) bool { return a.Status == status })
	sort.Slice(matched, func(i, j int) bool { return matched[i].Number < matched[j].Number })
	return page(matched, limit, offset), int64(len(matched)), nil
}

func (r *ApplicationRepository) filter(keep func(domain.ServiceApplication) bool) []domain.ServiceApplication {
	out := []domain.ServiceApplication{}
	for _, app := range r.store.data.applications {
		if keep(app) {
			out = append(out, app)
		}
	}
	return out
}

func (r *ApplicationRepository) UpdateApplicationStatus(_ context.Context, q repository.DBExecutor, app *domain.ServiceApplication) error {
	defer r.store.access(q)()
	stored, ok := r.store.data.applications[app.ID]
	if !ok {
		return util.ErrApplicationNotFound
	}
	stored.Status = app.Status
	stored.Amount = app.Amount
	stored.SubmittedAt = app.SubmittedAt
	stored.ResolvedAt = app.ResolvedAt
	stored.UpdatedAt = app.UpdatedAt
	r.store.data.applications[app.ID] = stored
	return nil
}

func (r *ApplicationRepository) UpdateDraft(_ context.Context, q repository.DBExecutor, app *domain.ServiceApplication) error {
	defer r.store.access(q)()
	stored, ok := r.store.data.applications[app.ID]
	if !ok || stored.Status != domain.ApplicationStatusDraft {
		return util.ErrApplicationNotFound
	}
	payload, err := app.Payload.Clone()
	if err != nil {
		return err
	}
	stored.Payload = payload
	stored.Amount = app.Amount
	stored.UpdatedAt = app.UpdatedAt
	r.store.data.applications[app.ID] = stored
	return nil
}

func (r *ApplicationRepository) DeleteDraft(_ context.Context, q repository.DBExecutor, id string) error {
	defer r.store.access(q)()
	stored, ok := r.store.data.applications[id]
	if !ok || stored.Status != domain.ApplicationStatusDraft {
		return util.ErrApplicationNotFound
	}
	delete(r.store.data.applications, id)
	return nil
}

// detach copies app with its own payload so callers cannot reach stored state.
func detach(app *domain.ServiceApplication) (domain.ServiceApplication, error) {
	out := *app
	payload, err := app.Payload.Clone()
	if err != nil {
		return domain.ServiceApplication{}, err
	}
	out.Payload = payload
	return out, nil
}
