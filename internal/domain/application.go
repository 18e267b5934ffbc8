// internal/domain/application.go
package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplicationStatus is the workflow state of a service application.
type ApplicationStatus string

const (
	ApplicationStatusDraft       ApplicationStatus = "draft"
	ApplicationStatusPending     ApplicationStatus = "pending"
	ApplicationStatusUnderReview ApplicationStatus = "under_review"
	ApplicationStatusApproved    ApplicationStatus = "approved"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
	ApplicationStatusCancelled   ApplicationStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusDraft, ApplicationStatusPending, ApplicationStatusUnderReview,
		ApplicationStatusApproved, ApplicationStatusRejected, ApplicationStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected || s == ApplicationStatusCancelled
}

// AcceptsQuotes reports whether quotes may be submitted or accepted in this status.
func (s ApplicationStatus) AcceptsQuotes() bool {
	return s == ApplicationStatusPending || s == ApplicationStatusUnderReview
}

var serviceTypeKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,63}$`)

// ValidServiceTypeKey reports whether key is a lowercase slug such as "visa" or "flight_booking".
func ValidServiceTypeKey(key string) bool {
	return serviceTypeKeyPattern.MatchString(key)
}

// ServiceApplication is a status-tracked request for any purchasable service.
type ServiceApplication struct {
	ID             string              `db:"id" json:"id"`
	Number         int64               `db:"number" json:"number"`
	OwnerID        string              `db:"owner_id" json:"owner_id"`
	ServiceTypeKey string              `db:"service_type_key" json:"service_type_key"`
	Status         ApplicationStatus   `db:"status" json:"status"`
	Payload        Payload             `db:"payload" json:"payload"`
	Amount         decimal.NullDecimal `db:"amount" json:"amount"`
	Reference
	SubmittedAt *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// NewServiceApplication creates an application in the given initial status.
// Number is assigned by the store.
func NewServiceApplication(ownerID, serviceTypeKey string, status ApplicationStatus, payload Payload, ref Reference) *ServiceApplication {
	now := time.Now().UTC()
	app := &ServiceApplication{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		ServiceTypeKey: serviceTypeKey,
		Status:         status,
		Payload:        payload,
		Reference:      ref,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if status == ApplicationStatusPending {
		app.SubmittedAt = &now
	}
	return app
}

// DisplayNumber renders the human-facing application number.
func (a *ServiceApplication) DisplayNumber() string {
	return fmt.Sprintf("APP-%06d", a.Number)
}

// SetAmount replaces the amount snapshot.
func (a *ServiceApplication) SetAmount(amount decimal.Decimal) {
	a.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
}

// ApplyStatus moves the application to status and stamps the lifecycle timestamps.
// Legality is checked by the caller against the transition table.
func (a *ServiceApplication) ApplyStatus(status ApplicationStatus, at time.Time) {
	a.Status = status
	a.UpdatedAt = at
	if status == ApplicationStatusPending && a.SubmittedAt == nil {
		submitted := at
		a.SubmittedAt = &submitted
	}
	if status.IsTerminal() {
		resolved := at
		a.ResolvedAt = &resolved
	}
}
