// internal/api/handler/application.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"marketplace-core/internal/api/types"
	"marketplace-core/internal/domain"
	"marketplace-core/internal/service"
	"marketplace-core/internal/util"
)

// ApplicationHandler handles HTTP requests for service applications.
type ApplicationHandler struct {
	responder
	workflow service.WorkflowService
	factory  service.ApplicationFactory
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(workflow service.WorkflowService, factory service.ApplicationFactory, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		responder: responder{logger: logger},
		workflow:  workflow,
		factory:   factory,
	}
}

// AttachRequest is sent by booking flows after they have charged or priced a request.
type AttachRequest struct {
	OwnerID        string               `json:"owner_id"`
	ServiceTypeKey string               `json:"service_type_key"`
	ReferenceType  domain.ReferenceType `json:"reference_type"`
	ReferenceID    string               `json:"reference_id"`
	Payload        domain.Payload       `json:"payload"`
}

// DraftRequest creates or edits a draft.
type DraftRequest struct {
	ServiceTypeKey string         `json:"service_type_key"`
	Payload        domain.Payload `json:"payload"`
}

// TransitionRequest asks for a status change.
type TransitionRequest struct {
	Status domain.ApplicationStatus `json:"status"`
}

// CancelWithRefundRequest cancels an application and refunds the owner.
type CancelWithRefundRequest struct {
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

// Attach handles POST /applications.
func (h *ApplicationHandler) Attach(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	if actor.Role != domain.RoleSystem {
		h.respondWithError(w, util.ErrForbidden)
		return
	}

	var req AttachRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	source := domain.SourceRecord{
		Reference: domain.NewReference(req.ReferenceType, req.ReferenceID),
		OwnerID:   req.OwnerID,
	}
	app, err := h.factory.AttachServiceApplication(r.Context(), source, req.ServiceTypeKey, req.Payload)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, app)
}

// CreateDraft handles POST /applications/drafts.
func (h *ApplicationHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req DraftRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	app, err := h.workflow.CreateDraft(r.Context(), actor, req.ServiceTypeKey, req.Payload)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, app)
}

// List handles GET /applications. Owners get their own applications; staff pass
// ?status= for a work queue or ?owner_id= to look at one owner.
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	limit, offset := pagination(r)
	query := r.URL.Query()

	var (
		apps  []domain.ServiceApplication
		total int64
	)
	switch {
	case actor.Role == domain.RoleOwner:
		apps, total, err = h.workflow.ListByOwner(r.Context(), actor.ID, actor, limit, offset)
	case query.Get("owner_id") != "":
		apps, total, err = h.workflow.ListByOwner(r.Context(), query.Get("owner_id"), actor, limit, offset)
	case query.Get("status") != "":
		apps, total, err = h.workflow.ListByStatus(r.Context(), domain.ApplicationStatus(query.Get("status")), actor, limit, offset)
	default:
		err = util.ErrInvalidInput
	}
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewPaginatedResponse(apps, total, limit, offset))
}

// Get handles GET /applications/{applicationID}.
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	app, err := h.workflow.Get(r.Context(), chi.URLParam(r, "applicationID"), actor)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, app)
}

// UpdateDraft handles PATCH /applications/{applicationID}.
func (h *ApplicationHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req DraftRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	app, err := h.workflow.UpdateDraft(r.Context(), chi.URLParam(r, "applicationID"), actor, req.Payload)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, app)
}

// DeleteDraft handles DELETE /applications/{applicationID}.
func (h *ApplicationHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	if err := h.workflow.DeleteDraft(r.Context(), chi.URLParam(r, "applicationID"), actor); err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transition handles POST /applications/{applicationID}/transitions.
func (h *ApplicationHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req TransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	app, err := h.workflow.Transition(r.Context(), chi.URLParam(r, "applicationID"), req.Status, actor)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, app)
}

// CancelWithRefund handles POST /applications/{applicationID}/cancel-with-refund.
func (h *ApplicationHandler) CancelWithRefund(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req CancelWithRefundRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	app, refund, err := h.workflow.CancelWithRefund(r.Context(), chi.URLParam(r, "applicationID"), actor, req.RefundAmount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"application": app,
		"refund":      refund,
	})
}
