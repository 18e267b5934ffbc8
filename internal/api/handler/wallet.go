// internal/api/handler/wallet.go
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"marketplace-core/internal/api/types"
	"marketplace-core/internal/domain"
	"marketplace-core/internal/service"
	"marketplace-core/internal/util"
)

// WalletHandler handles HTTP requests related to wallet operations.
type WalletHandler struct {
	responder
	service service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(svc service.WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// PostingRequest represents the request body for credit and debit.
type PostingRequest struct {
	Amount        decimal.Decimal      `json:"amount"`
	Description   string               `json:"description"`
	ReferenceType domain.ReferenceType `json:"reference_type"`
	ReferenceID   string               `json:"reference_id"`
}

// ReverseRequest represents the request body for a reversal.
type ReverseRequest struct {
	Description string `json:"description"`
}

// canReadWallet: owners read their own wallet, admins and the system read any.
func canReadWallet(actor domain.Actor, ownerID string) bool {
	return actor.Owns(ownerID) || actor.Role == domain.RoleAdmin || actor.Role == domain.RoleSystem
}

// GetWallet handles the get wallet request.
// GET /wallets/{ownerID}
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	ownerID := chi.URLParam(r, "ownerID")
	if !canReadWallet(actor, ownerID) {
		h.respondWithError(w, util.ErrForbidden)
		return
	}

	wallet, err := h.service.GetWallet(r.Context(), ownerID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, wallet)
}

// GetTransactionHistory handles the get transaction history request.
// GET /wallets/{ownerID}/transactions
func (h *WalletHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	ownerID := chi.URLParam(r, "ownerID")
	if !canReadWallet(actor, ownerID) {
		h.respondWithError(w, util.ErrForbidden)
		return
	}

	limit, offset := pagination(r)
	transactions, totalCount, err := h.service.GetTransactionHistory(r.Context(), ownerID, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewPaginatedResponse(transactions, totalCount, limit, offset))
}

// VerifyBalance handles the reconciliation request.
// GET /wallets/{ownerID}/verify
func (h *WalletHandler) VerifyBalance(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	if actor.Role != domain.RoleAdmin {
		h.respondWithError(w, util.ErrForbidden)
		return
	}

	report, err := h.service.VerifyBalance(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, report)
}

// Credit handles the gateway callback that tops up a wallet.
// POST /wallets/{ownerID}/credit
func (h *WalletHandler) Credit(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, domain.DirectionCredit)
}

// Debit handles a booking flow charge.
// POST /wallets/{ownerID}/debit
func (h *WalletHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, domain.DirectionDebit)
}

func (h *WalletHandler) post(w http.ResponseWriter, r *http.Request, direction domain.Direction) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	if actor.Role != domain.RoleSystem && actor.Role != domain.RoleAdmin {
		h.respondWithError(w, util.ErrForbidden)
		return
	}

	var req PostingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if !req.Amount.IsPositive() || req.ReferenceType == "" || req.ReferenceID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	ownerID := chi.URLParam(r, "ownerID")
	ref := domain.NewReference(req.ReferenceType, req.ReferenceID)
	var transaction *domain.Transaction
	if direction == domain.DirectionCredit {
		transaction, err = h.service.Credit(r.Context(), ownerID, req.Amount, req.Description, ref)
	} else {
		transaction, err = h.service.Debit(r.Context(), ownerID, req.Amount, req.Description, ref)
	}
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, transaction)
}

// Freeze handles POST /wallets/{ownerID}/freeze.
func (h *WalletHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.service.Freeze)
}

// Unfreeze handles POST /wallets/{ownerID}/unfreeze.
func (h *WalletHandler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.service.Unfreeze)
}

func (h *WalletHandler) setStatus(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, ownerID string, actor domain.Actor) (*domain.Wallet, error)) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	wallet, err := apply(r.Context(), chi.URLParam(r, "ownerID"), actor)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, wallet)
}

// Reverse handles POST /transactions/{transactionID}/reverse.
func (h *WalletHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req ReverseRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.respondWithError(w, err)
			return
		}
	}

	transaction, err := h.service.Reverse(r.Context(), chi.URLParam(r, "transactionID"), actor, req.Description)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, transaction)
}
