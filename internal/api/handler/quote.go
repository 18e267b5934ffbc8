// internal/api/handler/quote.go
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"marketplace-core/internal/service"
)

// QuoteHandler handles HTTP requests for quotes on an application.
type QuoteHandler struct {
	responder
	service service.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(svc service.QuoteService, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// SubmitQuoteRequest represents the request body for a new quote.
type SubmitQuoteRequest struct {
	Price     decimal.Decimal `json:"price"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// List handles GET /applications/{applicationID}/quotes.
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	quotes, err := h.service.ListQuotes(r.Context(), chi.URLParam(r, "applicationID"), actor)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": quotes})
}

// Submit handles POST /applications/{applicationID}/quotes.
func (h *QuoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req SubmitQuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	quote, err := h.service.SubmitQuote(r.Context(), chi.URLParam(r, "applicationID"), actor, req.Price, req.ExpiresAt)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, quote)
}

// Accept handles POST /applications/{applicationID}/quotes/{quoteID}/accept.
func (h *QuoteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	app, err := h.service.AcceptQuote(r.Context(), chi.URLParam(r, "applicationID"), chi.URLParam(r, "quoteID"), actor)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, app)
}

// Reject handles POST /applications/{applicationID}/quotes/{quoteID}/reject.
func (h *QuoteHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	quote, err := h.service.RejectQuote(r.Context(), chi.URLParam(r, "applicationID"), chi.URLParam(r, "quoteID"), actor)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, quote)
}
