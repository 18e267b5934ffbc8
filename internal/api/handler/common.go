// internal/api/handler/common.go
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"marketplace-core/internal/api/middleware"
	"marketplace-core/internal/api/types"
	"marketplace-core/internal/domain"
	"marketplace-core/internal/util" // For custom errors
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 15 * time.Second

const defaultPageSize = 20

// responder holds the helpers shared by all handlers.
type responder struct {
	logger *slog.Logger
}

// respondWithJSON sends payload with the given status code.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps core errors onto HTTP status codes.
func (h responder) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	code := "internal"
	message := "Internal server error"

	var insufficient *util.InsufficientFundsError
	switch {
	case errors.As(err, &insufficient):
		statusCode, code, message = http.StatusPaymentRequired, "insufficient_funds", insufficient.Error()
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode, code, message = http.StatusPaymentRequired, "insufficient_funds", "Insufficient funds"
	case util.IsError(err, util.ErrInvalidInput):
		statusCode, code, message = http.StatusBadRequest, "invalid_input", err.Error()
	case util.IsError(err, util.ErrForbidden):
		statusCode, code, message = http.StatusForbidden, "forbidden", "Actor is not allowed to perform this action"
	case util.IsNotFound(err):
		statusCode, code, message = http.StatusNotFound, "not_found", err.Error()
	case util.IsError(err, util.ErrWalletFrozen):
		statusCode, code, message = http.StatusLocked, "wallet_frozen", "Wallet is frozen"
	case util.IsError(err, util.ErrInvalidStateTransition):
		statusCode, code, message = http.StatusUnprocessableEntity, "invalid_state_transition", err.Error()
	case util.IsError(err, util.ErrApplicationNotAcceptingQuotes):
		statusCode, code, message = http.StatusUnprocessableEntity, "application_not_accepting_quotes", err.Error()
	case util.IsError(err, util.ErrQuoteExpired):
		statusCode, code, message = http.StatusUnprocessableEntity, "quote_expired", err.Error()
	case util.IsError(err, util.ErrAlreadyResolved):
		statusCode, code, message = http.StatusConflict, "already_resolved", err.Error()
	case util.IsError(err, util.ErrQuoteNotPending):
		statusCode, code, message = http.StatusConflict, "quote_not_pending", err.Error()
	case util.IsError(err, util.ErrAlreadyReversed):
		statusCode, code, message = http.StatusConflict, "already_reversed", err.Error()
	case util.IsError(err, util.ErrConcurrentModification):
		statusCode, code, message = http.StatusConflict, "concurrent_modification", "Concurrent modification, retry the request"
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, types.ErrorResponse{Error: message, Code: code})
}

// decodeJSON reads the request body into dst. Numbers inside free-form maps stay json.Number.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed request body: %v: %w", err, util.ErrInvalidInput)
	}
	return nil
}

// actorFrom returns the authenticated actor. The router always installs the middleware,
// so a missing actor is treated as forbidden.
func actorFrom(r *http.Request) (domain.Actor, error) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		return domain.Actor{}, util.ErrForbidden
	}
	return actor, nil
}

// pagination parses limit and offset, falling back to defaults on absent or invalid values.
func pagination(r *http.Request) (int, int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
