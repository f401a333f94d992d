// internal/api/handler/handler.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"pixbank/internal/service"
	"pixbank/internal/util" // For custom errors
)

// DefaultTimeout is applied to every request by the router middleware.
const DefaultTimeout = 15 * time.Second

// BankHandler handles HTTP requests for the movement engine and query surface.
type BankHandler struct {
	movements service.MovementService
	queries   service.QueryService
	logger    *slog.Logger
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(movements service.MovementService, queries service.QueryService, logger *slog.Logger) *BankHandler {
	return &BankHandler{
		movements: movements,
		queries:   queries,
		logger:    logger,
	}
}

// Helper function to send JSON responses.
func (h *BankHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
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

// Helper function to map service errors onto HTTP status codes.
func (h *BankHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidInput), util.IsError(err, util.ErrInvalidAmount),
		util.IsError(err, util.ErrSameAccount), util.IsError(err, util.ErrMalformedPixCode):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrAccountNotFound), util.IsError(err, util.ErrPixKeyNotFound),
		util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		message = err.Error()
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusPaymentRequired // 402 Payment Required
		message = "Insufficient funds"
	case util.IsError(err, util.ErrDuplicatePayment), util.IsError(err, util.ErrKeyAlreadyInUse),
		util.IsError(err, util.ErrNoPixKeyRegistered):
		statusCode = http.StatusConflict
		message = err.Error()
	case util.IsError(err, util.ErrConcurrencyConflict):
		statusCode = http.StatusConflict
		message = "Operation conflicted with a concurrent request, please retry"
	case util.IsError(err, util.ErrStoreUnavailable):
		statusCode = http.StatusServiceUnavailable
		message = "Service temporarily unavailable"
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// idempotencyKey extracts the caller-supplied retry protection key, if any.
func idempotencyKey(r *http.Request) string {
	return r.Header.Get("Idempotency-Key")
}
