// internal/api/handler/pix.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"pixbank/internal/domain"
	"pixbank/internal/util"
)

// RegisterPixKeyRequest represents the request body for pix key registration.
type RegisterPixKeyRequest struct {
	AccountID string            `json:"account_id"`
	KeyType   domain.PixKeyType `json:"key_type"`
	KeyValue  string            `json:"key_value"`
}

// RegisterPixKey handles pix key registration.
// POST /pix/keys
func (h *BankHandler) RegisterPixKey(w http.ResponseWriter, r *http.Request) {
	var req RegisterPixKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.AccountID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	key, err := h.movements.RegisterPixKey(r.Context(), req.AccountID, req.KeyType, req.KeyValue)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, key)
}

// DeactivatePixKey retires a registered pix key.
// DELETE /pix/keys/{keyID}
func (h *BankHandler) DeactivatePixKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyID")

	if err := h.movements.DeactivatePixKey(r.Context(), keyID); err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GeneratePixReceiptRequest represents the request body for charge generation.
type GeneratePixReceiptRequest struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// GeneratePixReceipt produces a transferable payment payload for the account.
// POST /pix/receipts
func (h *BankHandler) GeneratePixReceipt(w http.ResponseWriter, r *http.Request) {
	var req GeneratePixReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.AccountID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	payload, err := h.movements.GeneratePixReceipt(r.Context(), req.AccountID, req.Amount, req.Description)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, payload)
}

// DecodePixRequest represents the request body for payload decoding.
type DecodePixRequest struct {
	RawCode string `json:"raw_code"`
}

// DecodePix decodes a transferable payload without any ledger effect.
// POST /pix/decode
func (h *BankHandler) DecodePix(w http.ResponseWriter, r *http.Request) {
	var req DecodePixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	payload, err := h.movements.DecodePix(req.RawCode)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, payload)
}

// PayPixRequest represents the request body for paying a pix code.
type PayPixRequest struct {
	AccountID string `json:"account_id"`
	RawCode   string `json:"raw_code"`
}

// PayPix decodes and executes a pix payment from the payer's account.
// POST /pix/payments
func (h *BankHandler) PayPix(w http.ResponseWriter, r *http.Request) {
	var req PayPixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.AccountID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	payload, err := h.movements.DecodePix(req.RawCode)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	account, entry, err := h.movements.PayPix(r.Context(), req.AccountID, payload, idempotencyKey(r))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, movementResponse("Pix payment successful", account, entry))
}
