// internal/api/handler/movement.go
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"pixbank/internal/domain"
	"pixbank/internal/util"
)

// CreateAccountRequest represents the request body for account onboarding.
type CreateAccountRequest struct {
	OwnerID   string `json:"owner_id"`
	OwnerName string `json:"owner_name"`
}

// CreateAccount handles account onboarding.
// POST /accounts
func (h *BankHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.OwnerID == "" || req.OwnerName == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	account, err := h.movements.CreateAccount(r.Context(), req.OwnerID, req.OwnerName)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, account)
}

// DeactivateAccount soft-deletes an account.
// DELETE /accounts/{accountID}
func (h *BankHandler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	if err := h.movements.DeactivateAccount(r.Context(), accountID); err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AmountRequest is the shared request body for one-sided movement operations.
type AmountRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// movementResponse is the shared success payload of movement operations.
func movementResponse(message string, account *domain.Account, entry *domain.LedgerEntry) map[string]interface{} {
	return map[string]interface{}{
		"message":           message,
		"account_id":        account.ID,
		"available_balance": account.AvailableBalance,
		"invested_balance":  account.InvestedBalance,
		"entry_id":          entry.ID,
		"transaction_id":    entry.TransactionID,
	}
}

// Deposit handles the deposit money request.
// POST /accounts/{accountID}/deposit
func (h *BankHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	account, entry, err := h.movements.Deposit(r.Context(), accountID, req.Amount, req.Description, idempotencyKey(r))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, movementResponse("Deposit successful", account, entry))
}

// Withdraw handles the withdraw money request.
// POST /accounts/{accountID}/withdraw
func (h *BankHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	account, entry, err := h.movements.Withdraw(r.Context(), accountID, req.Amount, req.Description, idempotencyKey(r))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, movementResponse("Withdrawal successful", account, entry))
}

// Invest moves funds from the available into the invested balance.
// POST /accounts/{accountID}/invest
func (h *BankHandler) Invest(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	account, entry, err := h.movements.Invest(r.Context(), accountID, req.Amount, idempotencyKey(r))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, movementResponse("Investment successful", account, entry))
}

// Redeem moves funds from the invested balance back to the available balance.
// POST /accounts/{accountID}/redeem
func (h *BankHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	account, entry, err := h.movements.Redeem(r.Context(), accountID, req.Amount, idempotencyKey(r))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, movementResponse("Redemption successful", account, entry))
}

// TransferRequest represents the request body for transfer.
type TransferRequest struct {
	FromAccountID   string          `json:"from_account_id"`
	ToAccountNumber string          `json:"to_account_number"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
}

// Transfer handles the transfer money request.
// POST /transfers
func (h *BankHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.FromAccountID == "" || req.ToAccountNumber == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	account, entry, err := h.movements.Transfer(r.Context(), req.FromAccountID, req.ToAccountNumber, req.Amount, req.Description, idempotencyKey(r))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, movementResponse("Transfer successful", account, entry))
}

// PayBoletoRequest represents the request body for a boleto payment.
type PayBoletoRequest struct {
	AccountID   string          `json:"account_id"`
	BarCode     string          `json:"bar_code"`
	Amount      decimal.Decimal `json:"amount"`
	Beneficiary string          `json:"beneficiary"`
	DueDate     time.Time       `json:"due_date"`
	Description string          `json:"description"`
}

// PayBoleto handles a boleto payment request.
// POST /boletos/payments
func (h *BankHandler) PayBoleto(w http.ResponseWriter, r *http.Request) {
	var req PayBoletoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.AccountID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	boleto := &domain.Boleto{
		BarCode:     req.BarCode,
		Amount:      req.Amount,
		Beneficiary: req.Beneficiary,
		DueDate:     req.DueDate,
	}
	account, entry, err := h.movements.PayBoleto(r.Context(), req.AccountID, boleto, req.Description, idempotencyKey(r))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, movementResponse("Boleto payment successful", account, entry))
}
