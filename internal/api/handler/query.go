// internal/api/handler/query.go
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pixbank/internal/api/types"
	"pixbank/internal/domain"
	"pixbank/internal/util"
)

// GetBalanceSummary handles the balance summary request.
// GET /accounts/{accountID}/balance
func (h *BankHandler) GetBalanceSummary(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	summary, err := h.queries.GetBalanceSummary(r.Context(), accountID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, summary)
}

// ListTransactions handles the ledger listing request.
// GET /accounts/{accountID}/transactions?type=&from=&to=&limit=&cursor=
func (h *BankHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	filter, err := parseEntryFilter(r)
	if err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	entries, nextCursor, err := h.queries.ListTransactions(r.Context(), accountID, filter)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.CursorPage[domain.LedgerEntry]{
		Data:       entries,
		Limit:      filter.Limit,
		NextCursor: nextCursor,
	})
}

// GetTransaction handles the single ledger entry request.
// GET /transactions/{entryID}
func (h *BankHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")

	entry, err := h.queries.GetTransactionByID(r.Context(), entryID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, entry)
}

// parseEntryFilter reads the listing query parameters.
func parseEntryFilter(r *http.Request) (domain.EntryFilter, error) {
	var filter domain.EntryFilter

	query := r.URL.Query()
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return filter, util.ErrInvalidInput
		}
		filter.Limit = limit
	}
	if v := query.Get("type"); v != "" {
		entryType := domain.EntryType(v)
		filter.Type = &entryType
	}
	if v := query.Get("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, util.ErrInvalidInput
		}
		filter.From = &from
	}
	if v := query.Get("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, util.ErrInvalidInput
		}
		filter.To = &to
	}
	if v := query.Get("cursor"); v != "" {
		cursor, err := domain.ParseCursor(v)
		if err != nil {
			return filter, util.ErrInvalidInput
		}
		filter.Cursor = cursor
	}
	return filter, nil
}
