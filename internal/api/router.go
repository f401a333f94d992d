// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pixbank/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(bankHandler *handler.BankHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Account API routes
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", bankHandler.CreateAccount)
		r.Delete("/{accountID}", bankHandler.DeactivateAccount)
		r.Get("/{accountID}/balance", bankHandler.GetBalanceSummary)
		r.Get("/{accountID}/transactions", bankHandler.ListTransactions)
		r.Post("/{accountID}/deposit", bankHandler.Deposit)
		r.Post("/{accountID}/withdraw", bankHandler.Withdraw)
		r.Post("/{accountID}/invest", bankHandler.Invest)
		r.Post("/{accountID}/redeem", bankHandler.Redeem)
	})

	// Transfer is a separate top-level endpoint as it involves two accounts
	r.Post("/transfers", bankHandler.Transfer)

	// Pix key management and payments
	r.Route("/pix", func(r chi.Router) {
		r.Post("/keys", bankHandler.RegisterPixKey)
		r.Delete("/keys/{keyID}", bankHandler.DeactivatePixKey)
		r.Post("/receipts", bankHandler.GeneratePixReceipt)
		r.Post("/decode", bankHandler.DecodePix)
		r.Post("/payments", bankHandler.PayPix)
	})

	// Boleto payments
	r.Post("/boletos/payments", bankHandler.PayBoleto)

	// Single ledger entry lookup
	r.Get("/transactions/{entryID}", bankHandler.GetTransaction)

	return r
}
