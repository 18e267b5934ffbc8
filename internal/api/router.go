// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"marketplace-core/internal/api/handler"
	apimw "marketplace-core/internal/api/middleware"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Wallet      *handler.WalletHandler
	Application *handler.ApplicationHandler
	Quote       *handler.QuoteHandler
}

// RouterConfig carries the transport settings of the router.
type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(h Handlers, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.Authenticate(cfg.JWTSecret))

		r.Route("/wallets/{ownerID}", func(r chi.Router) {
			r.Get("/", h.Wallet.GetWallet)
			r.Get("/transactions", h.Wallet.GetTransactionHistory)
			r.Get("/verify", h.Wallet.VerifyBalance)
			r.Post("/credit", h.Wallet.Credit)
			r.Post("/debit", h.Wallet.Debit)
			r.Post("/freeze", h.Wallet.Freeze)
			r.Post("/unfreeze", h.Wallet.Unfreeze)
		})
		r.Post("/transactions/{transactionID}/reverse", h.Wallet.Reverse)

		r.Route("/applications", func(r chi.Router) {
			r.Post("/", h.Application.Attach)
			r.Get("/", h.Application.List)
			r.Post("/drafts", h.Application.CreateDraft)

			r.Route("/{applicationID}", func(r chi.Router) {
				r.Get("/", h.Application.Get)
				r.Patch("/", h.Application.UpdateDraft)
				r.Delete("/", h.Application.DeleteDraft)
				r.Post("/transitions", h.Application.Transition)
				r.Post("/cancel-with-refund", h.Application.CancelWithRefund)

				r.Get("/quotes", h.Quote.List)
				r.Post("/quotes", h.Quote.Submit)
				r.Post("/quotes/{quoteID}/accept", h.Quote.Accept)
				r.Post("/quotes/{quoteID}/reject", h.Quote.Reject)
			})
		})
	})

	logger.Debug("HTTP routes registered")
	return r
}
