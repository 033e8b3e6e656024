/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the web frontend

ROUTE GROUPS:
  /api/session          Session lifecycle
  /api/balance          Computed balance
  /api/points           Point event history
  /api/payments         Withdrawal history
  /api/withdrawals/*    Submission and attempt journal
  /api/admin/*          Payment review

SECURITY NOTE:
  Authentication is delegated to the platform backend: this service
  stores the bearer token it was given and forwards it. There is no
  token verification here.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Session lifecycle
		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/", h.SaveSession)
			r.Delete("/", h.ClearSession)
		})

		// Balance and history
		r.Get("/balance", h.GetBalance)
		r.Get("/points", h.GetPoints)
		r.Get("/payments", h.GetPayments)

		// Withdrawals
		r.Route("/withdrawals", func(r chi.Router) {
			r.Post("/", h.SubmitWithdrawal)
			r.Get("/attempts", h.ListAttempts)
		})

		// Admin review
		r.Route("/admin", func(r chi.Router) {
			r.Get("/payments", h.ListAdminPayments)
			r.Post("/payments/{id}/approve", h.ApprovePayment)
			r.Post("/payments/{id}/reject", h.RejectPayment)
		})
	})

	return r
}
