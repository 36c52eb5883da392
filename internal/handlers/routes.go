package handlers

import (
	"net/http"

	"github.com/okeamah/portal/internal/middleware"
)

// Routes builds the application router with the global middleware applied
func (h *Handler) Routes() http.Handler {
	authMiddleware := middleware.NewAuth(h.devices)

	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("/", h.Home)
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.Login(w, r)
		} else {
			h.LoginPage(w, r)
		}
	})
	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.Register(w, r)
		} else {
			h.RegisterPage(w, r)
		}
	})
	mux.HandleFunc("/logout", h.Logout)

	// The dashboard runs its own authentication gate
	mux.HandleFunc("GET /dashboard", h.Dashboard)

	// API routes
	mux.Handle("GET /api/dashboard", authMiddleware.RequireAuth(http.HandlerFunc(h.APIDashboard)))
	mux.Handle("GET /api/dashboard/stream", authMiddleware.RequireAuth(http.HandlerFunc(h.DashboardStream)))
	mux.Handle("GET /api/investments", authMiddleware.RequireAuth(http.HandlerFunc(h.ListInvestments)))
	mux.Handle("POST /api/investments", authMiddleware.RequireAuth(http.HandlerFunc(h.CreateInvestment)))
	mux.Handle("GET /api/investments/{id}", authMiddleware.RequireAuth(http.HandlerFunc(h.GetInvestment)))
	mux.Handle("POST /api/investments/{id}/confirm-payment", authMiddleware.RequireAuth(http.HandlerFunc(h.ConfirmPayment)))

	// Database change notifications
	mux.HandleFunc("POST /webhooks/realtime", h.RealtimeWebhook)

	return middleware.Chain(
		mux,
		middleware.Recover,
		middleware.SecurityHeaders,
		middleware.CORS(h.cfg.AllowedOrigins),
		middleware.Logger,
		middleware.Device(h.cfg.IsProduction()),
	)
}
