package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ewhitmore/campuspay/internal/backup"
	"github.com/ewhitmore/campuspay/internal/handler"
	"github.com/ewhitmore/campuspay/internal/middleware"
	"github.com/ewhitmore/campuspay/internal/model"
	"github.com/ewhitmore/campuspay/internal/store"
	"github.com/ewhitmore/campuspay/internal/stripe"
	ws "github.com/ewhitmore/campuspay/internal/websocket"
)

// Config carries everything the server needs beyond the database handle.
type Config struct {
	JWTSecret []byte
	Stripe    stripe.Config
	Backup    backup.Config
}

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	authH      *handler.AuthHandler
	walletH    *handler.WalletHandler
	mealH      *handler.MealHandler
	tokenH     *handler.TokenHandler
	eventH     *handler.EventHandler
	parentH    *handler.ParentHandler
	vendorH    *handler.VendorHandler
	dashboardH *handler.DashboardHandler
	settingsH  *handler.SettingsHandler
	backupH    *handler.BackupHandler

	vendorStore *store.VendorStore
	rateLimiter *middleware.RateLimiter
	cfg         Config
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger)

	userStore := store.NewUserStore(db)
	walletStore := store.NewWalletStore(db)
	vendorStore := store.NewVendorStore(db)
	mealStore := store.NewMealStore(db)
	tokenStore := store.NewTokenStore(db)
	eventStore := store.NewEventStore(db)
	settingsStore := store.NewSettingsStore(db)
	reportStore := store.NewReportStore(db)
	backupStore := store.NewBackupStore(db)

	stripeClient := stripe.NewClient(cfg.Stripe)
	backupMgr := backup.NewManager(cfg.Backup, db, backupStore, logger)

	return &Server{
		db:          db,
		hub:         hub,
		authH:       handler.NewAuthHandler(userStore, walletStore, vendorStore, settingsStore, cfg.JWTSecret, logger),
		walletH:     handler.NewWalletHandler(walletStore, userStore, stripeClient, hub, logger),
		mealH:       handler.NewMealHandler(mealStore, tokenStore, hub, logger),
		tokenH:      handler.NewTokenHandler(tokenStore, walletStore, hub, logger),
		eventH:      handler.NewEventHandler(eventStore, hub, logger),
		parentH:     handler.NewParentHandler(userStore, walletStore, logger),
		vendorH:     handler.NewVendorHandler(vendorStore, walletStore, reportStore, logger),
		dashboardH:  handler.NewDashboardHandler(reportStore, logger),
		settingsH:   handler.NewSettingsHandler(settingsStore, logger),
		backupH:     handler.NewBackupHandler(backupMgr, logger),
		vendorStore: vendorStore,
		rateLimiter: middleware.NewRateLimiter(),
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/webhooks/stripe", s.walletH.StripeWebhook)

	// Protected routes behind bearer-token auth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.cfg.JWTSecret, s.vendorStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	vendorOnly := middleware.RequireRole(model.RoleVendor)
	parentOnly := middleware.RequireRole(model.RoleParent)

	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Wallet
	mux.HandleFunc("GET /api/wallet", s.walletH.Get)
	mux.HandleFunc("GET /api/wallet/transactions", s.walletH.History)
	mux.HandleFunc("POST /api/wallet/deposit", s.walletH.Deposit)

	// Meals and ordering
	mux.HandleFunc("GET /api/meals", s.mealH.List)
	mux.HandleFunc("POST /api/meals/{id}/order", s.mealH.Order)
	mux.Handle("GET /api/vendor/meals", vendorOnly(http.HandlerFunc(s.mealH.ListMine)))
	mux.Handle("POST /api/meals", vendorOnly(http.HandlerFunc(s.mealH.Create)))
	mux.Handle("PUT /api/meals/{id}", vendorOnly(http.HandlerFunc(s.mealH.Update)))
	mux.Handle("DELETE /api/meals/{id}", vendorOnly(http.HandlerFunc(s.mealH.Delete)))
	mux.Handle("POST /api/meals/{id}/restock", vendorOnly(http.HandlerFunc(s.mealH.Restock)))

	// Tokens
	mux.HandleFunc("GET /api/tokens", s.tokenH.ListMine)
	mux.HandleFunc("GET /api/tokens/{id}", s.tokenH.Get)
	mux.HandleFunc("POST /api/tokens/{id}/cancel", s.tokenH.Cancel)
	mux.Handle("GET /api/vendor/tokens", vendorOnly(http.HandlerFunc(s.tokenH.ListVendor)))
	mux.Handle("POST /api/tokens/redeem", vendorOnly(http.HandlerFunc(s.tokenH.Redeem)))
	mux.Handle("POST /api/tokens/{id}/refund",
		middleware.RequireRole(model.RoleVendor, model.RoleAdmin)(http.HandlerFunc(s.tokenH.ProcessRefund)))

	// Events
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("GET /api/events/mine", s.eventH.ListMine)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.HandleFunc("POST /api/events/{id}/register", s.eventH.Register)
	mux.HandleFunc("DELETE /api/events/{id}/register", s.eventH.CancelRegistration)
	mux.Handle("POST /api/events", middleware.RequireAdmin(http.HandlerFunc(s.eventH.Create)))
	mux.Handle("GET /api/events/{id}/participants", middleware.RequireAdmin(http.HandlerFunc(s.eventH.Participants)))

	// Parent
	mux.Handle("POST /api/parent/students", parentOnly(http.HandlerFunc(s.parentH.LinkStudent)))
	mux.Handle("GET /api/parent/students", parentOnly(http.HandlerFunc(s.parentH.Students)))
	mux.Handle("PUT /api/parent/students/{id}/limit", parentOnly(http.HandlerFunc(s.parentH.SetDailyLimit)))
	mux.Handle("GET /api/parent/students/{id}/transactions", parentOnly(http.HandlerFunc(s.parentH.StudentTransactions)))

	// Vendors
	mux.HandleFunc("GET /api/vendors", s.vendorH.List)
	mux.Handle("GET /api/vendor/profile", vendorOnly(http.HandlerFunc(s.vendorH.Profile)))
	mux.Handle("PUT /api/vendor/profile", vendorOnly(http.HandlerFunc(s.vendorH.UpdateProfile)))
	mux.Handle("GET /api/vendor/summary", vendorOnly(http.HandlerFunc(s.vendorH.Summary)))
	mux.Handle("POST /api/vendor/withdraw", vendorOnly(http.HandlerFunc(s.vendorH.Withdraw)))

	// Dashboard
	mux.HandleFunc("GET /api/dashboard", s.dashboardH.Stats)
	mux.HandleFunc("GET /api/dashboard/spending", s.dashboardH.Spending)
	mux.Handle("GET /api/dashboard/daily", middleware.RequireAdmin(http.HandlerFunc(s.dashboardH.DailyTotals)))

	// Settings
	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.Handle("PUT /api/settings", middleware.RequireAdmin(http.HandlerFunc(s.settingsH.Update)))

	// Backups
	mux.Handle("POST /api/backups", middleware.RequireAdmin(http.HandlerFunc(s.backupH.Run)))
	mux.Handle("GET /api/backups", middleware.RequireAdmin(http.HandlerFunc(s.backupH.History)))

	// Live updates
	mux.HandleFunc("GET /ws", ws.Handle(s.hub))
}
