package main

import (
	"context"
	"net/http"

	"github.com/downpricer/downpricer/internal/auth"
	"github.com/downpricer/downpricer/internal/billing"
	"github.com/downpricer/downpricer/internal/config"
	"github.com/downpricer/downpricer/internal/gate"
	"github.com/downpricer/downpricer/internal/handlers"
	"github.com/downpricer/downpricer/internal/httpx"
	"github.com/downpricer/downpricer/internal/models"
	"github.com/downpricer/downpricer/internal/notify"
	"github.com/downpricer/downpricer/internal/services"
	"github.com/downpricer/downpricer/internal/store"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux *http.ServeMux
	db  *gorm.DB
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, cfg *config.Config) *App {
	app := &App{
		mux: http.NewServeMux(),
		db:  db,
	}

	notifier := notify.NewStoreNotifier(db)
	auditStore := store.NewAuditStore(db)
	subs := billing.NewSubscriptionStore(db)

	demandeSvc := services.NewDemandeService(
		store.NewDemandeStore(db), auditStore, notifier,
		cfg.App.DepositPercent, cfg.App.FreeTest,
	)
	saleSvc := services.NewSaleService(store.NewSaleStore(db), auditStore, notifier)
	minisiteSvc := services.NewMinisiteService(db, subs)
	proSvc := services.NewProService(db)

	app.setupRoutes(
		handlers.NewAuthHandler(db),
		handlers.NewDemandeHandler(demandeSvc),
		handlers.NewSaleHandler(saleSvc),
		handlers.NewMinisiteHandler(minisiteSvc, subs),
		handlers.NewBillingHandler(subs),
		handlers.NewProHandler(proSvc),
	)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Global middleware: session parsing + actor loading. Roles are read
	// from the database per request so admin grants apply immediately.
	handler := auth.Middleware(a.loadActor)(a.mux)
	handler.ServeHTTP(w, r)
}

// loadActor resolves a session user id to its current role view.
func (a *App) loadActor(ctx context.Context, userID uint) (*gate.Actor, error) {
	var user models.User
	err := a.db.WithContext(ctx).Preload("Roles").First(&user, userID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user.Actor(), nil
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes(
	ah *handlers.AuthHandler,
	dh *handlers.DemandeHandler,
	sh *handlers.SaleHandler,
	mh *handlers.MinisiteHandler,
	bh *handlers.BillingHandler,
	ph *handlers.ProHandler,
) {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	a.mux.HandleFunc("POST /auth/register", ah.Register)
	a.mux.HandleFunc("POST /auth/login", ah.Login)
	a.mux.HandleFunc("POST /auth/logout", ah.Logout)

	// ─────────────────────────────────────────────────────────────────────────
	// Authenticated routes (role checks live in the services)
	// ─────────────────────────────────────────────────────────────────────────
	a.handle("GET /auth/me", ah.Me)

	// Demandes (client side)
	a.handle("POST /demandes", dh.Create)
	a.handle("GET /demandes", dh.List)
	a.handle("GET /demandes/{id}", dh.Get)
	a.handle("POST /demandes/{id}/pay-deposit", dh.PayDeposit)

	// Sales (seller side)
	a.handle("POST /seller/sales", sh.Declare)
	a.handle("GET /seller/sales", sh.List)
	a.handle("GET /seller/sales/{id}", sh.Get)
	a.handle("POST /seller/sales/{id}/submit-payment", sh.SubmitPayment)

	// Minisites
	a.handle("GET /minisites/my", mh.Mine)
	a.handle("POST /minisites", mh.Create)
	a.handle("GET /minisites/entry", mh.Entry)
	a.handle("GET /minisites/plan", mh.Plan)

	// Billing
	a.handle("GET /billing/subscription", bh.Subscription)

	// Pro (S-tier buy/resell book)
	a.handle("POST /pro/articles", ph.CreateArticle)
	a.handle("GET /pro/articles", ph.ListArticles)
	a.handle("GET /pro/articles/{id}", ph.GetArticle)
	a.handle("GET /pro/articles/{id}/photo", ph.Photo)
	a.handle("PUT /pro/articles/{id}", ph.UpdateArticle)
	a.handle("DELETE /pro/articles/{id}", ph.DeleteArticle)
	a.handle("GET /pro/transactions", ph.Transactions)
	a.handle("GET /pro/dashboard/alerts", ph.Alerts)
	a.handle("GET /pro/dashboard/stats", ph.Stats)

	// ─────────────────────────────────────────────────────────────────────────
	// Admin routes (admin checks live in the services)
	// ─────────────────────────────────────────────────────────────────────────
	a.handle("GET /admin/demandes", dh.AdminList)
	a.handle("GET /admin/demandes/{id}", dh.Get)
	a.handle("PUT /admin/demandes/{id}/status", dh.UpdateStatus)
	a.handle("PATCH /admin/demandes/{id}/cancel", dh.Cancel)
	a.handle("PATCH /admin/demandes/{id}/request-deposit", dh.RequestDeposit)

	a.handle("GET /admin/sales", sh.AdminList)
	a.handle("GET /admin/sales/{id}", sh.Get)
	a.handle("POST /admin/sales/{id}/validate", sh.Validate)
	a.handle("POST /admin/sales/{id}/confirm-payment", sh.ConfirmPayment)
	a.handle("POST /admin/sales/{id}/reject-payment", sh.RejectPayment)
	a.handle("POST /admin/sales/{id}/reject", sh.Reject)
	a.handle("POST /admin/sales/{id}/mark-shipped", sh.MarkShipped)
	a.handle("POST /admin/sales/{id}/complete", sh.Complete)
}

// handle registers an authenticated route.
func (a *App) handle(pattern string, h http.HandlerFunc) {
	a.mux.Handle(pattern, auth.RequireAuth(h))
}
