package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/starpool/starpool-backend/internal/api/handlers"
	"github.com/starpool/starpool-backend/internal/auth"
	"github.com/starpool/starpool-backend/internal/config"
	"github.com/starpool/starpool-backend/internal/metrics"
	"github.com/starpool/starpool-backend/internal/middleware"
	"github.com/starpool/starpool-backend/internal/services"
)

type RouterDeps struct {
	Cfg        config.Config
	TM         *auth.TokenManager
	PoolSvc    *services.PoolService
	ContribSvc *services.ContributionService
	BalanceSvc *services.BalanceService
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	authMW := middleware.NewAuthMiddleware(d.TM)
	ah := handlers.NewAuthHandler(d.TM, d.Cfg)
	ph := handlers.NewPoolHandler(d.PoolSvc, d.ContribSvc)
	uh := handlers.NewProfileHandler(d.BalanceSvc)

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/login", ah.Login)
		r.Post("/auth/refresh", ah.Refresh)

		// ---------- pools (public) ----------
		r.Get("/pools", ph.List)
		r.Get("/pools/{poolID}", ph.Get)
		r.Get("/pools/{poolID}/contributors", ph.Contributors)
		r.Post("/pools/{poolID}/contributions", ph.Contribute)

		// ---------- profiles (public) ----------
		r.Get("/profiles/{userID}", uh.Get)
		r.Get("/profiles/{userID}/transactions", uh.Transactions)
		r.Get("/profiles/{userID}/contributions", uh.Contributions)

		// ---------- admin ----------
		r.Group(func(r chi.Router) {
			r.Use(authMW.Auth, middleware.RequireRole("admin"))

			r.Post("/pools", ph.Create)
			r.Get("/pools/{poolID}/events", ph.Events)
			r.Post("/pools/{poolID}/complete", ph.Complete)
			r.Post("/pools/{poolID}/cancel", ph.Cancel)
			r.Post("/pools/cleanup", ph.Cleanup)

			r.Post("/balances/add", uh.AddBalance)
			r.Post("/balances/deduct", uh.DeductBalance)
		})
	})

	return r
}
