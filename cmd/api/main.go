package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/starpool/starpool-backend/internal/api"
	"github.com/starpool/starpool-backend/internal/auth"
	"github.com/starpool/starpool-backend/internal/config"
	"github.com/starpool/starpool-backend/internal/db"
	"github.com/starpool/starpool-backend/internal/logger"
	"github.com/starpool/starpool-backend/internal/metrics"
	repo "github.com/starpool/starpool-backend/internal/repository"
	"github.com/starpool/starpool-backend/internal/repository/memory"
	"github.com/starpool/starpool-backend/internal/repository/postgres"
	"github.com/starpool/starpool-backend/internal/services"
	"github.com/starpool/starpool-backend/internal/sweeper"
	"github.com/starpool/starpool-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repos repo.Repositories
	switch cfg.Store {
	case "memory":
		repos = memory.NewRepositories()
		log.Warn("using in-memory store; state is lost on restart")
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("db connect", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				log.Error("migrations", "err", err)
				os.Exit(1)
			}
		}
		repos = postgres.NewRepositories(pool)
	}

	wp := worker.NewPool(cfg.WorkerCount)
	defer wp.Stop()

	poolSvc := services.NewPoolService(repos.Pools, repos.Contributions, repos.PoolEvents)
	contribSvc := services.NewContributionService(repos.Pools, repos.PoolEvents)
	balanceSvc := services.NewBalanceService(repos.Profiles, repos.Transactions, repos.Contributions)

	sw := sweeper.New(poolSvc, wp, cfg.SweepInterval)
	swDone := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(swDone)
	}()

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, 15*time.Minute, 7*24*time.Hour)

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Cfg:        cfg,
		TM:         tm,
		PoolSvc:    poolSvc,
		ContribSvc: contribSvc,
		BalanceSvc: balanceSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	// the sweeper must stop submitting before the worker pool shuts down
	<-swDone
}
