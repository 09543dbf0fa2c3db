package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jgpdata/emissions-backend/internal/api"
	"github.com/jgpdata/emissions-backend/internal/config"
	"github.com/jgpdata/emissions-backend/internal/db"
	"github.com/jgpdata/emissions-backend/internal/logger"
	"github.com/jgpdata/emissions-backend/internal/metrics"
	"github.com/jgpdata/emissions-backend/internal/repository/postgres"
	"github.com/jgpdata/emissions-backend/internal/services"
)

// global db connection pool
var dbPool *pgxpool.Pool

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	dbPool, err = db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, dbPool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	repos := postgres.NewRepositories(dbPool)
	emissionSvc := services.NewEmissionService(repos.Emissions, repos.ChangeLogs)
	statsSvc := services.NewStatsService(repos.Stats)

	metrics.Init()
	r := api.NewRouter(cfg, emissionSvc, statsSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
