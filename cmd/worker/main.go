// Worker sweeps expired token rows from every regional database and expired
// signup tokens from the directory database, at SWEEP_INTERVAL.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"talentgrid/backend/internal/config"
	"talentgrid/backend/internal/db"
	directoryrepo "talentgrid/backend/internal/directory/repository"
	"talentgrid/backend/internal/region"
	"talentgrid/backend/internal/sweep"
	teleotel "talentgrid/backend/internal/telemetry/otel"
	tokenrepo "talentgrid/backend/internal/token/repository"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	providers, err := teleotel.NewProviders(ctx, cfg.OTLPEndpoint, "talentgrid-worker", false)
	if err != nil {
		slog.Error("telemetry", "error", err)
		os.Exit(1)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		_ = providers.Shutdown(shutdownCtx)
	}()

	log := slog.New(teleotel.NewFanoutHandler(
		slog.NewJSONHandler(os.Stdout, nil),
		teleotel.NewSlogHandler(providers.LoggerProvider, "talentgrid.worker"),
	))
	slog.SetDefault(log)

	dirPool, err := db.Open(ctx, cfg.DirectoryDatabaseURL)
	if err != nil {
		log.Error("directory db", "error", err)
		os.Exit(1)
	}
	defer dirPool.Close()

	regionURLs, err := cfg.RegionURLs()
	if err != nil {
		log.Error("region config", "error", err)
		os.Exit(1)
	}
	pools := make(map[region.Region]*pgxpool.Pool, len(regionURLs))
	for rg, dsn := range regionURLs {
		pool, err := db.Open(ctx, dsn)
		if err != nil {
			log.Error("region db", "region", rg, "error", err)
			os.Exit(1)
		}
		pools[rg] = pool
	}
	router, err := region.NewRouter(pools)
	if err != nil {
		log.Error("region router", "error", err)
		os.Exit(1)
	}
	defer router.Close()

	sweeper := sweep.New(
		tokenrepo.NewPostgresRepository(router),
		directoryrepo.NewPostgresRepository(dirPool),
		cfg.SweepEvery(),
		log,
	)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("worker: shutting down")
		cancel()
	}()

	log.Info("worker: sweeping", "interval", cfg.SweepEvery())
	sweeper.Run(ctx)
	log.Info("worker: stopped")
}
