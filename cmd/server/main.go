package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"talentgrid/backend/internal/audit"
	audithandler "talentgrid/backend/internal/audit/handler"
	auditrepo "talentgrid/backend/internal/audit/repository"
	authhandler "talentgrid/backend/internal/auth/handler"
	authrepo "talentgrid/backend/internal/auth/repository"
	"talentgrid/backend/internal/auth/service"
	"talentgrid/backend/internal/config"
	"talentgrid/backend/internal/db"
	directoryrepo "talentgrid/backend/internal/directory/repository"
	healthhandler "talentgrid/backend/internal/health/handler"
	"talentgrid/backend/internal/mail"
	"talentgrid/backend/internal/region"
	"talentgrid/backend/internal/security"
	"talentgrid/backend/internal/server"
	"talentgrid/backend/internal/server/middleware"
	teleotel "talentgrid/backend/internal/telemetry/otel"
	tokenrepo "talentgrid/backend/internal/token/repository"
	userrepo "talentgrid/backend/internal/user/repository"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	providers, err := teleotel.NewProviders(ctx, cfg.OTLPEndpoint, "talentgrid-backend", false)
	if err != nil {
		slog.Error("telemetry", "error", err)
		os.Exit(1)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	log := slog.New(teleotel.NewFanoutHandler(
		slog.NewJSONHandler(os.Stdout, nil),
		teleotel.NewSlogHandler(providers.LoggerProvider, "talentgrid.backend"),
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

	var sender mail.Sender
	if cfg.SMTPHost != "" {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		sender = mail.NewLogSender(log)
	}
	mailer, err := mail.New(sender, log, cfg.MailBaseURL)
	if err != nil {
		log.Error("mail templates", "error", err)
		os.Exit(1)
	}

	auditRepo := auditrepo.NewPostgresRepository(dirPool)
	auditLogger := audit.NewLogger(auditRepo, log, middleware.ClientIP)

	users := userrepo.NewPostgresRepository(router)
	tokens := tokenrepo.NewPostgresRepository(router)
	svc := service.New(
		directoryrepo.NewPostgresRepository(dirPool),
		users,
		tokens,
		authrepo.NewPostgresStore(router, tokens, users),
		security.NewHasher(cfg.BcryptCost),
		mailer,
		auditLogger,
		service.TTLConfig{
			Signup:          cfg.SignupTTL(),
			TFA:             cfg.TFATTL(),
			Session:         cfg.SessionTokenTTL(),
			RememberSession: cfg.RememberTTL(),
			PasswordReset:   cfg.ResetTTL(),
			EmailChange:     cfg.EmailChangeTokenTTL(),
		},
		log,
	)

	stores := map[string]healthhandler.Pinger{"directory": dirPool}
	for rg, pool := range pools {
		stores[string(rg)] = pool
	}

	srv := server.New(server.Options{
		Addr:   cfg.HTTPAddr,
		Auth:   authhandler.New(svc, log),
		Audit:  audithandler.New(auditRepo, svc, log),
		Health: healthhandler.New(stores),
		Log:    log,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("serve", "error", err)
			os.Exit(1)
		}
	case <-quit:
		log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "error", err)
		}
		log.Info("http server stopped")
	}
}
