package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/schedulehub/internal/auth"
	"github.com/geocoder89/schedulehub/internal/billing"
	"github.com/geocoder89/schedulehub/internal/config"
	"github.com/geocoder89/schedulehub/internal/db"
	"github.com/geocoder89/schedulehub/internal/domain/entitlement"
	httpx "github.com/geocoder89/schedulehub/internal/http"
	"github.com/geocoder89/schedulehub/internal/http/handlers"
	"github.com/geocoder89/schedulehub/internal/http/middlewares"
	"github.com/geocoder89/schedulehub/internal/notifications"
	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/geocoder89/schedulehub/internal/places"
	"github.com/geocoder89/schedulehub/internal/redisclient"
	"github.com/geocoder89/schedulehub/internal/repo/postgres"
	"github.com/geocoder89/schedulehub/internal/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: cfg.ServiceName,
		Env:         cfg.Env,
		Endpoint:    cfg.OTELEndpoint,
		SampleRatio: cfg.OTELSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		tctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(tctx)
	}()

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DBURL); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
	}

	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:          cfg.DBURL,
		MaxConns:     cfg.DBMaxConns,
		ConnLifetime: time.Duration(cfg.DBConnLifetimeMinutes) * time.Minute,
	})
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureAdminUser(ctx, pool, cfg); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	providersRepo := postgres.NewProvidersRepo(pool, prom)
	consumersRepo := postgres.NewConsumersRepo(pool, prom)
	settingsRepo := postgres.NewSettingsRepo(pool, prom)

	entitlements := entitlement.NewService(settingsRepo, providersRepo, consumersRepo)
	portal := billing.NewService(providersRepo, billing.NewStripePortal(cfg.StripeSecretKey, prom), cfg.AppURL)
	placesClient := places.NewClient(cfg.GooglePlacesAPIKey, cfg.PlacesBaseURL, prom)

	var notifier notifications.Notifier = notifications.NewLogNotifier(log)
	if cfg.SMTPHost != "" {
		notifier = notifications.NewSMTPNotifier(notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	}

	ready := map[string]handlers.Pinger{"postgres": pool}

	var limiter middlewares.Limiter = middlewares.NewLocalLimiter(cfg.PublicRateLimit)
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		limiter = middlewares.NewRedisLimiter(rdb.Raw(), cfg.PublicRateLimit)
		ready["redis"] = rdb
	}

	router := httpx.NewRouter(log, httpx.Deps{
		Config:       cfg,
		JWT:          auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL()),
		Prom:         prom,
		Gatherer:     reg,
		Users:        usersRepo,
		Sessions:     postgres.NewRefreshTokensRepo(pool, prom),
		Providers:    providersRepo,
		Consumers:    consumersRepo,
		Feedback:     postgres.NewFeedbackRepo(pool, prom),
		Enrollments:  postgres.NewEnrollmentRepo(pool, prom),
		Settings:     settingsRepo,
		Stats:        stats.NewAggregator(postgres.NewStatsRepo(pool, prom)),
		Entitlements: entitlements,
		Portal:       portal,
		Places:       placesClient,
		Notifier:     notifier,
		Limiter:      limiter,
		Ready:        ready,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}

	log.Info("shutdown complete")
}
