package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bookline/booking-platform/internal/api/router"
	"github.com/bookline/booking-platform/internal/appointments"
	"github.com/bookline/booking-platform/internal/availability"
	"github.com/bookline/booking-platform/internal/catalog"
	"github.com/bookline/booking-platform/internal/clients"
	appconfig "github.com/bookline/booking-platform/internal/config"
	"github.com/bookline/booking-platform/internal/conversation"
	"github.com/bookline/booking-platform/internal/localization"
	"github.com/bookline/booking-platform/internal/messaging"
	"github.com/bookline/booking-platform/internal/observability/metrics"
	"github.com/bookline/booking-platform/internal/schedule"
	"github.com/bookline/booking-platform/internal/tenancy"
	"github.com/bookline/booking-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	var stateStore conversation.StateStore
	if cfg.UseMemoryState {
		logger.Warn("using in-memory conversation state; sessions do not survive restarts")
		stateStore = conversation.NewMemoryStateStore()
	} else {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to reach redis", "error", err)
			os.Exit(1)
		}
		stateStore = conversation.NewRedisStateStore(redisClient, cfg.ConversationStateTTL, nil)
	}

	locale, err := localization.Load(cfg.DefaultLanguage, logger)
	if err != nil {
		logger.Error("failed to load locales", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	tenantRepo := tenancy.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	scheduleRepo := schedule.NewRepository(pool)
	clientRepo := clients.NewRepository(pool)
	appointmentRepo := appointments.NewRepository(pool)

	gateway := messaging.NewConsoleGateway(logger)

	lifecycle := appointments.NewLifecycle(
		appointmentRepo, catalogRepo, clientRepo, tenantRepo,
		gateway, locale, bookingMetrics, logger,
	)

	controller := conversation.NewController(conversation.ControllerConfig{
		States:          stateStore,
		Gateway:         gateway,
		Locale:          locale,
		Tenants:         tenantRepo,
		Catalog:         catalogRepo,
		Schedules:       scheduleRepo,
		Appointments:    appointmentRepo,
		Clients:         clientRepo,
		Decider:         lifecycle,
		Clock:           availability.SystemClock{},
		Metrics:         bookingMetrics,
		Granularity:     cfg.SlotGranularity,
		WindowMonths:    cfg.BookingWindowMonths,
		DefaultLanguage: cfg.DefaultLanguage,
		Logger:          logger,
	})

	r := router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: conversation.NewHandler(controller, logger),
		AppointmentsHandler: appointments.NewHandler(lifecycle, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
