package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/vitalcred/clinic-platform/internal/api/router"
	"github.com/vitalcred/clinic-platform/internal/clinicorp"
	appconfig "github.com/vitalcred/clinic-platform/internal/config"
	"github.com/vitalcred/clinic-platform/internal/http/handlers"
	"github.com/vitalcred/clinic-platform/internal/observability/metrics"
	"github.com/vitalcred/clinic-platform/internal/patients"
	"github.com/vitalcred/clinic-platform/pkg/logging"
)

func main() {
	// Load .env when present (local development)
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	// Metrics
	registry := prometheus.NewRegistry()
	upstreamMetrics := metrics.NewUpstreamMetrics(registry)

	// Practice-management integration
	credSource := clinicorp.NewRedisCredentialSource(redisClient)
	resolvers := clinicorp.NewResolverRegistry(credSource, cfg.ClinicorpReloadDebounce, logger)
	executor := clinicorp.NewExecutor(clinicorp.ExecutorConfig{
		Proxy:      clinicorp.NewHTTPProxyClient(cfg.ClinicorpProxyURL, nil),
		Sessions:   clinicorp.NewJWTSessionValidator(cfg.SessionJWTSecret),
		Retry:      clinicorp.FixedDelay{Interval: cfg.ClinicorpRetryDelay},
		Logger:     logger,
		Metrics:    upstreamMetrics,
		Timeout:    cfg.ClinicorpTimeout,
		MaxRetries: cfg.ClinicorpMaxRetries,
	})

	// Initialize handlers
	patientsRepo := patients.NewRepository(pool)
	integration := handlers.NewClinicIntegrationHandler(
		executor,
		resolvers,
		patientsRepo,
		cfg.ClinicorpDefaultProfessional,
		logger,
	)

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		Integration:        integration,
		SessionSecret:      cfg.SessionJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
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
	fmt.Println("Server exited gracefully")
}
