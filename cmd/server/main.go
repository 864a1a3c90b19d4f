package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DukeRupert/multitenancy/internal"
	"github.com/DukeRupert/multitenancy/internal/analytics"
	"github.com/DukeRupert/multitenancy/internal/billing"
	billingmock "github.com/DukeRupert/multitenancy/internal/billing/mock"
	"github.com/DukeRupert/multitenancy/internal/email"
	"github.com/DukeRupert/multitenancy/internal/handler"
	"github.com/DukeRupert/multitenancy/internal/jobs"
	"github.com/DukeRupert/multitenancy/internal/metrics"
	"github.com/DukeRupert/multitenancy/internal/middleware"
	"github.com/DukeRupert/multitenancy/internal/repository"
	"github.com/DukeRupert/multitenancy/internal/service"
	"github.com/DukeRupert/multitenancy/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	store := repository.NewStore(db)

	// ==========================================================================
	// External collaborators
	// ==========================================================================

	provider := newBillingProvider(cfg, logger)

	var tracker analytics.Client = analytics.Noop{}
	if cfg.AnalyticsAPIKey != "" {
		client, err := analytics.NewHTTPClient(analytics.Config{
			Host:   cfg.AnalyticsHost,
			APIKey: cfg.AnalyticsAPIKey,
		}, logger)
		if err != nil {
			return fmt.Errorf("analytics initialization failed: %w", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				logger.Warn("Analytics flush incomplete", "error", err)
			}
		}()
		tracker = client
		logger.Info("Analytics enabled", "host", cfg.AnalyticsHost)
	}

	sender, err := email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}, cfg.BaseURL, logger)
	if err != nil {
		return fmt.Errorf("email initialization failed: %w", err)
	}

	// ==========================================================================
	// Services
	// ==========================================================================

	userService := service.NewUserService(store, logger)
	signupService := service.NewSignupService(store, tracker, service.SignupServiceConfig{
		SessionDuration: cfg.SessionDuration,
		EEAvailable:     cfg.EEAvailable,
	}, logger)
	billingService := service.NewBillingService(store, provider, service.BillingServiceConfig{
		BaseURL:        cfg.BaseURL,
		DefaultPriceID: cfg.StripeDefaultPriceID,
	}, logger)

	renderer, err := handler.NewRenderer(handler.RendererConfig{
		Logger: logger,
		IsDev:  cfg.Env == "development",
	})
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}
	logger.Info("Templates loaded", "count", len(renderer.ListTemplates()))

	// ==========================================================================
	// Background worker
	// ==========================================================================

	var bg *worker.Worker
	if cfg.WorkerEnabled {
		workerCfg := worker.DefaultConfig()
		workerCfg.Concurrency = cfg.WorkerConcurrency
		workerCfg.PollInterval = cfg.WorkerPollInterval
		workerCfg.JobTimeout = cfg.WorkerJobTimeout

		bg, err = worker.New(store, workerCfg, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		bg.Register(jobs.NewSignupMessagingHandler(store, cfg.FollowUpDelay, logger))
		bg.Register(jobs.NewNoEventIngestionFollowUpHandler(store, sender, logger))
	} else {
		logger.Warn("Worker disabled, signup messaging jobs will queue until a worker runs")
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger, isSecure)
	requireUser := middleware.Stack(authMw.WithUser, authMw.RequireUser)

	signupLimit := middleware.NewSignupRateLimit(logger)
	defer signupLimit.Stop()

	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	if !metricsAuth.Enabled() {
		logger.Warn("Metrics endpoint is unprotected, set METRICS_USERNAME and METRICS_PASSWORD")
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsAuth.Handler(metrics.Handler()))

	handler.NewHealthHandler(db, logger).RegisterRoutes(mux)
	handler.NewSignupHandler(signupService, renderer, logger, isSecure).RegisterRoutes(mux, signupLimit.Limit)
	handler.NewUserHandler(userService, billingService, renderer, logger).RegisterRoutes(mux, requireUser)
	handler.NewBillingHandler(billingService, renderer, logger).RegisterRoutes(mux, requireUser)
	handler.NewWebhookHandler(billingService, logger).RegisterRoutes(mux)

	requestLogging := middleware.NewRequestLoggingMiddleware(logger)
	securityHeaders := middleware.NewSecurityHeadersMiddleware(isSecure)
	root := middleware.Stack(requestLogging.Handler, metrics.Middleware, securityHeaders.Handler)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)

	if bg != nil {
		bg.Start(gctx)
	}

	g.Go(func() error {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "billing_provider", cfg.BillingProvider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, initiating graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if bg != nil {
			bg.Stop()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newBillingProvider selects the payment processor from configuration.
func newBillingProvider(cfg *internal.Config, logger *slog.Logger) billing.Provider {
	if cfg.BillingProvider == "stripe" {
		logger.Info("Using Stripe billing provider")
		return billing.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret, logger)
	}

	logger.Warn("Using mock billing provider, checkout sessions are simulated")
	return billingmock.New(cfg.StripeWebhookSecret, logger)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
