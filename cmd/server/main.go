package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	integrationapp "github.com/storesync/backend/internal/application/integration"
	"github.com/storesync/backend/internal/infrastructure/cache"
	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/invoicing"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/infrastructure/pacing"
	"github.com/storesync/backend/internal/infrastructure/scheduler"
	"github.com/storesync/backend/internal/infrastructure/storefront"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
	"github.com/storesync/backend/internal/interfaces/http/handler"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
	"github.com/storesync/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// OpenTelemetry providers stay no-ops when telemetry is disabled
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	log := providers.BridgeLogger(baseLog, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Telemetry.LogsLevel))
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting storesync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)

	syncMetrics, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter:  providers.Meter("storesync"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create sync metrics", zap.Error(err))
	}

	// Remote clients share one pacing gate so every invoicing call is spaced
	gate := pacing.NewGate(cfg.Invoicing.MinCallInterval, logger.ForComponent(log, "pacing"))
	invoicingClient, err := newInvoicingClient(cfg, gate, log)
	if err != nil {
		log.Fatal("Failed to configure invoicing client", zap.Error(err))
	}
	storefrontClient, err := newStorefrontClient(cfg, log)
	if err != nil {
		log.Fatal("Failed to configure storefront client", zap.Error(err))
	}

	// Application services
	reconciler := integrationapp.NewCatalogReconciler(invoicingClient, storefrontClient, logger.ForComponent(log, "reconciler"))
	reconciler.SetMetrics(syncMetrics)
	workflow := integrationapp.NewInvoiceWorkflow(invoicingClient, storefrontClient, cfg.Invoicing.CashRegisterCode, logger.ForComponent(log, "invoice_workflow"))
	workflow.SetMetrics(syncMetrics)

	// Webhook de-duplication
	idempotencyStore, err := cache.NewIdempotencyStore(ctx, cache.FactoryOptions{
		Backend: cfg.Sync.IdempotencyBackend,
		Redis: cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Logger:                log,
		AllowInMemoryFallback: cfg.App.Env != "production",
	})
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Periodic reconciliation (if enabled)
	var schedule handler.ScheduleSource
	if cfg.Sync.ScheduleEnabled {
		reconcileScheduler, err := scheduler.NewReconcileScheduler(scheduler.ReconcileSchedulerConfig{
			Interval:   cfg.Sync.ScheduleInterval,
			RunTimeout: cfg.Sync.RunTimeout,
			RunOnStart: cfg.Sync.RunOnStart,
			MaxHistory: 50,
		}, reconciler, log)
		if err != nil {
			log.Fatal("Failed to create reconcile scheduler", zap.Error(err))
		}
		if err := reconcileScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start reconcile scheduler", zap.Error(err))
		}
		defer func() {
			if err := reconcileScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping reconcile scheduler", zap.Error(err))
			}
		}()
		schedule = reconcileScheduler
	}

	// Initialize HTTP handlers
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, reconciler, schedule)
	syncHandler := handler.NewSyncHandler(reconciler)
	webhookHandler := handler.NewWebhookHandler(reconciler, workflow, cfg.Sync.ChangeWindow)
	webhookHandler.SetMetrics(syncMetrics)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Request ID first so spans and log lines carry it; the body limit runs
	// before any handler reads the payload
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, providers.TracingEnabled())...)
	if providers.MetricsEnabled() {
		engine.Use(middleware.HTTPMetrics(providers.Meter("http.server")))
	}
	engine.Use(logger.Recovery(log))
	engine.Use(logger.RequestLogger(log, "/health"))
	engine.Use(middleware.SecureHeaders(cfg.HTTP.HSTSMaxAge))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	guard := router.WebhookGuard{
		Secret:  cfg.Storefront.WebhookSecret,
		Store:   idempotencyStore,
		TTL:     cfg.Sync.IdempotencyTTL,
		Timeout: cfg.HTTP.WebhookTimeout,
	}
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst, 0)
		defer rateLimiter.Stop()
		guard.Limiter = rateLimiter
		log.Info("Webhook rate limiting enabled",
			zap.Float64("rps", cfg.HTTP.RateLimitRPS),
			zap.Int("burst", cfg.HTTP.RateLimitBurst),
		)
	}
	if guard.Secret == "" {
		log.Warn("Webhook signature verification disabled: storefront.webhook_secret is empty")
	}

	groups := router.Mount(engine, "v1", router.Handlers{
		System:  systemHandler,
		Sync:    syncHandler,
		Webhook: webhookHandler,
	}, guard)
	for _, g := range groups {
		log.Debug("Routes registered", zap.String("group", g.Name()), zap.Strings("routes", g.Routes()))
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Flush telemetry after the last request has been served
	if err := providers.Shutdown(shutdownCtx); err != nil {
		baseLog.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func newInvoicingClient(cfg *config.Config, gate *pacing.Gate, log *zap.Logger) (*invoicing.EracuniAdapter, error) {
	ic := invoicing.NewEracuniConfig(cfg.Invoicing.Username, cfg.Invoicing.PasswordHash, cfg.Invoicing.Token)
	ic.Password = cfg.Invoicing.Password
	ic.APIURL = cfg.Invoicing.APIURL
	ic.TimeoutSeconds = int(cfg.Invoicing.Timeout / time.Second)
	return invoicing.NewEracuniAdapter(ic, gate, log)
}

func newStorefrontClient(cfg *config.Config, log *zap.Logger) (*storefront.ShopifyAdapter, error) {
	sc := storefront.NewShopifyConfig(cfg.Storefront.ShopDomain, cfg.Storefront.AccessToken)
	sc.APIVersion = cfg.Storefront.APIVersion
	sc.BaseURL = cfg.Storefront.BaseURL
	sc.TimeoutSeconds = int(cfg.Storefront.Timeout / time.Second)
	return storefront.NewShopifyAdapter(sc, log)
}
