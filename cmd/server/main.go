package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"paygw/internal/app"
	"paygw/internal/config"
	"paygw/internal/gateway"
	"paygw/internal/handler"
	internalRedis "paygw/internal/redis"
	"paygw/internal/repository/postgres"
	"paygw/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, worker := wireServer(db, redisClient, nrApp, cfg)

	// Start the recheck worker: the safety net for missed redirect
	// callbacks.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go worker.Run(workerCtx)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// recheck worker.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.RecheckWorker) {
	// Initialize Redis stores.
	recheckQueue := internalRedis.NewRecheckQueue(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	ledger := postgres.NewLedger(db)
	payableRepo := postgres.NewPayableRepository(db)

	// Initialize the payment provider. Only the sandbox provider ships
	// in-process; live deployments plug in the provider SDK adapter.
	provider := gateway.NewSandboxProvider(cfg.Server.BaseURL)

	// Initialize services.
	events := service.NewLogEventSink()
	delivery := service.NewLogDeliveryService()
	payables := service.NewCachedPayableResolver(payableRepo, cacheStore)
	scheduler := service.NewRecheckScheduler(recheckQueue)
	engine := service.NewReconciliationEngine(ledger, payables, provider, delivery, events, cfg.Gateway.Name, cfg.Gateway.Surcharge)
	checkoutService := service.NewCheckoutService(ledger, payables, provider, events, scheduler, service.CheckoutSettings{
		ClientID:     cfg.Gateway.ClientID,
		BrandName:    cfg.Gateway.BrandName,
		Environment:  cfg.Gateway.Environment,
		Language:     cfg.Gateway.Language,
		Surcharge:    cfg.Gateway.Surcharge,
		RecheckDelay: cfg.Gateway.RecheckDelay,
		BaseURL:      cfg.Server.BaseURL,
	})
	worker := service.NewRecheckWorker(recheckQueue, lockStore, engine, cfg.Gateway.RecheckInterval)

	// Initialize handlers.
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, engine)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		CheckoutHandler: checkoutHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, worker
}
