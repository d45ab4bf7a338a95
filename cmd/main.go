package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bazaar-service/bazaar_service/internal/api/handlers"
	"github.com/bazaar-service/bazaar_service/internal/api/routes"
	"github.com/bazaar-service/bazaar_service/internal/domain/services/balance"
	"github.com/bazaar-service/bazaar_service/internal/domain/services/marketplace"
	"github.com/bazaar-service/bazaar_service/internal/domain/services/order"
	"github.com/bazaar-service/bazaar_service/internal/domain/services/payout"
	"github.com/bazaar-service/bazaar_service/internal/domain/services/reconciliation"
	"github.com/bazaar-service/bazaar_service/internal/infrastructure/adapters/chaindata"
	"github.com/bazaar-service/bazaar_service/internal/infrastructure/adapters/marketchain"
	"github.com/bazaar-service/bazaar_service/internal/infrastructure/cache"
	"github.com/bazaar-service/bazaar_service/internal/infrastructure/config"
	"github.com/bazaar-service/bazaar_service/internal/infrastructure/database"
	"github.com/bazaar-service/bazaar_service/internal/infrastructure/repositories"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
	"github.com/bazaar-service/bazaar_service/pkg/metrics"
	"github.com/bazaar-service/bazaar_service/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	tracingShutdown, err := tracing.Init(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		CollectorURL: cfg.Tracing.CollectorURL,
		Environment:  cfg.Environment,
		SampleRate:   cfg.Tracing.SampleRate,
		Insecure:     cfg.Tracing.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", "error", err)
	}
	defer tracingShutdown(context.Background())

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close database connection", "error", err)
		}
	}()

	if err := database.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	redisClient, err := cache.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis", "error", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Warn("Failed to close redis connection", "error", err)
		}
	}()

	// Repositories
	networkRepo := repositories.NewNetworkRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	aggregateRepo := repositories.NewAggregateRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	payoutRepo := repositories.NewPayoutRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	marketplaceRepo := repositories.NewMarketplaceRepository(db)
	settlementStore := repositories.NewSettlementStore(db)

	// Per-network provider clients
	chainDataRegistry := chaindata.NewRegistry()
	orderChainRegistry := marketchain.NewRegistry()
	for _, chain := range cfg.Chains {
		chainDataRegistry.Register(chain.ChainID, chaindata.NewClient(chaindata.Config{
			BaseURL: chain.DataAPIURL,
			APIKey:  chain.DataAPIKey,
			Timeout: chain.Timeout,
		}, log.Desugar()))
		if chain.OrderAPIURL != "" {
			orderChainRegistry.Register(chain.ChainID, marketchain.NewClient(marketchain.Config{
				BaseURL: chain.OrderAPIURL,
				Timeout: chain.Timeout,
			}, log.Desugar()))
		}
		log.Info("Registered chain providers", "chain_id", chain.ChainID)
	}

	// Services
	reconcileMetrics := metrics.NewReconciliation()
	balanceService := balance.NewService(saleRepo, payoutRepo, log)
	marketplaceService := marketplace.NewService(marketplaceRepo, transactionRepo, log)
	orderService := order.NewService(marketplaceRepo, orderRepo, transactionRepo, log)
	payoutService := payout.NewService(payoutRepo, marketplaceRepo, transactionRepo, balanceService, log)
	reconcileService := reconciliation.NewService(
		networkRepo,
		transactionRepo,
		aggregateRepo,
		orderRepo,
		saleRepo,
		settlementStore,
		chainDataRegistry,
		orderChainRegistry,
		cache.NewLock(redisClient),
		reconcileMetrics,
		log,
		cfg.Reconciliation.LockTTL,
	)

	scheduler := reconciliation.NewScheduler(reconcileService, networkRepo, log, reconciliation.SchedulerConfig{
		Schedule:    cfg.Reconciliation.Schedule,
		PassTimeout: cfg.Reconciliation.PassTimeout,
	})
	if err := scheduler.Start(); err != nil {
		log.Fatal("Failed to start reconciliation scheduler", "error", err)
	}
	defer scheduler.Stop()

	router := routes.SetupRoutes(routes.Handlers{
		Health:      handlers.NewHealthHandlers(db, redisClient, log),
		Reconcile:   handlers.NewReconcileHandlers(reconcileService, log),
		Balance:     handlers.NewBalanceHandlers(balanceService, log),
		Marketplace: handlers.NewMarketplaceHandlers(marketplaceService, log),
		Order:       handlers.NewOrderHandlers(orderService, log),
		Payout:      handlers.NewPayoutHandlers(payoutService, log),
	}, log, cfg.Environment)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server", "port", cfg.Server.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	log.Info("Server stopped")
}
