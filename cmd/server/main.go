package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/quantfolio/analytics-engine/internal/api"
	"github.com/quantfolio/analytics-engine/internal/config"
	"github.com/quantfolio/analytics-engine/internal/database"
	"github.com/quantfolio/analytics-engine/internal/repository"
	"github.com/quantfolio/analytics-engine/internal/scheduler"
	"github.com/quantfolio/analytics-engine/internal/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failure is not actionable

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	// Apply pending migrations
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	logger.Info("Connected to database", zap.String("path", cfg.Database.Path))

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	marketDataRepo := repository.NewMarketDataRepository(db)
	holdingRepo := repository.NewHoldingRepository(db)
	performanceRepo := repository.NewPerformanceRepository(db)
	riskRepo := repository.NewRiskMetricRepository(db)
	factorRepo := repository.NewFactorRepository(db)
	scenarioRepo := repository.NewScenarioRepository(db)

	// Create services
	systemService := service.NewSystemService(db)
	portfolioService := service.NewPortfolioService(portfolioRepo)
	reconcileService := service.NewReconcileService(
		transactionRepo,
		holdingRepo,
		portfolioRepo,
		assetRepo,
	)
	assetService := service.NewAssetService(assetRepo, marketDataRepo)
	valuationService := service.NewValuationService(
		reconcileService,
		marketDataRepo,
		assetRepo,
		portfolioRepo,
		performanceRepo,
		transactionRepo,
		cfg.Engine,
	)
	riskService := service.NewRiskService(
		performanceRepo,
		riskRepo,
		cfg.Engine,
		logger,
	)
	factorService := service.NewFactorService(
		factorRepo,
		performanceRepo,
		portfolioRepo,
		cfg.Engine,
	)
	scenarioService := service.NewScenarioService(
		reconcileService,
		valuationService,
		portfolioRepo,
		scenarioRepo,
	)
	pipelineService := service.NewPipelineService(
		portfolioRepo,
		performanceRepo,
		valuationService,
		riskService,
		logger,
	)

	// Create router
	router := api.NewRouter(api.Services{
		System:    systemService,
		Portfolio: portfolioService,
		Asset:     assetService,
		Reconcile: reconcileService,
		Valuation: valuationService,
		Risk:      riskService,
		Factor:    factorService,
		Scenario:  scenarioService,
	}, riskRepo, cfg, logger)

	// Start the batch scheduler
	batch := scheduler.New(pipelineService, cfg.Scheduler, logger)
	if err := batch.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	batch.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
