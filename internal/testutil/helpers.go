package testutil

import (
	"database/sql"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantfolio/analytics-engine/internal/config"
	"github.com/quantfolio/analytics-engine/internal/repository"
	"github.com/quantfolio/analytics-engine/internal/service"
)

// DefaultEngineConfig returns the engine configuration tests start from.
// Individual tests override fields as needed.
func DefaultEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		MissingPricePolicy:  config.PolicyCarryForward,
		PriceLookbackDays:   5,
		RiskWindow:          252,
		RiskMinSamples:      5,
		RiskConfidence:      0.95,
		RiskMethod:          "historical",
		AnnualizationFactor: 252,
		FactorLookbackDays:  7,
	}
}

func NewTestReconcileService(t *testing.T, db *sql.DB) *service.ReconcileService {
	t.Helper()

	transactionRepo := repository.NewTransactionRepository(db)
	holdingRepo := repository.NewHoldingRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	assetRepo := repository.NewAssetRepository(db)

	return service.NewReconcileService(
		transactionRepo,
		holdingRepo,
		portfolioRepo,
		assetRepo,
	)
}

func NewTestAssetService(t *testing.T, db *sql.DB) *service.AssetService {
	t.Helper()

	return service.NewAssetService(
		repository.NewAssetRepository(db),
		repository.NewMarketDataRepository(db),
	)
}

func NewTestValuationService(t *testing.T, db *sql.DB, cfg config.EngineConfig) *service.ValuationService {
	t.Helper()

	reconcileService := NewTestReconcileService(t, db)
	marketDataRepo := repository.NewMarketDataRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	performanceRepo := repository.NewPerformanceRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	return service.NewValuationService(
		reconcileService,
		marketDataRepo,
		assetRepo,
		portfolioRepo,
		performanceRepo,
		transactionRepo,
		cfg,
	)
}

func NewTestRiskService(t *testing.T, db *sql.DB, cfg config.EngineConfig) *service.RiskService {
	t.Helper()

	performanceRepo := repository.NewPerformanceRepository(db)
	riskRepo := repository.NewRiskMetricRepository(db)

	return service.NewRiskService(
		performanceRepo,
		riskRepo,
		cfg,
		zap.NewNop(),
	)
}

func NewTestFactorService(t *testing.T, db *sql.DB, cfg config.EngineConfig) *service.FactorService {
	t.Helper()

	factorRepo := repository.NewFactorRepository(db)
	performanceRepo := repository.NewPerformanceRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)

	return service.NewFactorService(
		factorRepo,
		performanceRepo,
		portfolioRepo,
		cfg,
	)
}

func NewTestScenarioService(t *testing.T, db *sql.DB, cfg config.EngineConfig) *service.ScenarioService {
	t.Helper()

	reconcileService := NewTestReconcileService(t, db)
	valuationService := NewTestValuationService(t, db, cfg)
	portfolioRepo := repository.NewPortfolioRepository(db)
	scenarioRepo := repository.NewScenarioRepository(db)

	return service.NewScenarioService(
		reconcileService,
		valuationService,
		portfolioRepo,
		scenarioRepo,
	)
}

func NewTestPipelineService(t *testing.T, db *sql.DB, cfg config.EngineConfig) *service.PipelineService {
	t.Helper()

	portfolioRepo := repository.NewPortfolioRepository(db)
	performanceRepo := repository.NewPerformanceRepository(db)
	valuationService := NewTestValuationService(t, db, cfg)
	riskService := NewTestRiskService(t, db, cfg)

	return service.NewPipelineService(
		portfolioRepo,
		performanceRepo,
		valuationService,
		riskService,
		zap.NewNop(),
	)
}

func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(repository.NewPortfolioRepository(db))
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeSymbol generates a ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("AAPL")
//	// Returns: "AAPL1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// MakePortfolioName generates a unique portfolio name for testing.
//
// Example usage:
//
//	name := testutil.MakePortfolioName("MyPortfolio")
//	// Returns: "MyPortfolio ABC123"
func MakePortfolioName(base string) string {
	if base == "" {
		base = "Portfolio"
	}
	return base + " " + randomAlphanumeric(6)
}

// MakeFactorName generates a unique factor name for testing.
func MakeFactorName(base string) string {
	if base == "" {
		base = "Factor"
	}
	return base + " " + randomAlphanumeric(6)
}

// MakeScenarioName generates a unique scenario name for testing.
func MakeScenarioName(base string) string {
	if base == "" {
		base = "Scenario"
	}
	return base + " " + randomAlphanumeric(6)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
