package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/quantfolio/analytics-engine/internal/api/handlers"
	custommiddleware "github.com/quantfolio/analytics-engine/internal/api/middleware"
	"github.com/quantfolio/analytics-engine/internal/config"
	"github.com/quantfolio/analytics-engine/internal/repository"
	"github.com/quantfolio/analytics-engine/internal/service"
)

// Services bundles the engine services the router exposes.
type Services struct {
	System    *service.SystemService
	Portfolio *service.PortfolioService
	Asset     *service.AssetService
	Reconcile *service.ReconcileService
	Valuation *service.ValuationService
	Risk      *service.RiskService
	Factor    *service.FactorService
	Scenario  *service.ScenarioService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, riskRepo *repository.RiskMetricRepository, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(services.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(services.Portfolio, services.Reconcile)
			performanceHandler := handlers.NewPerformanceHandler(services.Valuation)
			riskHandler := handlers.NewRiskHandler(services.Risk, riskRepo)
			scenarioHandler := handlers.NewScenarioHandler(services.Scenario)

			r.Get("/", portfolioHandler.Portfolios)
			r.Post("/", portfolioHandler.Create)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", portfolioHandler.Portfolio)
				r.Delete("/", portfolioHandler.Delete)
				r.Get("/holdings", portfolioHandler.Holdings)
				r.Post("/holdings/snapshot", portfolioHandler.Snapshot)
				r.Post("/transactions", portfolioHandler.AddTransaction)
				r.Post("/performance/compute", performanceHandler.Compute)
				r.Get("/performance", performanceHandler.Records)
				r.Post("/risk/compute", riskHandler.Compute)
				r.Get("/risk", riskHandler.Metrics)
				r.Post("/scenario/{scenarioId}/run", scenarioHandler.Run)
				r.Get("/scenario-results", scenarioHandler.Results)
			})
		})

		assetHandler := handlers.NewAssetHandler(services.Asset)
		r.Route("/asset", func(r chi.Router) {
			r.Get("/", assetHandler.Assets)
			r.Post("/", assetHandler.Create)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", assetHandler.Asset)
				r.Get("/prices", assetHandler.Prices)
				r.Post("/prices", assetHandler.AddPrice)
			})
		})

		r.Route("/rates", func(r chi.Router) {
			r.Post("/", assetHandler.AddRate)
		})

		r.Route("/factor", func(r chi.Router) {
			factorHandler := handlers.NewFactorHandler(services.Factor)

			r.Post("/", factorHandler.Create)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/align", factorHandler.Align)
				r.Post("/values", factorHandler.AddValue)
			})
		})

		r.Route("/scenario", func(r chi.Router) {
			scenarioHandler := handlers.NewScenarioHandler(services.Scenario)
			r.Post("/", scenarioHandler.Create)
		})
	})

	return r
}
