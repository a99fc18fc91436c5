package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/repository"
)

// ScenarioService revalues a portfolio's current holdings under hypothetical
// shocks. Runs never mutate holdings, prices or performance history; the
// only writes are the run's own result rows.
type ScenarioService struct {
	reconcileService *ReconcileService
	valuationService *ValuationService
	portfolioRepo    *repository.PortfolioRepository
	scenarioRepo     *repository.ScenarioRepository
}

// NewScenarioService creates a new ScenarioService with the provided dependencies.
func NewScenarioService(
	reconcileService *ReconcileService,
	valuationService *ValuationService,
	portfolioRepo *repository.PortfolioRepository,
	scenarioRepo *repository.ScenarioRepository,
) *ScenarioService {
	return &ScenarioService{
		reconcileService: reconcileService,
		valuationService: valuationService,
		portfolioRepo:    portfolioRepo,
		scenarioRepo:     scenarioRepo,
	}
}

// CreateScenario registers a new scenario definition. Definitions are
// immutable once created; changing a stress means creating a new scenario.
func (s *ScenarioService) CreateScenario(sc model.Scenario) (model.Scenario, error) {
	if sc.Name == "" {
		return model.Scenario{}, fmt.Errorf("%w: scenario name is required", apperrors.ErrEmptyID)
	}
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	return s.scenarioRepo.CreateScenario(sc)
}

// Run evaluates one scenario against the portfolio's holdings as of
// req.AsOf and persists the resulting metrics under a shared run timestamp.
//
// Single-shot runs record a PnL metric. Path runs apply each step's shocks
// cumulatively on top of the previous step's prices and additionally record
// the maximum drawdown along the path. An empty shock set is valid and
// yields a PnL of exactly zero.
func (s *ScenarioService) Run(portfolioID, scenarioID string, req model.ScenarioRequest) ([]model.ScenarioResult, error) {
	portfolio, err := s.portfolioRepo.GetPortfolioOnID(portfolioID)
	if err != nil {
		return nil, err
	}
	scenario, err := s.scenarioRepo.GetScenarioOnID(scenarioID)
	if err != nil {
		return nil, err
	}

	set, err := s.reconcileService.Reconcile(portfolioID, req.AsOf)
	if err != nil {
		return nil, err
	}

	basePrices, err := s.valuationService.PriceTable(set, req.AsOf, portfolio.BaseCurrency)
	if err != nil {
		return nil, err
	}
	baseNAV := s.valuationService.ValueWithPrices(set, basePrices)

	path := req.Path
	if len(path) == 0 {
		path = []model.ShockSet{req.Shocks}
	}

	prices := basePrices
	finalNAV := baseNAV
	minCumulative := 0.0
	for _, step := range path {
		prices, err = applyShocks(prices, step, req.Sensitivities)
		if err != nil {
			return nil, err
		}
		nav := s.valuationService.ValueWithPrices(set, prices)
		finalNAV = nav

		if !baseNAV.IsZero() {
			cumulative, _ := nav.Div(baseNAV).Sub(decimal.NewFromInt(1)).Float64()
			if cumulative < minCumulative {
				minCumulative = cumulative
			}
		}
	}

	runAt := time.Now().UTC()
	pnl, _ := finalNAV.Sub(baseNAV).Float64()

	results := []model.ScenarioResult{{
		PortfolioID: portfolioID,
		ScenarioID:  scenario.ID,
		MetricType:  model.ScenarioMetricPnL,
		Value:       pnl,
		RunAt:       runAt,
	}}
	if len(req.Path) > 0 {
		results = append(results, model.ScenarioResult{
			PortfolioID: portfolioID,
			ScenarioID:  scenario.ID,
			MetricType:  model.ScenarioMetricDrawdown,
			Value:       minCumulative,
			RunAt:       runAt,
		})
	}

	if err := s.scenarioRepo.AddResults(results); err != nil {
		return nil, err
	}

	return results, nil
}

// Results returns every retained scenario result for the portfolio, newest
// run first.
func (s *ScenarioService) Results(portfolioID string) ([]model.ScenarioResult, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		return nil, err
	}
	return s.scenarioRepo.GetResults(portfolioID)
}

// applyShocks produces a new price table with one step's shocks applied.
// Asset shocks move the named asset's price directly; factor shocks move
// every asset with a sensitivity to that factor by beta x move. Shocks that
// reference assets outside the priced holding set, or factors without a
// sensitivity entry, are rejected rather than ignored.
func applyShocks(prices map[string]decimal.Decimal, step model.ShockSet, sens model.Sensitivities) (map[string]decimal.Decimal, error) {
	shocked := make(map[string]decimal.Decimal, len(prices))
	for assetID, price := range prices {
		shocked[assetID] = price
	}

	for assetID, shock := range step.Assets {
		price, ok := shocked[assetID]
		if !ok {
			return nil, fmt.Errorf("%w: shocked asset %s is not held", apperrors.ErrUnknownReference, assetID)
		}

		switch {
		case shock.Percent != nil && shock.Absolute == nil:
			shocked[assetID] = price.Mul(decimal.NewFromFloat(1 + *shock.Percent))
		case shock.Absolute != nil && shock.Percent == nil:
			shocked[assetID] = price.Add(*shock.Absolute)
		default:
			return nil, fmt.Errorf("%w: asset %s", apperrors.ErrInvalidShock, assetID)
		}
	}

	for factorID, move := range step.Factors {
		betas, ok := sens[factorID]
		if !ok {
			return nil, fmt.Errorf("%w: no sensitivities for factor %s", apperrors.ErrUnknownReference, factorID)
		}
		for assetID, beta := range betas {
			price, ok := shocked[assetID]
			if !ok {
				// Sensitivity rows for assets not currently held are inert.
				continue
			}
			shocked[assetID] = price.Mul(decimal.NewFromFloat(1 + beta*move))
		}
	}

	return shocked, nil
}
