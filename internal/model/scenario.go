package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scenario metric types recorded per run.
const (
	ScenarioMetricPnL      = "pnl"
	ScenarioMetricDrawdown = "drawdown"
)

// Scenario represents a named stress definition. Scenarios are never
// mutated, only re-run; each run keeps its own result rows.
type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Shock is a hypothetical change applied to one asset's price. Exactly one
// of Percent or Absolute is set. Absolute shocks are expressed in the
// portfolio's base currency.
type Shock struct {
	Percent  *float64         `json:"percent,omitempty"`
	Absolute *decimal.Decimal `json:"absolute,omitempty"`
}

// ShockSet maps asset identifiers to price shocks and factor identifiers to
// percentage factor moves. Factor moves translate to asset price changes
// through the sensitivity mapping supplied with the run.
type ShockSet struct {
	Assets  map[string]Shock   `json:"assets,omitempty"`
	Factors map[string]float64 `json:"factors,omitempty"`
}

// Sensitivities maps factorID -> assetID -> beta. It is an external
// strategy input supplied per run; the engine does not estimate it.
type Sensitivities map[string]map[string]float64

// ScenarioRequest is the full input of one scenario run. When Path is
// non-empty its steps are applied cumulatively and a drawdown metric is
// recorded alongside the PnL; otherwise Shocks is applied once.
type ScenarioRequest struct {
	Shocks        ShockSet      `json:"shocks"`
	Path          []ShockSet    `json:"path,omitempty"`
	Sensitivities Sensitivities `json:"sensitivities,omitempty"`
	AsOf          time.Time     `json:"asOf"`
}

// ScenarioResult represents one metric produced by one scenario run.
// Multiple runs are retained, keyed by their run timestamp.
type ScenarioResult struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolioId"`
	ScenarioID  string    `json:"scenarioId"`
	MetricType  string    `json:"metricType"`
	Value       float64   `json:"value"`
	RunAt       time.Time `json:"runAt"`
}
