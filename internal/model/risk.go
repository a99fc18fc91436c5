package model

import "time"

// Risk metric types.
const (
	MetricVolatility = "volatility"
	MetricVaR        = "var"
	MetricCVaR       = "cvar"
)

// Risk computation methods.
const (
	MethodHistorical = "historical"
	MethodParametric = "parametric"
)

// MetricSpec describes one risk figure to compute: which statistic, at what
// confidence level, with which method. Annualize applies the configured
// scaling factor (volatility only).
type MetricSpec struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
	Annualize  bool    `json:"annualize"`
}

// RiskMetric represents one computed risk figure for a portfolio on a date.
// Recomputation for the same (portfolio, date, type) key overwrites the
// prior value.
type RiskMetric struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolioId"`
	Date        time.Time `json:"date"`
	MetricType  string    `json:"metricType"`
	Value       float64   `json:"value"`
	ComputedAt  time.Time `json:"computedAt"`
}
