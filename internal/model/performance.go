package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PerformanceRecord represents one daily NAV observation for a portfolio.
// DailyReturn is nil for the first observation of a portfolio: a return is
// only defined when a prior NAV exists.
type PerformanceRecord struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolioId"`
	Date        time.Time       `json:"date"`
	NAV         decimal.Decimal `json:"nav"`
	DailyReturn *float64        `json:"dailyReturn"`
}
