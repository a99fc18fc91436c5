package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding represents a cached point-in-time position for one asset.
// Holding rows are a performance cache: the transaction ledger is the
// source of truth and a snapshot can always be rebuilt from it.
type Holding struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolioId"`
	AssetID     string          `json:"assetId"`
	Quantity    decimal.Decimal `json:"quantity"`
	AsOf        time.Time       `json:"asOf"`
	ComputedAt  time.Time       `json:"computedAt"`
}

// HoldingSet is the reconciled state of a portfolio as of a date: one
// quantity per held asset plus the cash balance accumulated from dividend
// and fee entries. Closed positions are absent rather than carried as zero
// rows.
type HoldingSet struct {
	PortfolioID string                     `json:"portfolioId"`
	AsOf        time.Time                  `json:"asOf"`
	Positions   map[string]decimal.Decimal `json:"positions"`
	Cash        decimal.Decimal            `json:"cash"`
}

// IsEmpty reports whether the set holds no positions and no cash.
func (h HoldingSet) IsEmpty() bool {
	return len(h.Positions) == 0 && h.Cash.IsZero()
}
