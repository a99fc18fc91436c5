package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types recognized by the reconciler.
const (
	TransactionBuy      = "buy"
	TransactionSell     = "sell"
	TransactionDividend = "dividend"
	TransactionFee      = "fee"
)

// Transaction represents a single append-only ledger entry for a portfolio.
// Quantity is signed: positive for buys/inflows, negative for sells/outflows.
// Ledger rows are immutable after creation; holdings are always derivable by
// replaying them.
type Transaction struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolioId"`
	AssetID     string          `json:"assetId"`
	Date        time.Time       `json:"date"`
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"createdAt,omitempty"`
}
