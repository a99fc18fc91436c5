package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset represents a tradable instrument referenced by market data,
// transactions and holdings. The symbol is treated as immutable once any
// data row references it.
type Asset struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
}

// MarketDataPoint represents a single end-of-day price observation for an
// asset. Close is always present; open/high/low and volume are optional.
type MarketDataPoint struct {
	ID      string          `json:"id"`
	AssetID string          `json:"assetId"`
	Date    time.Time       `json:"date"`
	Open    *float64        `json:"open,omitempty"`
	High    *float64        `json:"high,omitempty"`
	Low     *float64        `json:"low,omitempty"`
	Close   decimal.Decimal `json:"close"`
	Volume  *int64          `json:"volume,omitempty"`
	Source  string          `json:"source,omitempty"`
}

// PricePoint is the minimal (date, close) pair used by valuation lookups.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// ExchangeRate represents a conversion rate between two currencies on a
// given date. Rates are collaborator-supplied reference data; the engine
// only reads them during valuation.
type ExchangeRate struct {
	ID           string          `json:"id"`
	FromCurrency string          `json:"fromCurrency"`
	ToCurrency   string          `json:"toCurrency"`
	Rate         decimal.Decimal `json:"rate"`
	Date         time.Time       `json:"date"`
}
