package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/analytics-engine/internal/model"
)

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	// Simple creation with defaults
//	portfolio := testutil.NewPortfolio().Build(t, db)
//
//	// Customized portfolio
//	portfolio := testutil.NewPortfolio().
//	    WithName("Custom Portfolio").
//	    WithBaseCurrency("EUR").
//	    Archived().
//	    Build(t, db)
type PortfolioBuilder struct {
	ID           string
	Name         string
	BaseCurrency string
	Description  string
	IsArchived   bool
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:           MakeID(),
		Name:         MakePortfolioName("Test Portfolio"),
		BaseCurrency: "USD",
		Description:  "Test description",
		IsArchived:   false,
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// WithBaseCurrency sets a custom base currency.
func (b *PortfolioBuilder) WithBaseCurrency(currency string) *PortfolioBuilder {
	b.BaseCurrency = currency
	return b
}

// Archived marks the portfolio as archived.
func (b *PortfolioBuilder) Archived() *PortfolioBuilder {
	b.IsArchived = true
	return b
}

// Build creates the portfolio in the database and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	query := `
		INSERT INTO portfolio (id, name, base_currency, description, is_archived)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Name, b.BaseCurrency, b.Description, b.IsArchived)
	if err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}

	return model.Portfolio{
		ID:           b.ID,
		Name:         b.Name,
		BaseCurrency: b.BaseCurrency,
		Description:  b.Description,
		IsArchived:   b.IsArchived,
	}
}

// Convenience functions

// CreatePortfolio creates a portfolio with the given name and default values.
//
// Example usage:
//
//	portfolio := testutil.CreatePortfolio(t, db, "My Portfolio")
func CreatePortfolio(t *testing.T, db *sql.DB, name string) model.Portfolio {
	t.Helper()
	return NewPortfolio().WithName(name).Build(t, db)
}

// CreateAsset creates an asset with the given symbol and currency.
func CreateAsset(t *testing.T, db *sql.DB, symbol, currency string) model.Asset {
	t.Helper()

	asset := model.Asset{
		ID:       MakeID(),
		Symbol:   MakeSymbol(symbol),
		Name:     symbol + " Test Asset",
		Type:     "stock",
		Currency: currency,
	}

	_, err := db.Exec(`
		INSERT INTO asset (id, symbol, name, type, currency)
		VALUES (?, ?, ?, ?, ?)
	`, asset.ID, asset.Symbol, asset.Name, asset.Type, asset.Currency)
	if err != nil {
		t.Fatalf("Failed to create test asset: %v", err)
	}

	return asset
}

// CreateTransaction inserts one ledger entry. Quantity is signed: positive
// for buys/inflows, negative for sells/outflows.
func CreateTransaction(t *testing.T, db *sql.DB, portfolioID, assetID, date, txType, quantity, price string) model.Transaction {
	t.Helper()

	txn := model.Transaction{
		ID:          MakeID(),
		PortfolioID: portfolioID,
		AssetID:     assetID,
		Date:        mustParseDate(t, date),
		Type:        txType,
		Quantity:    mustParseDecimal(t, quantity),
		Price:       mustParseDecimal(t, price),
	}

	_, err := db.Exec(`
		INSERT INTO txn (id, portfolio_id, asset_id, date, type, quantity, price)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.PortfolioID, txn.AssetID, date, txn.Type, quantity, price)
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return txn
}

// CreatePrice inserts one market data close for the asset on the date.
func CreatePrice(t *testing.T, db *sql.DB, assetID, date, close string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO market_data (id, asset_id, date, close)
		VALUES (?, ?, ?, ?)
	`, MakeID(), assetID, date, close)
	if err != nil {
		t.Fatalf("Failed to create test price: %v", err)
	}
}

// CreateRate inserts one exchange rate for the currency pair on the date.
func CreateRate(t *testing.T, db *sql.DB, from, to, date, rate string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO exchange_rate (id, from_currency, to_currency, rate, date)
		VALUES (?, ?, ?, ?, ?)
	`, MakeID(), from, to, rate, date)
	if err != nil {
		t.Fatalf("Failed to create test exchange rate: %v", err)
	}
}

// CreateFactor creates a factor with the given name.
func CreateFactor(t *testing.T, db *sql.DB, name string) model.Factor {
	t.Helper()

	factor := model.Factor{
		ID:       MakeID(),
		Name:     MakeFactorName(name),
		Category: "macro",
	}

	_, err := db.Exec(`
		INSERT INTO factor (id, name, category)
		VALUES (?, ?, ?)
	`, factor.ID, factor.Name, factor.Category)
	if err != nil {
		t.Fatalf("Failed to create test factor: %v", err)
	}

	return factor
}

// CreateFactorValue inserts one factor observation on the date.
func CreateFactorValue(t *testing.T, db *sql.DB, factorID, date string, value float64) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO factor_value (id, factor_id, date, value)
		VALUES (?, ?, ?, ?)
	`, MakeID(), factorID, date, value)
	if err != nil {
		t.Fatalf("Failed to create test factor value: %v", err)
	}
}

// CreateScenario creates a scenario with the given name.
func CreateScenario(t *testing.T, db *sql.DB, name string) model.Scenario {
	t.Helper()

	scenario := model.Scenario{
		ID:          MakeID(),
		Name:        MakeScenarioName(name),
		Description: "Test scenario",
	}

	_, err := db.Exec(`
		INSERT INTO scenario (id, name, description)
		VALUES (?, ?, ?)
	`, scenario.ID, scenario.Name, scenario.Description)
	if err != nil {
		t.Fatalf("Failed to create test scenario: %v", err)
	}

	return scenario
}

// CreatePerformanceRecord inserts one NAV observation. Pass nil for
// dailyReturn to store the first-observation NULL.
func CreatePerformanceRecord(t *testing.T, db *sql.DB, portfolioID, date, nav string, dailyReturn *float64) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO performance_record (id, portfolio_id, date, nav, daily_return)
		VALUES (?, ?, ?, ?, ?)
	`, MakeID(), portfolioID, date, nav, dailyReturn)
	if err != nil {
		t.Fatalf("Failed to create test performance record: %v", err)
	}
}

func mustParseDate(t *testing.T, date string) time.Time {
	t.Helper()

	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("Failed to parse test date %q: %v", date, err)
	}
	return parsed
}

func mustParseDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("Failed to parse test decimal %q: %v", value, err)
	}
	return parsed
}
