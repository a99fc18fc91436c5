package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/analytics-engine/internal/model"
)

// HoldingRepository provides data access methods for the holding and
// cash_balance tables. Holding rows are strictly a cache of the last
// reconciled snapshot; the txn ledger remains the source of truth.
type HoldingRepository struct {
	db *sql.DB
}

// NewHoldingRepository creates a new HoldingRepository with the provided database connection.
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// GetHoldings retrieves the cached snapshot for the portfolio.
// Returns an empty set (zero AsOf) when no snapshot has been stored.
func (r *HoldingRepository) GetHoldings(portfolioID string) (model.HoldingSet, error) {
	set := model.HoldingSet{
		PortfolioID: portfolioID,
		Positions:   make(map[string]decimal.Decimal),
		Cash:        decimal.Zero,
	}

	rows, err := r.db.Query(`
		SELECT asset_id, quantity, as_of
		FROM holding
		WHERE portfolio_id = ?
	`, portfolioID)
	if err != nil {
		return model.HoldingSet{}, fmt.Errorf("failed to query holding table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var assetID, quantityStr, asOfStr string
		if err := rows.Scan(&assetID, &quantityStr, &asOfStr); err != nil {
			return model.HoldingSet{}, fmt.Errorf("failed to scan holding table results: %w", err)
		}

		quantity, err := ParseDecimal(quantityStr)
		if err != nil {
			return model.HoldingSet{}, fmt.Errorf("failed to parse quantity: %w", err)
		}
		asOf, err := ParseTime(asOfStr)
		if err != nil {
			return model.HoldingSet{}, fmt.Errorf("failed to parse date: %w", err)
		}

		set.Positions[assetID] = quantity
		set.AsOf = asOf
	}

	if err = rows.Err(); err != nil {
		return model.HoldingSet{}, fmt.Errorf("error iterating holding table: %w", err)
	}

	var cashStr, cashAsOfStr string
	err = r.db.QueryRow(`
		SELECT amount, as_of
		FROM cash_balance
		WHERE portfolio_id = ?
	`, portfolioID).Scan(&cashStr, &cashAsOfStr)
	if err != nil && err != sql.ErrNoRows {
		return model.HoldingSet{}, fmt.Errorf("failed to scan cash_balance table results: %w", err)
	}
	if err == nil {
		set.Cash, err = ParseDecimal(cashStr)
		if err != nil {
			return model.HoldingSet{}, fmt.Errorf("failed to parse cash amount: %w", err)
		}
		if set.AsOf.IsZero() {
			set.AsOf, err = ParseTime(cashAsOfStr)
			if err != nil {
				return model.HoldingSet{}, fmt.Errorf("failed to parse date: %w", err)
			}
		}
	}

	return set, nil
}

// ReplaceHoldings atomically replaces the cached snapshot for the portfolio
// with the given set. The previous snapshot is discarded entirely so closed
// positions leave no zero rows behind.
func (r *HoldingRepository) ReplaceHoldings(set model.HoldingSet) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(`DELETE FROM holding WHERE portfolio_id = ?`, set.PortfolioID); err != nil {
		return fmt.Errorf("failed to clear holding cache: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for assetID, quantity := range set.Positions {
		_, err := tx.Exec(`
			INSERT INTO holding (id, portfolio_id, asset_id, quantity, as_of, computed_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, uuid.New().String(), set.PortfolioID, assetID, quantity.String(), formatDate(set.AsOf), now)
		if err != nil {
			return fmt.Errorf("failed to insert holding: %w", err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO cash_balance (portfolio_id, amount, as_of, computed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(portfolio_id) DO UPDATE SET
			amount = excluded.amount,
			as_of = excluded.as_of,
			computed_at = excluded.computed_at
	`, set.PortfolioID, set.Cash.String(), formatDate(set.AsOf), now)
	if err != nil {
		return fmt.Errorf("failed to upsert cash balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit holding snapshot: %w", err)
	}

	return nil
}
