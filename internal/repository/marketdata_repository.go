package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/analytics-engine/internal/model"
)

// MarketDataRepository provides data access methods for the market_data and
// exchange_rate tables. Both are read-only from the engine's perspective;
// the write methods exist for the ingestion collaborator and for tests.
type MarketDataRepository struct {
	db *sql.DB
}

// NewMarketDataRepository creates a new MarketDataRepository with the provided database connection.
func NewMarketDataRepository(db *sql.DB) *MarketDataRepository {
	return &MarketDataRepository{db: db}
}

// GetCloses retrieves close prices for the given assets within the date
// range, sorted by date ascending and grouped by asset ID.
func (r *MarketDataRepository) GetCloses(assetIDs []string, startDate, endDate time.Time) (map[string][]model.PricePoint, error) {
	if len(assetIDs) == 0 {
		return make(map[string][]model.PricePoint), nil
	}

	placeholders := make([]string, len(assetIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT asset_id, date, close
		FROM market_data
		WHERE asset_id IN (` + strings.Join(placeholders, ",") + `)
		AND date >= ?
		AND date <= ?
		ORDER BY date ASC
	`

	args := make([]any, 0, len(assetIDs)+2)
	for _, id := range assetIDs {
		args = append(args, id)
	}
	args = append(args, formatDate(startDate), formatDate(endDate))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query market_data table: %w", err)
	}
	defer rows.Close()

	closesByAsset := make(map[string][]model.PricePoint)
	for rows.Next() {
		var assetID, dateStr, closeStr string
		if err := rows.Scan(&assetID, &dateStr, &closeStr); err != nil {
			return nil, fmt.Errorf("failed to scan market_data table results: %w", err)
		}

		var p model.PricePoint
		p.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		p.Close, err = ParseDecimal(closeStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse close price: %w", err)
		}

		closesByAsset[assetID] = append(closesByAsset[assetID], p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating market_data table: %w", err)
	}

	return closesByAsset, nil
}

// GetCloseOnOrBefore finds the most recent close for the asset on or before
// the target date, looking back at most maxLookbackDays calendar days
// (0 means the exact date only). The boolean result reports whether a usable
// close was found; the policy decision on a missing close belongs to the
// caller.
func (r *MarketDataRepository) GetCloseOnOrBefore(assetID string, date time.Time, maxLookbackDays int) (decimal.Decimal, bool, error) {
	earliest := date.AddDate(0, 0, -maxLookbackDays)

	var closeStr string
	err := r.db.QueryRow(`
		SELECT close
		FROM market_data
		WHERE asset_id = ?
		AND date <= ?
		AND date >= ?
		ORDER BY date DESC
		LIMIT 1
	`, assetID, formatDate(date), formatDate(earliest)).Scan(&closeStr)
	if err == sql.ErrNoRows {
		return decimal.Decimal{}, false, nil
	}
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("failed to scan market_data table results: %w", err)
	}

	close, err := ParseDecimal(closeStr)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("failed to parse close price: %w", err)
	}

	return close, true, nil
}

// GetRateOnOrBefore finds the most recent conversion rate between the two
// currencies on or before the target date within the lookback bound.
// The boolean result reports whether a usable rate was found.
func (r *MarketDataRepository) GetRateOnOrBefore(fromCurrency, toCurrency string, date time.Time, maxLookbackDays int) (decimal.Decimal, bool, error) {
	earliest := date.AddDate(0, 0, -maxLookbackDays)

	var rateStr string
	err := r.db.QueryRow(`
		SELECT rate
		FROM exchange_rate
		WHERE from_currency = ?
		AND to_currency = ?
		AND date <= ?
		AND date >= ?
		ORDER BY date DESC
		LIMIT 1
	`, fromCurrency, toCurrency, formatDate(date), formatDate(earliest)).Scan(&rateStr)
	if err == sql.ErrNoRows {
		return decimal.Decimal{}, false, nil
	}
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("failed to scan exchange_rate table results: %w", err)
	}

	rate, err := ParseDecimal(rateStr)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("failed to parse rate: %w", err)
	}

	return rate, true, nil
}

// AddMarketData inserts one EOD observation.
func (r *MarketDataRepository) AddMarketData(p model.MarketDataPoint) (model.MarketDataPoint, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	_, err := r.db.Exec(`
		INSERT INTO market_data (id, asset_id, date, open, high, low, close, volume, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.AssetID, formatDate(p.Date), p.Open, p.High, p.Low, p.Close.String(), p.Volume, p.Source)
	if err != nil {
		return model.MarketDataPoint{}, fmt.Errorf("failed to insert market data: %w", err)
	}

	return p, nil
}

// AddExchangeRate inserts one conversion rate observation.
func (r *MarketDataRepository) AddExchangeRate(e model.ExchangeRate) (model.ExchangeRate, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	_, err := r.db.Exec(`
		INSERT INTO exchange_rate (id, from_currency, to_currency, rate, date)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.FromCurrency, e.ToCurrency, e.Rate.String(), formatDate(e.Date))
	if err != nil {
		return model.ExchangeRate{}, fmt.Errorf("failed to insert exchange rate: %w", err)
	}

	return e, nil
}
