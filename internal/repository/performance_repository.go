package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantfolio/analytics-engine/internal/model"
)

// PerformanceRepository provides data access methods for the
// performance_record table.
type PerformanceRepository struct {
	db *sql.DB
}

// NewPerformanceRepository creates a new PerformanceRepository with the provided database connection.
func NewPerformanceRepository(db *sql.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// UpsertRecord writes one (portfolio, date) NAV observation. Recomputation
// for an already-recorded date overwrites that record, which keeps the
// valuation operation idempotent per date.
func (r *PerformanceRepository) UpsertRecord(rec model.PerformanceRecord) (model.PerformanceRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	var dailyReturn any
	if rec.DailyReturn != nil {
		dailyReturn = *rec.DailyReturn
	}

	_, err := r.db.Exec(`
		INSERT INTO performance_record (id, portfolio_id, date, nav, daily_return)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, date) DO UPDATE SET
			nav = excluded.nav,
			daily_return = excluded.daily_return
	`, rec.ID, rec.PortfolioID, formatDate(rec.Date), rec.NAV.String(), dailyReturn)
	if err != nil {
		return model.PerformanceRecord{}, fmt.Errorf("failed to upsert performance record: %w", err)
	}

	return rec, nil
}

// GetLatestBefore retrieves the most recent record strictly before the given
// date. The boolean result reports whether such a record exists.
func (r *PerformanceRepository) GetLatestBefore(portfolioID string, date time.Time) (model.PerformanceRecord, bool, error) {
	row := r.db.QueryRow(`
		SELECT id, portfolio_id, date, nav, daily_return
		FROM performance_record
		WHERE portfolio_id = ?
		AND date < ?
		ORDER BY date DESC
		LIMIT 1
	`, portfolioID, formatDate(date))

	rec, err := scanPerformanceRecord(row)
	if err == sql.ErrNoRows {
		return model.PerformanceRecord{}, false, nil
	}
	if err != nil {
		return model.PerformanceRecord{}, false, err
	}
	return rec, true, nil
}

// GetRecords retrieves records for the portfolio within the date range,
// ordered by date ascending.
func (r *PerformanceRepository) GetRecords(portfolioID string, startDate, endDate time.Time) ([]model.PerformanceRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, portfolio_id, date, nav, daily_return
		FROM performance_record
		WHERE portfolio_id = ?
		AND date >= ?
		AND date <= ?
		ORDER BY date ASC
	`, portfolioID, formatDate(startDate), formatDate(endDate))
	if err != nil {
		return nil, fmt.Errorf("failed to query performance_record table: %w", err)
	}
	defer rows.Close()

	records := []model.PerformanceRecord{}
	for rows.Next() {
		rec, err := scanPerformanceRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating performance_record table: %w", err)
	}

	return records, nil
}

// GetReturnWindow retrieves the trailing window of defined daily returns on
// or before the given date: at most windowSize observations, oldest first.
// NULL returns (first observations) are excluded because a return is only
// defined when a prior NAV exists.
func (r *PerformanceRepository) GetReturnWindow(portfolioID string, date time.Time, windowSize int) ([]float64, error) {
	rows, err := r.db.Query(`
		SELECT daily_return
		FROM performance_record
		WHERE portfolio_id = ?
		AND date <= ?
		AND daily_return IS NOT NULL
		ORDER BY date DESC
		LIMIT ?
	`, portfolioID, formatDate(date), windowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance_record table: %w", err)
	}
	defer rows.Close()

	returns := []float64{}
	for rows.Next() {
		var ret float64
		if err := rows.Scan(&ret); err != nil {
			return nil, fmt.Errorf("failed to scan performance_record table results: %w", err)
		}
		returns = append(returns, ret)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating performance_record table: %w", err)
	}

	// Query returned newest first; restore chronological order.
	for i, j := 0, len(returns)-1; i < j; i, j = i+1, j-1 {
		returns[i], returns[j] = returns[j], returns[i]
	}

	return returns, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerformanceRecord(row rowScanner) (model.PerformanceRecord, error) {
	var rec model.PerformanceRecord
	var dateStr, navStr string
	var dailyReturn sql.NullFloat64

	err := row.Scan(&rec.ID, &rec.PortfolioID, &dateStr, &navStr, &dailyReturn)
	if err == sql.ErrNoRows {
		return model.PerformanceRecord{}, err
	}
	if err != nil {
		return model.PerformanceRecord{}, fmt.Errorf("failed to scan performance_record table results: %w", err)
	}

	rec.Date, err = ParseTime(dateStr)
	if err != nil {
		return model.PerformanceRecord{}, fmt.Errorf("failed to parse date: %w", err)
	}
	rec.NAV, err = ParseDecimal(navStr)
	if err != nil {
		return model.PerformanceRecord{}, fmt.Errorf("failed to parse NAV: %w", err)
	}
	if dailyReturn.Valid {
		v := dailyReturn.Float64
		rec.DailyReturn = &v
	}

	return rec, nil
}
