package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantfolio/analytics-engine/internal/model"
)

// RiskMetricRepository provides data access methods for the risk_metric table.
type RiskMetricRepository struct {
	db *sql.DB
}

// NewRiskMetricRepository creates a new RiskMetricRepository with the provided database connection.
func NewRiskMetricRepository(db *sql.DB) *RiskMetricRepository {
	return &RiskMetricRepository{db: db}
}

// UpsertMetric writes one risk figure. Recomputation for the same
// (portfolio, date, metric type) key overwrites the prior value.
func (r *RiskMetricRepository) UpsertMetric(m model.RiskMetric) (model.RiskMetric, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.ComputedAt.IsZero() {
		m.ComputedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO risk_metric (id, portfolio_id, date, metric_type, value, computed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, date, metric_type) DO UPDATE SET
			value = excluded.value,
			computed_at = excluded.computed_at
	`, m.ID, m.PortfolioID, formatDate(m.Date), m.MetricType, m.Value, m.ComputedAt.Format(time.RFC3339))
	if err != nil {
		return model.RiskMetric{}, fmt.Errorf("failed to upsert risk metric: %w", err)
	}

	return m, nil
}

// GetMetrics retrieves stored risk figures for the portfolio, newest first.
func (r *RiskMetricRepository) GetMetrics(portfolioID string) ([]model.RiskMetric, error) {
	rows, err := r.db.Query(`
		SELECT id, portfolio_id, date, metric_type, value, computed_at
		FROM risk_metric
		WHERE portfolio_id = ?
		ORDER BY date DESC, metric_type ASC
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk_metric table: %w", err)
	}
	defer rows.Close()

	metrics := []model.RiskMetric{}
	for rows.Next() {
		var m model.RiskMetric
		var dateStr, computedAtStr string

		if err := rows.Scan(&m.ID, &m.PortfolioID, &dateStr, &m.MetricType, &m.Value, &computedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan risk_metric table results: %w", err)
		}

		m.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		m.ComputedAt, err = ParseTime(computedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		metrics = append(metrics, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating risk_metric table: %w", err)
	}

	return metrics, nil
}
