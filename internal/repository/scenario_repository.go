package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
	"github.com/quantfolio/analytics-engine/internal/model"
)

// ScenarioRepository provides data access methods for the scenario and
// scenario_result tables. Result rows are append-only: every run keeps its
// own rows keyed by run timestamp.
type ScenarioRepository struct {
	db *sql.DB
}

// NewScenarioRepository creates a new ScenarioRepository with the provided database connection.
func NewScenarioRepository(db *sql.DB) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

// GetScenarioOnID retrieves a single scenario by its ID.
// Returns apperrors.ErrScenarioNotFound when no row matches.
func (r *ScenarioRepository) GetScenarioOnID(scenarioID string) (model.Scenario, error) {
	var s model.Scenario
	var description sql.NullString
	err := r.db.QueryRow(`
		SELECT id, name, description
		FROM scenario
		WHERE id = ?
	`, scenarioID).Scan(&s.ID, &s.Name, &description)
	if err == sql.ErrNoRows {
		return model.Scenario{}, apperrors.ErrScenarioNotFound
	}
	if err != nil {
		return model.Scenario{}, fmt.Errorf("failed to scan scenario table results: %w", err)
	}
	s.Description = description.String
	return s, nil
}

// CreateScenario inserts a new scenario and returns it with its generated ID.
func (r *ScenarioRepository) CreateScenario(s model.Scenario) (model.Scenario, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	_, err := r.db.Exec(`
		INSERT INTO scenario (id, name, description)
		VALUES (?, ?, ?)
	`, s.ID, s.Name, s.Description)
	if err != nil {
		return model.Scenario{}, wrapInsertError("scenario", err)
	}

	return s, nil
}

// AddResults appends the result rows of one scenario run.
func (r *ScenarioRepository) AddResults(results []model.ScenarioResult) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, res := range results {
		if res.ID == "" {
			res.ID = uuid.New().String()
		}
		_, err := tx.Exec(`
			INSERT INTO scenario_result (id, portfolio_id, scenario_id, metric_type, value, run_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, res.ID, res.PortfolioID, res.ScenarioID, res.MetricType, res.Value, res.RunAt.Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to insert scenario result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scenario results: %w", err)
	}

	return nil
}

// GetResults retrieves all scenario results for the portfolio, newest run first.
func (r *ScenarioRepository) GetResults(portfolioID string) ([]model.ScenarioResult, error) {
	rows, err := r.db.Query(`
		SELECT id, portfolio_id, scenario_id, metric_type, value, run_at
		FROM scenario_result
		WHERE portfolio_id = ?
		ORDER BY run_at DESC, metric_type ASC
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenario_result table: %w", err)
	}
	defer rows.Close()

	results := []model.ScenarioResult{}
	for rows.Next() {
		var res model.ScenarioResult
		var runAtStr string

		if err := rows.Scan(&res.ID, &res.PortfolioID, &res.ScenarioID, &res.MetricType, &res.Value, &runAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan scenario_result table results: %w", err)
		}

		res.RunAt, err = ParseTime(runAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		results = append(results, res)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scenario_result table: %w", err)
	}

	return results, nil
}
