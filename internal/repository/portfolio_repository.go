package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
	"github.com/quantfolio/analytics-engine/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio table.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetPortfolios retrieves portfolios matching the filter, ordered by name.
func (r *PortfolioRepository) GetPortfolios(filter model.PortfolioFilter) ([]model.Portfolio, error) {
	query := `
		SELECT id, name, base_currency, description, is_archived
		FROM portfolio
	`
	if !filter.IncludeArchived {
		query += ` WHERE is_archived = FALSE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		var p model.Portfolio
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.BaseCurrency, &description, &p.IsArchived); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio table results: %w", err)
		}
		p.Description = description.String
		portfolios = append(portfolios, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return portfolios, nil
}

// GetPortfolioOnID retrieves a single portfolio by its ID.
// Returns apperrors.ErrPortfolioNotFound when no row matches.
func (r *PortfolioRepository) GetPortfolioOnID(portfolioID string) (model.Portfolio, error) {
	var p model.Portfolio
	var description sql.NullString
	err := r.db.QueryRow(`
		SELECT id, name, base_currency, description, is_archived
		FROM portfolio
		WHERE id = ?
	`, portfolioID).Scan(&p.ID, &p.Name, &p.BaseCurrency, &description, &p.IsArchived)
	if err == sql.ErrNoRows {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to scan portfolio table results: %w", err)
	}
	p.Description = description.String
	return p, nil
}

// CreatePortfolio inserts a new portfolio and returns it with its generated ID.
func (r *PortfolioRepository) CreatePortfolio(p model.Portfolio) (model.Portfolio, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	_, err := r.db.Exec(`
		INSERT INTO portfolio (id, name, base_currency, description, is_archived)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.BaseCurrency, p.Description, p.IsArchived)
	if err != nil {
		return model.Portfolio{}, wrapInsertError("portfolio", err)
	}

	return p, nil
}

// DeletePortfolio removes a portfolio. Holdings, transactions and derived
// rows cascade through foreign keys; assets and factors are shared
// reference data and remain.
func (r *PortfolioRepository) DeletePortfolio(portfolioID string) error {
	result, err := r.db.Exec(`DELETE FROM portfolio WHERE id = ?`, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrPortfolioNotFound
	}

	return nil
}
