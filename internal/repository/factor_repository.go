package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
	"github.com/quantfolio/analytics-engine/internal/model"
)

// FactorRepository provides data access methods for the factor and
// factor_value tables.
type FactorRepository struct {
	db *sql.DB
}

// NewFactorRepository creates a new FactorRepository with the provided database connection.
func NewFactorRepository(db *sql.DB) *FactorRepository {
	return &FactorRepository{db: db}
}

// GetFactorOnID retrieves a single factor by its ID.
// Returns apperrors.ErrFactorNotFound when no row matches.
func (r *FactorRepository) GetFactorOnID(factorID string) (model.Factor, error) {
	var f model.Factor
	var category sql.NullString
	err := r.db.QueryRow(`
		SELECT id, name, category
		FROM factor
		WHERE id = ?
	`, factorID).Scan(&f.ID, &f.Name, &category)
	if err == sql.ErrNoRows {
		return model.Factor{}, apperrors.ErrFactorNotFound
	}
	if err != nil {
		return model.Factor{}, fmt.Errorf("failed to scan factor table results: %w", err)
	}
	f.Category = category.String
	return f, nil
}

// GetFactorValuesThrough retrieves the factor's time series with dates on or
// before the given date, ordered ascending.
func (r *FactorRepository) GetFactorValuesThrough(factorID string, through time.Time) ([]model.FactorValue, error) {
	rows, err := r.db.Query(`
		SELECT id, factor_id, date, value
		FROM factor_value
		WHERE factor_id = ?
		AND date <= ?
		ORDER BY date ASC
	`, factorID, formatDate(through))
	if err != nil {
		return nil, fmt.Errorf("failed to query factor_value table: %w", err)
	}
	defer rows.Close()

	values := []model.FactorValue{}
	for rows.Next() {
		var v model.FactorValue
		var dateStr string
		if err := rows.Scan(&v.ID, &v.FactorID, &dateStr, &v.Value); err != nil {
			return nil, fmt.Errorf("failed to scan factor_value table results: %w", err)
		}
		v.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		values = append(values, v)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating factor_value table: %w", err)
	}

	return values, nil
}

// CreateFactor inserts a new factor and returns it with its generated ID.
func (r *FactorRepository) CreateFactor(f model.Factor) (model.Factor, error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}

	_, err := r.db.Exec(`
		INSERT INTO factor (id, name, category)
		VALUES (?, ?, ?)
	`, f.ID, f.Name, f.Category)
	if err != nil {
		return model.Factor{}, wrapInsertError("factor", err)
	}

	return f, nil
}

// AddFactorValue inserts one observation into the factor's time series.
func (r *FactorRepository) AddFactorValue(v model.FactorValue) (model.FactorValue, error) {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}

	_, err := r.db.Exec(`
		INSERT INTO factor_value (id, factor_id, date, value)
		VALUES (?, ?, ?, ?)
	`, v.ID, v.FactorID, formatDate(v.Date), v.Value)
	if err != nil {
		return model.FactorValue{}, fmt.Errorf("failed to insert factor value: %w", err)
	}

	return v, nil
}
