package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
	"github.com/quantfolio/analytics-engine/internal/model"
)

// AssetRepository provides data access methods for the asset table.
type AssetRepository struct {
	db *sql.DB
}

// NewAssetRepository creates a new AssetRepository with the provided database connection.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// GetAssets retrieves all assets ordered by symbol.
func (r *AssetRepository) GetAssets() ([]model.Asset, error) {
	rows, err := r.db.Query(`
		SELECT id, symbol, name, type, currency
		FROM asset
		ORDER BY symbol ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset table: %w", err)
	}
	defer rows.Close()

	assets := []model.Asset{}
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Name, &a.Type, &a.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan asset table results: %w", err)
		}
		assets = append(assets, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset table: %w", err)
	}

	return assets, nil
}

// GetAssetOnID retrieves a single asset by its ID.
// Returns apperrors.ErrAssetNotFound when no row matches.
func (r *AssetRepository) GetAssetOnID(assetID string) (model.Asset, error) {
	var a model.Asset
	err := r.db.QueryRow(`
		SELECT id, symbol, name, type, currency
		FROM asset
		WHERE id = ?
	`, assetID).Scan(&a.ID, &a.Symbol, &a.Name, &a.Type, &a.Currency)
	if err == sql.ErrNoRows {
		return model.Asset{}, apperrors.ErrAssetNotFound
	}
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to scan asset table results: %w", err)
	}
	return a, nil
}

// GetAssetsOnIDs retrieves the given assets keyed by ID. Missing IDs are
// simply absent from the result map.
func (r *AssetRepository) GetAssetsOnIDs(assetIDs []string) (map[string]model.Asset, error) {
	if len(assetIDs) == 0 {
		return make(map[string]model.Asset), nil
	}

	placeholders := make([]string, len(assetIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT id, symbol, name, type, currency
		FROM asset
		WHERE id IN (` + strings.Join(placeholders, ",") + `)
	`

	args := make([]any, len(assetIDs))
	for i, id := range assetIDs {
		args[i] = id
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset table: %w", err)
	}
	defer rows.Close()

	assets := make(map[string]model.Asset, len(assetIDs))
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Name, &a.Type, &a.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan asset table results: %w", err)
		}
		assets[a.ID] = a
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset table: %w", err)
	}

	return assets, nil
}

// CreateAsset inserts a new asset and returns it with its generated ID.
func (r *AssetRepository) CreateAsset(a model.Asset) (model.Asset, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	_, err := r.db.Exec(`
		INSERT INTO asset (id, symbol, name, type, currency)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.Symbol, a.Name, a.Type, a.Currency)
	if err != nil {
		return model.Asset{}, wrapInsertError("asset", err)
	}

	return a, nil
}
