package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantfolio/analytics-engine/internal/model"
)

// TransactionRepository provides data access methods for the txn table.
// The ledger is append-only: rows are inserted once and never updated.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// GetTransactionsThrough retrieves all ledger entries for the portfolio with
// trade date on or before asOf, ordered by trade date then insertion order.
// The (created_at, id) tiebreak keeps replay deterministic for same-day
// entries.
func (r *TransactionRepository) GetTransactionsThrough(portfolioID string, asOf time.Time) ([]model.Transaction, error) {
	rows, err := r.db.Query(`
		SELECT id, portfolio_id, asset_id, date, type, quantity, price, created_at
		FROM txn
		WHERE portfolio_id = ?
		AND date <= ?
		ORDER BY date ASC, created_at ASC, id ASC
	`, portfolioID, formatDate(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to query txn table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		var dateStr, quantityStr, priceStr, createdAtStr string

		err := rows.Scan(
			&t.ID,
			&t.PortfolioID,
			&t.AssetID,
			&dateStr,
			&t.Type,
			&quantityStr,
			&priceStr,
			&createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan txn table results: %w", err)
		}

		t.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		t.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		t.Quantity, err = ParseDecimal(quantityStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse quantity: %w", err)
		}
		t.Price, err = ParseDecimal(priceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price: %w", err)
		}

		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating txn table: %w", err)
	}

	return transactions, nil
}

// GetOldestTransactionDate finds the earliest trade date for the portfolio.
// Returns time.Time{} (zero value) when the ledger is empty.
func (r *TransactionRepository) GetOldestTransactionDate(portfolioID string) time.Time {
	var oldestDateStr sql.NullString

	err := r.db.QueryRow(`
		SELECT MIN(date)
		FROM txn
		WHERE portfolio_id = ?
	`, portfolioID).Scan(&oldestDateStr)
	if err != nil || !oldestDateStr.Valid {
		return time.Time{}
	}

	oldestDate, err := time.Parse("2006-01-02", oldestDateStr.String)
	if err != nil {
		return time.Time{}
	}

	return oldestDate
}

// AddTransaction appends one ledger entry. Created rows are immutable.
func (r *TransactionRepository) AddTransaction(t model.Transaction) (model.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO txn (id, portfolio_id, asset_id, date, type, quantity, price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.PortfolioID,
		t.AssetID,
		formatDate(t.Date),
		t.Type,
		t.Quantity.String(),
		t.Price.String(),
		t.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return t, nil
}
