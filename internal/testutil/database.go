package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA timezone = 'UTC'",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the production migrations.
//
//nolint:funlen // Database schema DDL
func createTestSchema(db *sql.DB) error {
	schema := `
		-- Asset table
		CREATE TABLE asset (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			symbol VARCHAR(20) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			type VARCHAR(20) NOT NULL,
			currency VARCHAR(3) NOT NULL
		);

		-- Market data table
		CREATE TABLE market_data (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			asset_id VARCHAR(36) NOT NULL,
			date DATE NOT NULL,
			open FLOAT,
			high FLOAT,
			low FLOAT,
			close TEXT NOT NULL,
			volume INTEGER,
			source VARCHAR(50),
			FOREIGN KEY(asset_id) REFERENCES asset(id),
			CONSTRAINT unique_market_data UNIQUE (asset_id, date)
		);

		-- Exchange rate table
		CREATE TABLE exchange_rate (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			from_currency VARCHAR(3) NOT NULL,
			to_currency VARCHAR(3) NOT NULL,
			rate TEXT NOT NULL,
			date DATE NOT NULL,
			CONSTRAINT unique_exchange_rate UNIQUE (from_currency, to_currency, date)
		);

		-- Factor table
		CREATE TABLE factor (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE,
			category VARCHAR(50)
		);

		-- Factor value table
		CREATE TABLE factor_value (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			factor_id VARCHAR(36) NOT NULL,
			date DATE NOT NULL,
			value FLOAT NOT NULL,
			FOREIGN KEY(factor_id) REFERENCES factor(id) ON DELETE CASCADE,
			CONSTRAINT unique_factor_value UNIQUE (factor_id, date)
		);

		-- Portfolio table
		CREATE TABLE portfolio (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE,
			base_currency VARCHAR(3) NOT NULL,
			description TEXT,
			is_archived BOOLEAN DEFAULT FALSE NOT NULL
		);

		-- Transaction ledger table
		CREATE TABLE txn (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio_id VARCHAR(36) NOT NULL,
			asset_id VARCHAR(36) NOT NULL,
			date DATE NOT NULL,
			type VARCHAR(10) NOT NULL,
			quantity TEXT NOT NULL,
			price TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE,
			FOREIGN KEY(asset_id) REFERENCES asset(id)
		);

		-- Holding cache table
		CREATE TABLE holding (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio_id VARCHAR(36) NOT NULL,
			asset_id VARCHAR(36) NOT NULL,
			quantity TEXT NOT NULL,
			as_of DATE NOT NULL,
			computed_at DATETIME DEFAULT CURRENT_TIMESTAMP NOT NULL,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE,
			FOREIGN KEY(asset_id) REFERENCES asset(id),
			CONSTRAINT unique_holding UNIQUE (portfolio_id, asset_id)
		);

		-- Cash balance table
		CREATE TABLE cash_balance (
			portfolio_id VARCHAR(36) NOT NULL PRIMARY KEY,
			amount TEXT NOT NULL,
			as_of DATE NOT NULL,
			computed_at DATETIME DEFAULT CURRENT_TIMESTAMP NOT NULL,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE
		);

		-- Performance record table
		CREATE TABLE performance_record (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio_id VARCHAR(36) NOT NULL,
			date DATE NOT NULL,
			nav TEXT NOT NULL,
			daily_return FLOAT,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE,
			CONSTRAINT unique_performance_record UNIQUE (portfolio_id, date)
		);

		-- Risk metric table
		CREATE TABLE risk_metric (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio_id VARCHAR(36) NOT NULL,
			date DATE NOT NULL,
			metric_type VARCHAR(20) NOT NULL,
			value FLOAT NOT NULL,
			computed_at DATETIME DEFAULT CURRENT_TIMESTAMP NOT NULL,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE,
			CONSTRAINT unique_risk_metric UNIQUE (portfolio_id, date, metric_type)
		);

		-- Scenario table
		CREATE TABLE scenario (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE,
			description TEXT
		);

		-- Scenario result table
		CREATE TABLE scenario_result (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio_id VARCHAR(36) NOT NULL,
			scenario_id VARCHAR(36) NOT NULL,
			metric_type VARCHAR(20) NOT NULL,
			value FLOAT NOT NULL,
			run_at DATETIME NOT NULL,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE,
			FOREIGN KEY(scenario_id) REFERENCES scenario(id) ON DELETE CASCADE
		);
	`

	_, err := db.Exec(schema)
	return err
}
