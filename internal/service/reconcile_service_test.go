package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/testutil"
)

// TestReconcileService_Reconcile tests ledger replay into holding sets.
//
// WHY: Holdings are never stored as authoritative state; they are always
// derived by replaying the ledger. Any fold error silently corrupts every
// downstream NAV, risk and scenario figure.
func TestReconcileService_Reconcile(t *testing.T) {
	t.Run("sums signed quantities per asset", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReconcileService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Signed Quantities")
		asset := testutil.CreateAsset(t, db, "AAPL", "USD")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-01", model.TransactionBuy, "10", "100")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-02", model.TransactionSell, "-4", "105")

		// Execute
		set, err := svc.Reconcile(portfolio.ID, mustDate(t, "2024-01-31"))

		// Assert
		if err != nil {
			t.Fatalf("Reconcile() returned unexpected error: %v", err)
		}
		if got := set.Positions[asset.ID]; !got.Equal(mustDec(t, "6")) {
			t.Errorf("Expected position 6, got %s", got)
		}
		if !set.Cash.IsZero() {
			t.Errorf("Expected zero cash, got %s", set.Cash)
		}
	})

	t.Run("is idempotent for the same inputs", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReconcileService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Idempotent")
		asset := testutil.CreateAsset(t, db, "MSFT", "USD")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-01", model.TransactionBuy, "3", "200")

		asOf := mustDate(t, "2024-01-31")

		// Execute
		first, err := svc.Reconcile(portfolio.ID, asOf)
		if err != nil {
			t.Fatalf("First Reconcile() returned unexpected error: %v", err)
		}
		second, err := svc.Reconcile(portfolio.ID, asOf)
		if err != nil {
			t.Fatalf("Second Reconcile() returned unexpected error: %v", err)
		}

		// Assert
		if !first.Positions[asset.ID].Equal(second.Positions[asset.ID]) {
			t.Errorf("Expected identical positions, got %s and %s",
				first.Positions[asset.ID], second.Positions[asset.ID])
		}
		if !first.Cash.Equal(second.Cash) {
			t.Errorf("Expected identical cash, got %s and %s", first.Cash, second.Cash)
		}
	})

	t.Run("removes positions that sum to zero", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReconcileService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Closed Position")
		asset := testutil.CreateAsset(t, db, "NVDA", "USD")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-01", model.TransactionBuy, "5", "500")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-10", model.TransactionSell, "-5", "520")

		// Execute
		set, err := svc.Reconcile(portfolio.ID, mustDate(t, "2024-01-31"))

		// Assert
		if err != nil {
			t.Fatalf("Reconcile() returned unexpected error: %v", err)
		}
		if _, exists := set.Positions[asset.ID]; exists {
			t.Errorf("Expected closed position to be removed, got %v", set.Positions)
		}
	})

	t.Run("rejects oversells instead of clamping", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReconcileService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Oversell")
		asset := testutil.CreateAsset(t, db, "TSLA", "USD")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-01", model.TransactionBuy, "2", "300")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-02", model.TransactionSell, "-3", "310")

		// Execute
		_, err := svc.Reconcile(portfolio.ID, mustDate(t, "2024-01-31"))

		// Assert
		if !errors.Is(err, apperrors.ErrNegativeHolding) {
			t.Errorf("Expected ErrNegativeHolding, got %v", err)
		}
	})

	t.Run("credits dividends to cash without touching quantity", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReconcileService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Dividend")
		asset := testutil.CreateAsset(t, db, "KO", "USD")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-01", model.TransactionBuy, "10", "60")
		// 10 units x 0.50 per unit
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-02-01", model.TransactionDividend, "10", "0.50")

		// Execute
		set, err := svc.Reconcile(portfolio.ID, mustDate(t, "2024-02-28"))

		// Assert
		if err != nil {
			t.Fatalf("Reconcile() returned unexpected error: %v", err)
		}
		if got := set.Positions[asset.ID]; !got.Equal(mustDec(t, "10")) {
			t.Errorf("Expected position 10, got %s", got)
		}
		if !set.Cash.Equal(mustDec(t, "5")) {
			t.Errorf("Expected cash 5, got %s", set.Cash)
		}
	})

	t.Run("debits fees from cash", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReconcileService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Fee")
		asset := testutil.CreateAsset(t, db, "VTI", "USD")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-01", model.TransactionDividend, "10", "1")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-15", model.TransactionFee, "1", "2.50")

		// Execute
		set, err := svc.Reconcile(portfolio.ID, mustDate(t, "2024-01-31"))

		// Assert
		if err != nil {
			t.Fatalf("Reconcile() returned unexpected error: %v", err)
		}
		if !set.Cash.Equal(mustDec(t, "7.50")) {
			t.Errorf("Expected cash 7.50, got %s", set.Cash)
		}
	})

	t.Run("excludes transactions after the as-of date", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReconcileService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "As Of")
		asset := testutil.CreateAsset(t, db, "AMZN", "USD")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-01", model.TransactionBuy, "1", "150")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-03-01", model.TransactionBuy, "1", "160")

		// Execute
		set, err := svc.Reconcile(portfolio.ID, mustDate(t, "2024-02-01"))

		// Assert
		if err != nil {
			t.Fatalf("Reconcile() returned unexpected error: %v", err)
		}
		if got := set.Positions[asset.ID]; !got.Equal(mustDec(t, "1")) {
			t.Errorf("Expected position 1 before future trade, got %s", got)
		}
	})

	t.Run("rejects unknown portfolio references", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReconcileService(t, db)

		// Execute
		_, err := svc.Reconcile(testutil.MakeID(), mustDate(t, "2024-01-01"))

		// Assert
		if !errors.Is(err, apperrors.ErrUnknownReference) {
			t.Errorf("Expected ErrUnknownReference, got %v", err)
		}
	})

	t.Run("rejects unknown transaction types", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReconcileService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Bad Type")
		asset := testutil.CreateAsset(t, db, "GME", "USD")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-01", "transfer", "1", "20")

		// Execute
		_, err := svc.Reconcile(portfolio.ID, mustDate(t, "2024-01-31"))

		// Assert
		if !errors.Is(err, apperrors.ErrUnknownTransactionType) {
			t.Errorf("Expected ErrUnknownTransactionType, got %v", err)
		}
	})
}

// TestReconcileService_Snapshot tests the cached holding write path.
//
// WHY: The holding table is a pure cache. A snapshot must always match a
// fresh reconciliation, otherwise reads served from the cache diverge from
// the ledger.
func TestReconcileService_Snapshot(t *testing.T) {
	t.Run("cached holdings match a fresh reconciliation", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReconcileService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Snapshot")
		asset := testutil.CreateAsset(t, db, "GOOG", "USD")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-01", model.TransactionBuy, "7", "140")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-05", model.TransactionDividend, "7", "0.20")

		asOf := mustDate(t, "2024-01-31")

		// Execute
		written, err := svc.Snapshot(portfolio.ID, asOf)
		if err != nil {
			t.Fatalf("Snapshot() returned unexpected error: %v", err)
		}
		cached, err := svc.CachedHoldings(portfolio.ID)
		if err != nil {
			t.Fatalf("CachedHoldings() returned unexpected error: %v", err)
		}

		// Assert
		if !cached.Positions[asset.ID].Equal(written.Positions[asset.ID]) {
			t.Errorf("Expected cached position %s, got %s",
				written.Positions[asset.ID], cached.Positions[asset.ID])
		}
		if !cached.Cash.Equal(written.Cash) {
			t.Errorf("Expected cached cash %s, got %s", written.Cash, cached.Cash)
		}
	})

	t.Run("replaces stale cache rows on re-snapshot", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReconcileService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Restate")
		asset := testutil.CreateAsset(t, db, "META", "USD")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-01", model.TransactionBuy, "4", "480")

		if _, err := svc.Snapshot(portfolio.ID, mustDate(t, "2024-01-02")); err != nil {
			t.Fatalf("First Snapshot() returned unexpected error: %v", err)
		}

		// A later sell closes the position entirely.
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-10", model.TransactionSell, "-4", "490")

		// Execute
		if _, err := svc.Snapshot(portfolio.ID, mustDate(t, "2024-01-31")); err != nil {
			t.Fatalf("Second Snapshot() returned unexpected error: %v", err)
		}
		cached, err := svc.CachedHoldings(portfolio.ID)
		if err != nil {
			t.Fatalf("CachedHoldings() returned unexpected error: %v", err)
		}

		// Assert
		if len(cached.Positions) != 0 {
			t.Errorf("Expected empty cached positions after close, got %v", cached.Positions)
		}
	})
}

// TestReconcileService_AddTransaction tests ledger ingestion.
//
// WHY: The ledger is append-only and everything downstream replays it, so a
// dangling portfolio or asset reference must be rejected at the door.
func TestReconcileService_AddTransaction(t *testing.T) {
	t.Run("appends an entry visible to reconciliation", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		reconcile := testutil.NewTestReconcileService(t, db)
		portfolio := testutil.CreatePortfolio(t, db, "Ledger")
		asset := testutil.CreateAsset(t, db, "LDG", "USD")

		// Execute
		txn, err := reconcile.AddTransaction(model.Transaction{
			PortfolioID: portfolio.ID,
			AssetID:     asset.ID,
			Date:        mustDate(t, "2024-01-02"),
			Type:        model.TransactionBuy,
			Quantity:    mustDec(t, "3"),
			Price:       mustDec(t, "50"),
		})

		// Assert
		if err != nil {
			t.Fatalf("AddTransaction() returned unexpected error: %v", err)
		}
		if txn.ID == "" {
			t.Error("Expected a generated transaction ID")
		}

		set, err := reconcile.Reconcile(portfolio.ID, mustDate(t, "2024-01-31"))
		if err != nil {
			t.Fatalf("Reconcile() returned unexpected error: %v", err)
		}
		if !set.Positions[asset.ID].Equal(mustDec(t, "3")) {
			t.Errorf("Expected position 3, got %s", set.Positions[asset.ID])
		}
	})

	t.Run("rejects an unknown portfolio", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		reconcile := testutil.NewTestReconcileService(t, db)
		asset := testutil.CreateAsset(t, db, "NPF", "USD")

		// Execute
		_, err := reconcile.AddTransaction(model.Transaction{
			PortfolioID: testutil.MakeID(),
			AssetID:     asset.ID,
			Date:        mustDate(t, "2024-01-02"),
			Type:        model.TransactionBuy,
			Quantity:    mustDec(t, "1"),
			Price:       mustDec(t, "10"),
		})

		// Assert
		if !errors.Is(err, apperrors.ErrUnknownReference) {
			t.Errorf("Expected ErrUnknownReference, got %v", err)
		}
	})

	t.Run("rejects an unknown asset", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		reconcile := testutil.NewTestReconcileService(t, db)
		portfolio := testutil.CreatePortfolio(t, db, "No Asset")

		// Execute
		_, err := reconcile.AddTransaction(model.Transaction{
			PortfolioID: portfolio.ID,
			AssetID:     testutil.MakeID(),
			Date:        mustDate(t, "2024-01-02"),
			Type:        model.TransactionBuy,
			Quantity:    mustDec(t, "1"),
			Price:       mustDec(t, "10"),
		})

		// Assert
		if !errors.Is(err, apperrors.ErrUnknownReference) {
			t.Errorf("Expected ErrUnknownReference, got %v", err)
		}
	})

	t.Run("rejects an unknown type before touching the ledger", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		reconcile := testutil.NewTestReconcileService(t, db)
		portfolio := testutil.CreatePortfolio(t, db, "Bad Type")
		asset := testutil.CreateAsset(t, db, "BDT", "USD")

		// Execute
		_, err := reconcile.AddTransaction(model.Transaction{
			PortfolioID: portfolio.ID,
			AssetID:     asset.ID,
			Date:        mustDate(t, "2024-01-02"),
			Type:        "transfer",
			Quantity:    mustDec(t, "1"),
			Price:       mustDec(t, "10"),
		})

		// Assert
		if !errors.Is(err, apperrors.ErrUnknownTransactionType) {
			t.Errorf("Expected ErrUnknownTransactionType, got %v", err)
		}
	})
}

func mustDate(t *testing.T, date string) time.Time {
	t.Helper()

	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("Failed to parse date %q: %v", date, err)
	}
	return parsed
}

func mustDec(t *testing.T, value string) decimal.Decimal {
	t.Helper()

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("Failed to parse decimal %q: %v", value, err)
	}
	return parsed
}
