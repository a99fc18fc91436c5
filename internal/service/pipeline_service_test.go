package service_test

import (
	"context"
	"testing"

	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/testutil"
)

// TestPipelineService_RunAll tests the concurrent batch run.
//
// WHY: Portfolios are independent; the pipeline fans out across them but
// one portfolio's data problem must never block or corrupt its siblings.
func TestPipelineService_RunAll(t *testing.T) {
	t.Run("records performance for every active portfolio", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		cfg := testutil.DefaultEngineConfig()
		pipeline := testutil.NewTestPipelineService(t, db, cfg)
		valuation := testutil.NewTestValuationService(t, db, cfg)

		p1 := testutil.CreatePortfolio(t, db, "Pipeline One")
		p2 := testutil.CreatePortfolio(t, db, "Pipeline Two")
		a1 := testutil.CreateAsset(t, db, "PLA", "USD")
		a2 := testutil.CreateAsset(t, db, "PLB", "USD")

		for _, day := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
			testutil.CreatePrice(t, db, a1.ID, day, "10")
			testutil.CreatePrice(t, db, a2.ID, day, "20")
		}
		testutil.CreateTransaction(t, db, p1.ID, a1.ID, "2024-01-01", model.TransactionBuy, "5", "10")
		testutil.CreateTransaction(t, db, p2.ID, a2.ID, "2024-01-01", model.TransactionBuy, "3", "20")

		// Execute
		err := pipeline.RunAll(context.Background(), mustDate(t, "2024-01-01"), mustDate(t, "2024-01-03"))

		// Assert
		if err != nil {
			t.Fatalf("RunAll() returned unexpected error: %v", err)
		}
		for _, p := range []model.Portfolio{p1, p2} {
			records, err := valuation.StoredRecords(p.ID, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-03"))
			if err != nil {
				t.Fatalf("StoredRecords(%s) returned unexpected error: %v", p.Name, err)
			}
			if len(records) != 3 {
				t.Errorf("Expected 3 records for %s, got %d", p.Name, len(records))
			}
		}
	})

	t.Run("one failing portfolio does not block the others", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		cfg := testutil.DefaultEngineConfig()
		pipeline := testutil.NewTestPipelineService(t, db, cfg)
		valuation := testutil.NewTestValuationService(t, db, cfg)

		healthy := testutil.CreatePortfolio(t, db, "Healthy")
		broken := testutil.CreatePortfolio(t, db, "Broken")
		priced := testutil.CreateAsset(t, db, "OK", "USD")
		unpriced := testutil.CreateAsset(t, db, "NOPX", "USD")

		testutil.CreatePrice(t, db, priced.ID, "2024-01-01", "10")
		testutil.CreateTransaction(t, db, healthy.ID, priced.ID, "2024-01-01", model.TransactionBuy, "1", "10")
		// No market data at all for this asset.
		testutil.CreateTransaction(t, db, broken.ID, unpriced.ID, "2024-01-01", model.TransactionBuy, "1", "10")

		// Execute
		err := pipeline.RunAll(context.Background(), mustDate(t, "2024-01-01"), mustDate(t, "2024-01-01"))

		// Assert
		if err == nil {
			t.Error("Expected an error naming the broken portfolio, got nil")
		}
		records, rerr := valuation.StoredRecords(healthy.ID, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-01"))
		if rerr != nil {
			t.Fatalf("StoredRecords() returned unexpected error: %v", rerr)
		}
		if len(records) != 1 {
			t.Errorf("Expected the healthy portfolio to be recorded, got %d records", len(records))
		}
	})

	t.Run("skips archived portfolios", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		cfg := testutil.DefaultEngineConfig()
		pipeline := testutil.NewTestPipelineService(t, db, cfg)
		valuation := testutil.NewTestValuationService(t, db, cfg)

		archived := testutil.NewPortfolio().WithName("Archived").Archived().Build(t, db)
		asset := testutil.CreateAsset(t, db, "ARC", "USD")
		testutil.CreateTransaction(t, db, archived.ID, asset.ID, "2024-01-01", model.TransactionBuy, "1", "10")
		testutil.CreatePrice(t, db, asset.ID, "2024-01-01", "10")

		// Execute
		if err := pipeline.RunAll(context.Background(), mustDate(t, "2024-01-01"), mustDate(t, "2024-01-01")); err != nil {
			t.Fatalf("RunAll() returned unexpected error: %v", err)
		}

		// Assert
		records, err := valuation.StoredRecords(archived.ID, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-01"))
		if err != nil {
			t.Fatalf("StoredRecords() returned unexpected error: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("Expected no records for the archived portfolio, got %d", len(records))
		}
	})
}

// TestPipelineService_RunDaily tests the scheduler entry point.
//
// WHY: The nightly job must only fill in the dates since the last record,
// not re-run the whole history every night.
func TestPipelineService_RunDaily(t *testing.T) {
	t.Run("advances from the day after the latest record", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		cfg := testutil.DefaultEngineConfig()
		pipeline := testutil.NewTestPipelineService(t, db, cfg)
		valuation := testutil.NewTestValuationService(t, db, cfg)

		portfolio := testutil.CreatePortfolio(t, db, "Daily")
		asset := testutil.CreateAsset(t, db, "DLY", "USD")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-01", model.TransactionBuy, "1", "10")
		for _, day := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
			testutil.CreatePrice(t, db, asset.ID, day, "10")
		}

		if _, err := valuation.ComputeRange(portfolio.ID, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-01")); err != nil {
			t.Fatalf("ComputeRange() returned unexpected error: %v", err)
		}

		// Execute
		if err := pipeline.RunDaily(context.Background(), mustDate(t, "2024-01-03")); err != nil {
			t.Fatalf("RunDaily() returned unexpected error: %v", err)
		}

		// Assert
		records, err := valuation.StoredRecords(portfolio.ID, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-03"))
		if err != nil {
			t.Fatalf("StoredRecords() returned unexpected error: %v", err)
		}
		if len(records) != 3 {
			t.Errorf("Expected 3 records after the daily run, got %d", len(records))
		}
	})

	t.Run("does nothing when already up to date", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		cfg := testutil.DefaultEngineConfig()
		pipeline := testutil.NewTestPipelineService(t, db, cfg)
		valuation := testutil.NewTestValuationService(t, db, cfg)

		portfolio := testutil.CreatePortfolio(t, db, "Up To Date")
		asset := testutil.CreateAsset(t, db, "UTD", "USD")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-01", model.TransactionBuy, "1", "10")
		testutil.CreatePrice(t, db, asset.ID, "2024-01-01", "10")

		if _, err := valuation.ComputeRange(portfolio.ID, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-01")); err != nil {
			t.Fatalf("ComputeRange() returned unexpected error: %v", err)
		}

		// Execute
		if err := pipeline.RunDaily(context.Background(), mustDate(t, "2024-01-01")); err != nil {
			t.Fatalf("RunDaily() returned unexpected error: %v", err)
		}

		// Assert
		records, err := valuation.StoredRecords(portfolio.ID, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-01"))
		if err != nil {
			t.Fatalf("StoredRecords() returned unexpected error: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("Expected the single existing record, got %d", len(records))
		}
	})
}
