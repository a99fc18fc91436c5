package service_test

import (
	"errors"
	"testing"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
	"github.com/quantfolio/analytics-engine/internal/testutil"
)

// TestFactorService_Align tests the nearest-prior factor join.
//
// WHY: Using a factor value observed after the portfolio date leaks future
// information into exposure regressions. The join must only ever look
// backwards, and only within the configured staleness bound.
func TestFactorService_Align(t *testing.T) {
	t.Run("pairs each date with the nearest prior observation", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestFactorService(t, db, testutil.DefaultEngineConfig())

		portfolio := testutil.CreatePortfolio(t, db, "Align")
		factor := testutil.CreateFactor(t, db, "Rates")

		ret := 0.01
		testutil.CreatePerformanceRecord(t, db, portfolio.ID, "2024-01-02", "100", nil)
		testutil.CreatePerformanceRecord(t, db, portfolio.ID, "2024-01-03", "101", &ret)
		testutil.CreatePerformanceRecord(t, db, portfolio.ID, "2024-01-05", "102", &ret)

		testutil.CreateFactorValue(t, db, factor.ID, "2024-01-01", 4.25)
		testutil.CreateFactorValue(t, db, factor.ID, "2024-01-04", 4.50)

		// Execute
		points, err := svc.Align(factor.ID, portfolio.ID, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-31"))

		// Assert
		if err != nil {
			t.Fatalf("Align() returned unexpected error: %v", err)
		}
		if len(points) != 3 {
			t.Fatalf("Expected 3 aligned points, got %d", len(points))
		}
		if points[0].Value != 4.25 || points[1].Value != 4.25 {
			t.Errorf("Expected the Jan 1 observation for the first two dates, got %v and %v",
				points[0].Value, points[1].Value)
		}
		if points[2].Value != 4.50 {
			t.Errorf("Expected the Jan 4 observation for Jan 5, got %v", points[2].Value)
		}
		for _, p := range points {
			if p.ObservedOn.After(p.Date) {
				t.Errorf("Observation %s is after portfolio date %s", p.ObservedOn, p.Date)
			}
		}
	})

	t.Run("never uses an observation from the future", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestFactorService(t, db, testutil.DefaultEngineConfig())

		portfolio := testutil.CreatePortfolio(t, db, "No Lookahead")
		factor := testutil.CreateFactor(t, db, "Credit")

		testutil.CreatePerformanceRecord(t, db, portfolio.ID, "2024-01-02", "100", nil)
		// The only factor observation is after the portfolio date.
		testutil.CreateFactorValue(t, db, factor.ID, "2024-01-03", 1.5)

		// Execute
		_, err := svc.Align(factor.ID, portfolio.ID, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-02"))

		// Assert
		if !errors.Is(err, apperrors.ErrInsufficientHistory) {
			t.Errorf("Expected ErrInsufficientHistory, got %v", err)
		}
	})

	t.Run("omits dates whose nearest observation is too stale", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		cfg := testutil.DefaultEngineConfig()
		cfg.FactorLookbackDays = 2
		svc := testutil.NewTestFactorService(t, db, cfg)

		portfolio := testutil.CreatePortfolio(t, db, "Stale")
		factor := testutil.CreateFactor(t, db, "Momentum")

		ret := 0.005
		testutil.CreatePerformanceRecord(t, db, portfolio.ID, "2024-01-02", "100", nil)
		testutil.CreatePerformanceRecord(t, db, portfolio.ID, "2024-01-08", "101", &ret)

		testutil.CreateFactorValue(t, db, factor.ID, "2024-01-01", 0.8)

		// Execute
		points, err := svc.Align(factor.ID, portfolio.ID, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-31"))

		// Assert: Jan 2 is 1 day from the observation, Jan 8 is 7 days.
		if err != nil {
			t.Fatalf("Align() returned unexpected error: %v", err)
		}
		if len(points) != 1 {
			t.Fatalf("Expected 1 aligned point, got %d", len(points))
		}
		if !points[0].Date.Equal(mustDate(t, "2024-01-02")) {
			t.Errorf("Expected the Jan 2 date to survive, got %s", points[0].Date)
		}
	})

	t.Run("carries the portfolio return onto the aligned point", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestFactorService(t, db, testutil.DefaultEngineConfig())

		portfolio := testutil.CreatePortfolio(t, db, "With Returns")
		factor := testutil.CreateFactor(t, db, "Value")

		ret := 0.02
		testutil.CreatePerformanceRecord(t, db, portfolio.ID, "2024-01-02", "100", &ret)
		testutil.CreateFactorValue(t, db, factor.ID, "2024-01-02", 1.0)

		// Execute
		points, err := svc.Align(factor.ID, portfolio.ID, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-05"))

		// Assert
		if err != nil {
			t.Fatalf("Align() returned unexpected error: %v", err)
		}
		if len(points) != 1 {
			t.Fatalf("Expected 1 aligned point, got %d", len(points))
		}
		if points[0].DailyReturn == nil || *points[0].DailyReturn != 0.02 {
			t.Errorf("Expected daily return 0.02 on the aligned point, got %v", points[0].DailyReturn)
		}
	})

	t.Run("rejects unknown factors and portfolios", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestFactorService(t, db, testutil.DefaultEngineConfig())

		portfolio := testutil.CreatePortfolio(t, db, "Known")
		factor := testutil.CreateFactor(t, db, "Known Factor")

		// Execute / Assert
		if _, err := svc.Align(testutil.MakeID(), portfolio.ID, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-31")); !errors.Is(err, apperrors.ErrUnknownReference) {
			t.Errorf("Expected ErrUnknownReference for unknown factor, got %v", err)
		}
		if _, err := svc.Align(factor.ID, testutil.MakeID(), mustDate(t, "2024-01-01"), mustDate(t, "2024-01-31")); !errors.Is(err, apperrors.ErrUnknownReference) {
			t.Errorf("Expected ErrUnknownReference for unknown portfolio, got %v", err)
		}
	})

	t.Run("rejects inverted date ranges", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestFactorService(t, db, testutil.DefaultEngineConfig())

		// Execute
		_, err := svc.Align(testutil.MakeID(), testutil.MakeID(), mustDate(t, "2024-02-01"), mustDate(t, "2024-01-01"))

		// Assert
		if !errors.Is(err, apperrors.ErrInvalidDateRange) {
			t.Errorf("Expected ErrInvalidDateRange, got %v", err)
		}
	})
}
