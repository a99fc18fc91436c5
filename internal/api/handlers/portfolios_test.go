package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/analytics-engine/internal/api/handlers"
	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/testutil"
)

// withURLParam attaches a chi URL parameter to the request context so a
// handler can be exercised without the full router.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decimalFromString(t *testing.T, value string) decimal.Decimal {
	t.Helper()

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("Failed to parse test decimal %q: %v", value, err)
	}
	return parsed
}

// TestPortfolioHandler_Portfolios tests the GET /api/portfolio endpoint.
//
// WHY: This is the primary endpoint for listing portfolios. Clients depend
// on this returning correct data with proper HTTP status codes and JSON
// formatting.
func TestPortfolioHandler_Portfolios(t *testing.T) {
	t.Run("returns 200 with empty array", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPortfolioHandler(
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestReconcileService(t, db),
		)

		req := httptest.NewRequest(http.MethodGet, "/api/portfolio/", nil)
		w := httptest.NewRecorder()

		// Execute
		handler.Portfolios(w, req)

		// Assert
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}

		var response []handlers.PortfoliosResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 0 {
			t.Errorf("Expected empty array, got %d items", len(response))
		}
	})

	t.Run("returns all active portfolios", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPortfolioHandler(
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestReconcileService(t, db),
		)

		testutil.CreatePortfolio(t, db, "Portfolio One")
		testutil.CreatePortfolio(t, db, "Portfolio Two")
		testutil.NewPortfolio().WithName("Archived Portfolio").Archived().Build(t, db)

		req := httptest.NewRequest(http.MethodGet, "/api/portfolio/", nil)
		w := httptest.NewRecorder()

		// Execute
		handler.Portfolios(w, req)

		// Assert
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}

		var response []handlers.PortfoliosResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 2 {
			t.Errorf("Expected 2 active portfolios, got %d", len(response))
		}
	})
}

// TestPortfolioHandler_Holdings tests the on-demand reconciliation endpoint.
//
// WHY: The endpoint reconciles straight from the ledger; it must return the
// replayed holding set and surface unknown portfolios as 404.
func TestPortfolioHandler_Holdings(t *testing.T) {
	t.Run("returns reconciled positions and cash", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPortfolioHandler(
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestReconcileService(t, db),
		)

		portfolio := testutil.CreatePortfolio(t, db, "Holdings")
		asset := testutil.CreateAsset(t, db, "HLD", "USD")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-01", model.TransactionBuy, "4", "25")
		testutil.CreateTransaction(t, db, portfolio.ID, asset.ID, "2024-01-05", model.TransactionDividend, "4", "0.25")

		req := httptest.NewRequest(http.MethodGet, "/api/portfolio/"+portfolio.ID+"/holdings?date=2024-01-31", nil)
		req = withURLParam(req, "uuid", portfolio.ID)
		w := httptest.NewRecorder()

		// Execute
		handler.Holdings(w, req)

		// Assert
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var response handlers.HoldingsResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if got := response.Positions[asset.ID]; !got.Equal(decimalFromString(t, "4")) {
			t.Errorf("Expected position 4, got %s", got)
		}
		if !response.Cash.Equal(decimalFromString(t, "1")) {
			t.Errorf("Expected cash 1, got %s", response.Cash)
		}
	})

	t.Run("returns 404 for an unknown portfolio", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPortfolioHandler(
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestReconcileService(t, db),
		)

		unknown := testutil.MakeID()
		req := httptest.NewRequest(http.MethodGet, "/api/portfolio/"+unknown+"/holdings", nil)
		req = withURLParam(req, "uuid", unknown)
		w := httptest.NewRecorder()

		// Execute
		handler.Holdings(w, req)

		// Assert
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})

	t.Run("returns 400 for a malformed date", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPortfolioHandler(
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestReconcileService(t, db),
		)

		portfolio := testutil.CreatePortfolio(t, db, "Bad Date")
		req := httptest.NewRequest(http.MethodGet, "/api/portfolio/"+portfolio.ID+"/holdings?date=bogus", nil)
		req = withURLParam(req, "uuid", portfolio.ID)
		w := httptest.NewRecorder()

		// Execute
		handler.Holdings(w, req)

		// Assert
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}
