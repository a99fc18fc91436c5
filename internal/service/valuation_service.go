package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
	"github.com/quantfolio/analytics-engine/internal/config"
	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/repository"
)

// ValuationService values reconciled holdings against market data and
// maintains the portfolio's daily NAV/return series.
//
// NAV(D) = sum(quantity x close(D) converted to base currency) + cash.
// A missing close is handled by the configured missing-price policy: fail
// outright, or carry forward the most recent prior close within a bounded
// lookback window. It is never silently valued at zero.
type ValuationService struct {
	reconcileService *ReconcileService
	marketDataRepo   *repository.MarketDataRepository
	assetRepo        *repository.AssetRepository
	portfolioRepo    *repository.PortfolioRepository
	performanceRepo  *repository.PerformanceRepository
	transactionRepo  *repository.TransactionRepository
	cfg              config.EngineConfig
}

// NewValuationService creates a new ValuationService with the provided dependencies.
func NewValuationService(
	reconcileService *ReconcileService,
	marketDataRepo *repository.MarketDataRepository,
	assetRepo *repository.AssetRepository,
	portfolioRepo *repository.PortfolioRepository,
	performanceRepo *repository.PerformanceRepository,
	transactionRepo *repository.TransactionRepository,
	cfg config.EngineConfig,
) *ValuationService {
	return &ValuationService{
		reconcileService: reconcileService,
		marketDataRepo:   marketDataRepo,
		assetRepo:        assetRepo,
		portfolioRepo:    portfolioRepo,
		performanceRepo:  performanceRepo,
		transactionRepo:  transactionRepo,
		cfg:              cfg,
	}
}

// lookbackDays returns the carry-forward bound implied by the configured
// missing-price policy. Under the fail policy only the exact date counts.
func (s *ValuationService) lookbackDays() int {
	if s.cfg.MissingPricePolicy == config.PolicyCarryForward {
		return s.cfg.PriceLookbackDays
	}
	return 0
}

// PriceTable resolves a base-currency price for every held asset on the
// given date, applying the missing-price policy to both closes and exchange
// rates. The same table feeds both valuation and scenario shocks so that
// both use identical inputs.
func (s *ValuationService) PriceTable(set model.HoldingSet, date time.Time, baseCurrency string) (map[string]decimal.Decimal, error) {
	assetIDs := make([]string, 0, len(set.Positions))
	for assetID := range set.Positions {
		assetIDs = append(assetIDs, assetID)
	}

	assets, err := s.assetRepo.GetAssetsOnIDs(assetIDs)
	if err != nil {
		return nil, err
	}

	lookback := s.lookbackDays()
	prices := make(map[string]decimal.Decimal, len(assetIDs))

	for _, assetID := range assetIDs {
		asset, ok := assets[assetID]
		if !ok {
			return nil, fmt.Errorf("%w: asset %s", apperrors.ErrUnknownReference, assetID)
		}

		close, found, err := s.marketDataRepo.GetCloseOnOrBefore(assetID, date, lookback)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: no close for %s on or before %s (lookback %d days)",
				apperrors.ErrDataGap, asset.Symbol, date.Format("2006-01-02"), lookback)
		}

		price := close
		if asset.Currency != baseCurrency {
			rate, found, err := s.marketDataRepo.GetRateOnOrBefore(asset.Currency, baseCurrency, date, lookback)
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, fmt.Errorf("%w: no %s/%s rate on or before %s (lookback %d days)",
					apperrors.ErrDataGap, asset.Currency, baseCurrency, date.Format("2006-01-02"), lookback)
			}
			price = price.Mul(rate)
		}

		prices[assetID] = price
	}

	return prices, nil
}

// ValueWithPrices applies the NAV formula to a holding set using an
// already-resolved base-currency price table.
func (s *ValuationService) ValueWithPrices(set model.HoldingSet, prices map[string]decimal.Decimal) decimal.Decimal {
	nav := set.Cash
	for assetID, quantity := range set.Positions {
		nav = nav.Add(quantity.Mul(prices[assetID]))
	}
	return nav
}

// ValueHoldings computes NAV for a holding set on a date in the given base
// currency.
func (s *ValuationService) ValueHoldings(set model.HoldingSet, date time.Time, baseCurrency string) (decimal.Decimal, error) {
	prices, err := s.PriceTable(set, date, baseCurrency)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return s.ValueWithPrices(set, prices), nil
}

// RecordPerformance reconciles and values the portfolio on the given date
// and upserts its performance record. The daily return is computed against
// the most recent prior record: nil when none exists (first observation),
// and apperrors.ErrZeroNAV when the prior NAV is zero, since that signals
// an error condition rather than a valid return.
func (s *ValuationService) RecordPerformance(portfolioID string, date time.Time) (model.PerformanceRecord, error) {
	portfolio, err := s.portfolioRepo.GetPortfolioOnID(portfolioID)
	if err != nil {
		return model.PerformanceRecord{}, err
	}

	set, err := s.reconcileService.Reconcile(portfolioID, date)
	if err != nil {
		return model.PerformanceRecord{}, err
	}

	nav, err := s.ValueHoldings(set, date, portfolio.BaseCurrency)
	if err != nil {
		return model.PerformanceRecord{}, err
	}

	record := model.PerformanceRecord{
		PortfolioID: portfolioID,
		Date:        date,
		NAV:         nav,
	}

	prev, found, err := s.performanceRepo.GetLatestBefore(portfolioID, date)
	if err != nil {
		return model.PerformanceRecord{}, err
	}
	if found {
		if prev.NAV.IsZero() {
			return model.PerformanceRecord{}, fmt.Errorf(
				"%w: portfolio %s on %s", apperrors.ErrZeroNAV, portfolioID, prev.Date.Format("2006-01-02"))
		}
		ret, _ := nav.Div(prev.NAV).Sub(decimal.NewFromInt(1)).Float64()
		record.DailyReturn = &ret
	}

	return s.performanceRepo.UpsertRecord(record)
}

// StoredRecords returns the already-recorded performance series for the
// range without recomputing anything.
func (s *ValuationService) StoredRecords(portfolioID string, startDate, endDate time.Time) ([]model.PerformanceRecord, error) {
	if endDate.Before(startDate) {
		return nil, apperrors.ErrInvalidDateRange
	}
	if _, err := s.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		return nil, err
	}
	return s.performanceRepo.GetRecords(portfolioID, startDate, endDate)
}

// ComputeRange records performance for every date from start through end.
// The start is clamped to the portfolio's oldest trade date. Errors are
// fatal for the affected date and stop the loop: later dates depend on the
// faulty date's NAV for their return, so skipping ahead would corrupt the
// series.
func (s *ValuationService) ComputeRange(portfolioID string, startDate, endDate time.Time) ([]model.PerformanceRecord, error) {
	if endDate.Before(startDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	oldest := s.transactionRepo.GetOldestTransactionDate(portfolioID)
	if oldest.IsZero() {
		// Ledger is empty; there is nothing to value.
		return []model.PerformanceRecord{}, nil
	}
	if startDate.Before(oldest) {
		startDate = oldest
	}

	records := []model.PerformanceRecord{}
	for date := startDate; !date.After(endDate); date = date.AddDate(0, 0, 1) {
		record, err := s.RecordPerformance(portfolioID, date)
		if err != nil {
			return nil, fmt.Errorf("valuation failed for %s: %w", date.Format("2006-01-02"), err)
		}
		records = append(records, record)
	}

	// Refresh the holding cache to the end of the range.
	if _, err := s.reconcileService.Snapshot(portfolioID, endDate); err != nil {
		return nil, err
	}

	return records, nil
}
