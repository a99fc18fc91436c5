package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/repository"
)

// AssetService manages the reference data the engine values against: the
// asset catalog, end-of-day prices and exchange rates. Market data arrives
// from external collaborators through this surface; the engine itself never
// fetches prices.
type AssetService struct {
	assetRepo      *repository.AssetRepository
	marketDataRepo *repository.MarketDataRepository
}

// NewAssetService creates a new AssetService with the provided repository dependencies.
func NewAssetService(
	assetRepo *repository.AssetRepository,
	marketDataRepo *repository.MarketDataRepository,
) *AssetService {
	return &AssetService{
		assetRepo:      assetRepo,
		marketDataRepo: marketDataRepo,
	}
}

// GetAllAssets returns the full asset catalog.
func (s *AssetService) GetAllAssets() ([]model.Asset, error) {
	return s.assetRepo.GetAssets()
}

// GetAsset returns one asset by ID.
func (s *AssetService) GetAsset(assetID string) (model.Asset, error) {
	return s.assetRepo.GetAssetOnID(assetID)
}

// CreateAsset registers a new asset. Symbol and currency are required; the
// ID is generated when absent.
func (s *AssetService) CreateAsset(a model.Asset) (model.Asset, error) {
	if a.Symbol == "" || a.Currency == "" {
		return model.Asset{}, fmt.Errorf("%w: symbol and currency are required", apperrors.ErrEmptyID)
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return s.assetRepo.CreateAsset(a)
}

// AddPrice stores one end-of-day close for the asset. The asset must exist;
// a price row for an unknown asset is a dangling reference.
func (s *AssetService) AddPrice(p model.MarketDataPoint) (model.MarketDataPoint, error) {
	if _, err := s.assetRepo.GetAssetOnID(p.AssetID); err != nil {
		if errors.Is(err, apperrors.ErrAssetNotFound) {
			return model.MarketDataPoint{}, fmt.Errorf("%w: asset %s", apperrors.ErrUnknownReference, p.AssetID)
		}
		return model.MarketDataPoint{}, err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return s.marketDataRepo.AddMarketData(p)
}

// PriceHistory returns the asset's (date, close) series over [start, end].
func (s *AssetService) PriceHistory(assetID string, startDate, endDate time.Time) ([]model.PricePoint, error) {
	if endDate.Before(startDate) {
		return nil, apperrors.ErrInvalidDateRange
	}
	if _, err := s.assetRepo.GetAssetOnID(assetID); err != nil {
		return nil, err
	}

	closes, err := s.marketDataRepo.GetCloses([]string{assetID}, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return closes[assetID], nil
}

// AddRate stores one exchange rate observation for a currency pair.
func (s *AssetService) AddRate(e model.ExchangeRate) (model.ExchangeRate, error) {
	if e.FromCurrency == "" || e.ToCurrency == "" {
		return model.ExchangeRate{}, fmt.Errorf("%w: both currencies are required", apperrors.ErrEmptyID)
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return s.marketDataRepo.AddExchangeRate(e)
}
