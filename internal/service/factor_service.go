package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
	"github.com/quantfolio/analytics-engine/internal/config"
	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/repository"
)

// FactorService aligns factor time series against portfolio observation
// dates so the pair can feed exposure regressions downstream.
type FactorService struct {
	factorRepo      *repository.FactorRepository
	performanceRepo *repository.PerformanceRepository
	portfolioRepo   *repository.PortfolioRepository
	cfg             config.EngineConfig
}

// NewFactorService creates a new FactorService with the provided dependencies.
func NewFactorService(
	factorRepo *repository.FactorRepository,
	performanceRepo *repository.PerformanceRepository,
	portfolioRepo *repository.PortfolioRepository,
	cfg config.EngineConfig,
) *FactorService {
	return &FactorService{
		factorRepo:      factorRepo,
		performanceRepo: performanceRepo,
		portfolioRepo:   portfolioRepo,
		cfg:             cfg,
	}
}

// CreateFactor registers a new factor series. The ID is generated when
// absent.
func (s *FactorService) CreateFactor(f model.Factor) (model.Factor, error) {
	if f.Name == "" {
		return model.Factor{}, fmt.Errorf("%w: factor name is required", apperrors.ErrEmptyID)
	}
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return s.factorRepo.CreateFactor(f)
}

// AddValue appends one observation to the factor's time series.
func (s *FactorService) AddValue(v model.FactorValue) (model.FactorValue, error) {
	if _, err := s.factorRepo.GetFactorOnID(v.FactorID); err != nil {
		if errors.Is(err, apperrors.ErrFactorNotFound) {
			return model.FactorValue{}, fmt.Errorf("%w: factor %s", apperrors.ErrUnknownReference, v.FactorID)
		}
		return model.FactorValue{}, err
	}
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return s.factorRepo.AddFactorValue(v)
}

// Align pairs each portfolio observation date in [start, end] with the
// nearest factor observation at or before that date, at most the configured
// lookback away. A factor observation is never taken from after the
// portfolio date. Portfolio dates with no factor observation inside the
// lookback are omitted from the result; an entirely empty alignment yields
// apperrors.ErrInsufficientHistory.
func (s *FactorService) Align(factorID, portfolioID string, startDate, endDate time.Time) ([]model.AlignedFactorPoint, error) {
	if endDate.Before(startDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	if _, err := s.factorRepo.GetFactorOnID(factorID); err != nil {
		if errors.Is(err, apperrors.ErrFactorNotFound) {
			return nil, fmt.Errorf("%w: factor %s", apperrors.ErrUnknownReference, factorID)
		}
		return nil, err
	}
	if _, err := s.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			return nil, fmt.Errorf("%w: portfolio %s", apperrors.ErrUnknownReference, portfolioID)
		}
		return nil, err
	}

	records, err := s.performanceRepo.GetRecords(portfolioID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	values, err := s.factorRepo.GetFactorValuesThrough(factorID, endDate)
	if err != nil {
		return nil, err
	}

	// Both series are ordered ascending, so a single forward walk finds the
	// latest factor observation at or before each portfolio date.
	points := []model.AlignedFactorPoint{}
	vi := 0
	for _, rec := range records {
		for vi < len(values) && !values[vi].Date.After(rec.Date) {
			vi++
		}
		if vi == 0 {
			continue
		}

		obs := values[vi-1]
		age := rec.Date.Sub(obs.Date)
		if age > time.Duration(s.cfg.FactorLookbackDays)*24*time.Hour {
			continue
		}

		points = append(points, model.AlignedFactorPoint{
			Date:        rec.Date,
			Value:       obs.Value,
			ObservedOn:  obs.Date,
			DailyReturn: rec.DailyReturn,
		})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no overlapping observations for factor %s and portfolio %s",
			apperrors.ErrInsufficientHistory, factorID, portfolioID)
	}

	return points, nil
}
