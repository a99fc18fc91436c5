package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/repository"
)

// PipelineService drives the batch run: reconcile, value and compute risk
// for every active portfolio. Portfolios are processed concurrently since
// they share no mutable state; within one portfolio the stages run in
// order because each feeds the next.
type PipelineService struct {
	portfolioRepo    *repository.PortfolioRepository
	performanceRepo  *repository.PerformanceRepository
	valuationService *ValuationService
	riskService      *RiskService
	logger           *zap.Logger
}

// NewPipelineService creates a new PipelineService with the provided dependencies.
func NewPipelineService(
	portfolioRepo *repository.PortfolioRepository,
	performanceRepo *repository.PerformanceRepository,
	valuationService *ValuationService,
	riskService *RiskService,
	logger *zap.Logger,
) *PipelineService {
	return &PipelineService{
		portfolioRepo:    portfolioRepo,
		performanceRepo:  performanceRepo,
		valuationService: valuationService,
		riskService:      riskService,
		logger:           logger,
	}
}

// RunAll runs the full pipeline over [start, end] for every active
// portfolio. One portfolio's failure never aborts its siblings: each
// portfolio's error is collected and the combined error joins them all.
func (s *PipelineService) RunAll(ctx context.Context, startDate, endDate time.Time) error {
	portfolios, err := s.portfolioRepo.GetPortfolios(model.PortfolioFilter{})
	if err != nil {
		return err
	}

	var mu sync.Mutex
	var errs []error

	g, ctx := errgroup.WithContext(ctx)
	for _, portfolio := range portfolios {
		portfolio := portfolio
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.runPortfolio(portfolio, startDate, endDate); err != nil {
				s.logger.Error("pipeline run failed",
					zap.String("portfolio_id", portfolio.ID),
					zap.Error(err),
				)
				mu.Lock()
				errs = append(errs, fmt.Errorf("portfolio %s: %w", portfolio.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// RunDaily advances every active portfolio from the day after its latest
// performance record through the given date. Portfolios with no records yet
// are computed from their first trade. This is the scheduler entry point.
func (s *PipelineService) RunDaily(ctx context.Context, through time.Time) error {
	portfolios, err := s.portfolioRepo.GetPortfolios(model.PortfolioFilter{})
	if err != nil {
		return err
	}

	var mu sync.Mutex
	var errs []error

	g, ctx := errgroup.WithContext(ctx)
	for _, portfolio := range portfolios {
		portfolio := portfolio
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			start := time.Time{}
			latest, found, err := s.performanceRepo.GetLatestBefore(portfolio.ID, through.AddDate(0, 0, 1))
			if err == nil && found {
				if !latest.Date.Before(through) {
					return nil
				}
				start = latest.Date.AddDate(0, 0, 1)
			}
			if err == nil {
				err = s.runPortfolio(portfolio, start, through)
			}

			if err != nil {
				s.logger.Error("daily pipeline run failed",
					zap.String("portfolio_id", portfolio.ID),
					zap.Error(err),
				)
				mu.Lock()
				errs = append(errs, fmt.Errorf("portfolio %s: %w", portfolio.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// runPortfolio executes the sequential stages for one portfolio. Valuation
// failure is fatal for the portfolio; risk failures are logged inside the
// risk service and reported but do not undo the recorded performance.
func (s *PipelineService) runPortfolio(portfolio model.Portfolio, startDate, endDate time.Time) error {
	records, err := s.valuationService.ComputeRange(portfolio.ID, startDate, endDate)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	s.logger.Info("performance recorded",
		zap.String("portfolio_id", portfolio.ID),
		zap.Int("records", len(records)),
	)

	if _, err := s.riskService.ComputeMetrics(portfolio.ID, endDate, s.riskService.DefaultSpecs()); err != nil {
		// Young portfolios legitimately lack a full return window; their
		// metrics appear once enough history accrues.
		if errors.Is(err, apperrors.ErrInsufficientHistory) {
			return nil
		}
		return fmt.Errorf("risk metrics: %w", err)
	}
	return nil
}
