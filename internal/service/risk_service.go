package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
	"github.com/quantfolio/analytics-engine/internal/config"
	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/repository"
)

// RiskService derives volatility, VaR and CVaR from a portfolio's trailing
// return series.
//
// VaR and CVaR are reported as positive loss magnitudes, so for the same
// window VaR(0.99) >= VaR(0.95): more confidence means a larger reported
// loss.
type RiskService struct {
	performanceRepo *repository.PerformanceRepository
	riskRepo        *repository.RiskMetricRepository
	cfg             config.EngineConfig
	logger          *zap.Logger
}

// NewRiskService creates a new RiskService with the provided dependencies.
func NewRiskService(
	performanceRepo *repository.PerformanceRepository,
	riskRepo *repository.RiskMetricRepository,
	cfg config.EngineConfig,
	logger *zap.Logger,
) *RiskService {
	return &RiskService{
		performanceRepo: performanceRepo,
		riskRepo:        riskRepo,
		cfg:             cfg,
		logger:          logger,
	}
}

// Compute produces one risk figure for the portfolio on the given date from
// the trailing window of daily returns, and upserts it under the
// (portfolio, date, metric type) key.
//
// A window shorter than the configured minimum sample size yields
// apperrors.ErrInsufficientHistory rather than a degenerate statistic.
func (s *RiskService) Compute(portfolioID string, date time.Time, spec model.MetricSpec) (model.RiskMetric, error) {
	if err := validateMetricSpec(spec); err != nil {
		return model.RiskMetric{}, err
	}

	returns, err := s.performanceRepo.GetReturnWindow(portfolioID, date, s.cfg.RiskWindow)
	if err != nil {
		return model.RiskMetric{}, err
	}
	if len(returns) < s.cfg.RiskMinSamples {
		return model.RiskMetric{}, fmt.Errorf("%w: %d returns, need %d",
			apperrors.ErrInsufficientHistory, len(returns), s.cfg.RiskMinSamples)
	}

	value, err := s.computeValue(returns, spec)
	if err != nil {
		return model.RiskMetric{}, err
	}

	return s.riskRepo.UpsertMetric(model.RiskMetric{
		PortfolioID: portfolioID,
		Date:        date,
		MetricType:  spec.Type,
		Value:       value,
	})
}

// ComputeMetrics computes several risk figures for the same portfolio/date.
// Each metric is scoped on its own: a failing metric is logged and does not
// abort its siblings. The combined error joins every per-metric failure.
func (s *RiskService) ComputeMetrics(portfolioID string, date time.Time, specs []model.MetricSpec) ([]model.RiskMetric, error) {
	metrics := []model.RiskMetric{}
	var errs []error

	for _, spec := range specs {
		metric, err := s.Compute(portfolioID, date, spec)
		if err != nil {
			s.logger.Warn("risk metric computation failed",
				zap.String("portfolio_id", portfolioID),
				zap.String("metric_type", spec.Type),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", spec.Type, err))
			continue
		}
		metrics = append(metrics, metric)
	}

	return metrics, errors.Join(errs...)
}

// DefaultSpecs returns the metric set the batch pipeline computes:
// annualized volatility plus VaR and CVaR at the configured confidence and
// method.
func (s *RiskService) DefaultSpecs() []model.MetricSpec {
	return []model.MetricSpec{
		{Type: model.MetricVolatility, Annualize: true},
		{Type: model.MetricVaR, Confidence: s.cfg.RiskConfidence, Method: s.cfg.RiskMethod},
		{Type: model.MetricCVaR, Confidence: s.cfg.RiskConfidence, Method: s.cfg.RiskMethod},
	}
}

func (s *RiskService) computeValue(returns []float64, spec model.MetricSpec) (float64, error) {
	switch spec.Type {
	case model.MetricVolatility:
		vol := sampleStdDev(returns)
		if spec.Annualize {
			vol *= math.Sqrt(s.cfg.AnnualizationFactor)
		}
		return vol, nil

	case model.MetricVaR:
		switch spec.Method {
		case model.MethodParametric:
			return s.parametricVaR(returns, spec.Confidence), nil
		case model.MethodHistorical, "":
			return s.historicalVaR(returns, spec.Confidence), nil
		default:
			return 0, fmt.Errorf("%w: %q", apperrors.ErrUnknownMethod, spec.Method)
		}

	case model.MetricCVaR:
		switch spec.Method {
		case model.MethodParametric:
			return s.parametricCVaR(returns, spec.Confidence), nil
		case model.MethodHistorical, "":
			return s.historicalCVaR(returns, spec.Confidence), nil
		default:
			return 0, fmt.Errorf("%w: %q", apperrors.ErrUnknownMethod, spec.Method)
		}

	default:
		return 0, fmt.Errorf("%w: %q", apperrors.ErrUnknownMetricType, spec.Type)
	}
}

// historicalVaR is the loss at the (1-c) empirical quantile of the window.
func (s *RiskService) historicalVaR(returns []float64, confidence float64) float64 {
	return -quantile(returns, 1-confidence)
}

// historicalCVaR is the mean loss over all returns at or below the VaR
// threshold.
func (s *RiskService) historicalCVaR(returns []float64, confidence float64) float64 {
	threshold := quantile(returns, 1-confidence)
	mean, ok := tailMean(returns, threshold)
	if !ok {
		return -threshold
	}
	return -mean
}

// parametricVaR assumes returns are normal with the window's sample
// mean/variance.
func (s *RiskService) parametricVaR(returns []float64, confidence float64) float64 {
	mean := sampleMean(returns)
	sd := sampleStdDev(returns)
	return -(mean + sd*normInvCDF(1-confidence))
}

// parametricCVaR is the normal expected shortfall:
// -(mean - sd * pdf(z) / (1-c)) with z the (1-c) normal quantile.
func (s *RiskService) parametricCVaR(returns []float64, confidence float64) float64 {
	mean := sampleMean(returns)
	sd := sampleStdDev(returns)
	z := normInvCDF(1 - confidence)
	return -(mean - sd*normPDF(z)/(1-confidence))
}

func validateMetricSpec(spec model.MetricSpec) error {
	switch spec.Type {
	case model.MetricVolatility:
		return nil
	case model.MetricVaR, model.MetricCVaR:
		if spec.Confidence <= 0 || spec.Confidence >= 1 {
			return fmt.Errorf("%w: %v", apperrors.ErrInvalidConfidence, spec.Confidence)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownMetricType, spec.Type)
	}
}
