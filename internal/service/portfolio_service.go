package service

import (
	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/repository"
)

// PortfolioService handles portfolio-related operations
type PortfolioService struct {
	portfolioRepo *repository.PortfolioRepository
}

// NewPortfolioService creates a new PortfolioService with the provided repository dependencies.
func NewPortfolioService(portfolioRepo *repository.PortfolioRepository) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
	}
}

// GetAllPortfolios retrieves portfolios matching the filter.
func (s *PortfolioService) GetAllPortfolios(filter model.PortfolioFilter) ([]model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolios(filter)
}

// GetPortfolio retrieves a single portfolio by ID.
func (s *PortfolioService) GetPortfolio(portfolioID string) (model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolioOnID(portfolioID)
}

// CreatePortfolio creates a new portfolio.
func (s *PortfolioService) CreatePortfolio(p model.Portfolio) (model.Portfolio, error) {
	return s.portfolioRepo.CreatePortfolio(p)
}

// DeletePortfolio removes a portfolio and, through cascading deletes, its
// ledger and derived rows.
func (s *PortfolioService) DeletePortfolio(portfolioID string) error {
	return s.portfolioRepo.DeletePortfolio(portfolioID)
}
