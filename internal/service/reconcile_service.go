package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/repository"
)

// ReconcileService rebuilds point-in-time holdings from the transaction
// ledger. Reconciliation is pure and idempotent: it never reads the cached
// holding rows, so recomputing for the same inputs always yields the same
// holdings.
type ReconcileService struct {
	transactionRepo *repository.TransactionRepository
	holdingRepo     *repository.HoldingRepository
	portfolioRepo   *repository.PortfolioRepository
	assetRepo       *repository.AssetRepository

	// Snapshot writes are serialized per portfolio; reads go against the
	// last committed snapshot and need no lock.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewReconcileService creates a new ReconcileService with the provided repository dependencies.
func NewReconcileService(
	transactionRepo *repository.TransactionRepository,
	holdingRepo *repository.HoldingRepository,
	portfolioRepo *repository.PortfolioRepository,
	assetRepo *repository.AssetRepository,
) *ReconcileService {
	return &ReconcileService{
		transactionRepo: transactionRepo,
		holdingRepo:     holdingRepo,
		portfolioRepo:   portfolioRepo,
		assetRepo:       assetRepo,
		locks:           make(map[string]*sync.Mutex),
	}
}

// AddTransaction appends one entry to the portfolio's ledger. Entries are
// immutable once written; corrections are new offsetting entries. The
// referenced portfolio and asset must exist and the type must be one the
// reconciler can replay.
func (s *ReconcileService) AddTransaction(t model.Transaction) (model.Transaction, error) {
	switch t.Type {
	case model.TransactionBuy, model.TransactionSell, model.TransactionDividend, model.TransactionFee:
	default:
		return model.Transaction{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownTransactionType, t.Type)
	}

	if _, err := s.portfolioRepo.GetPortfolioOnID(t.PortfolioID); err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			return model.Transaction{}, fmt.Errorf("%w: portfolio %s", apperrors.ErrUnknownReference, t.PortfolioID)
		}
		return model.Transaction{}, err
	}
	if _, err := s.assetRepo.GetAssetOnID(t.AssetID); err != nil {
		if errors.Is(err, apperrors.ErrAssetNotFound) {
			return model.Transaction{}, fmt.Errorf("%w: asset %s", apperrors.ErrUnknownReference, t.AssetID)
		}
		return model.Transaction{}, err
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return s.transactionRepo.AddTransaction(t)
}

// Reconcile folds the portfolio's ledger through asOf into a holding set.
//
// Signed quantities are summed per asset: buys/inflows positive,
// sells/outflows negative. Dividend entries contribute quantity x price to
// the cash balance and never to security quantity; reinvestment shows up as
// its own buy entry in the ledger. Fee entries reduce cash by quantity x
// price.
//
// A position that sums to exactly zero is removed from the set rather than
// kept as a zero row. A sell that drives a position below zero is an
// oversell and surfaces apperrors.ErrNegativeHolding; quantities are never
// clamped.
func (s *ReconcileService) Reconcile(portfolioID string, asOf time.Time) (model.HoldingSet, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			return model.HoldingSet{}, fmt.Errorf("%w: portfolio %s", apperrors.ErrUnknownReference, portfolioID)
		}
		return model.HoldingSet{}, err
	}

	transactions, err := s.transactionRepo.GetTransactionsThrough(portfolioID, asOf)
	if err != nil {
		return model.HoldingSet{}, err
	}

	positions := make(map[string]decimal.Decimal)
	cash := decimal.Zero

	for _, t := range transactions {
		switch t.Type {
		case model.TransactionBuy, model.TransactionSell:
			quantity := positions[t.AssetID].Add(t.Quantity)
			if quantity.IsNegative() {
				return model.HoldingSet{}, fmt.Errorf(
					"%w: asset %s at %s", apperrors.ErrNegativeHolding, t.AssetID, t.Date.Format("2006-01-02"))
			}
			positions[t.AssetID] = quantity
		case model.TransactionDividend:
			cash = cash.Add(t.Quantity.Mul(t.Price))
		case model.TransactionFee:
			cash = cash.Sub(t.Quantity.Mul(t.Price).Abs())
		default:
			return model.HoldingSet{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownTransactionType, t.Type)
		}
	}

	// Closed positions leave the set entirely.
	for assetID, quantity := range positions {
		if quantity.IsZero() {
			delete(positions, assetID)
		}
	}

	return model.HoldingSet{
		PortfolioID: portfolioID,
		AsOf:        asOf,
		Positions:   positions,
		Cash:        cash,
	}, nil
}

// Snapshot reconciles the portfolio as of the given date and replaces its
// cached holding rows with the result. The write is serialized per
// portfolio so concurrent recompute requests cannot interleave a snapshot.
func (s *ReconcileService) Snapshot(portfolioID string, asOf time.Time) (model.HoldingSet, error) {
	lock := s.lockFor(portfolioID)
	lock.Lock()
	defer lock.Unlock()

	set, err := s.Reconcile(portfolioID, asOf)
	if err != nil {
		return model.HoldingSet{}, err
	}

	if err := s.holdingRepo.ReplaceHoldings(set); err != nil {
		return model.HoldingSet{}, err
	}

	return set, nil
}

// CachedHoldings returns the last committed snapshot for the portfolio.
// The cache is purely a performance shortcut; callers that need
// point-in-time correctness should use Reconcile.
func (s *ReconcileService) CachedHoldings(portfolioID string) (model.HoldingSet, error) {
	return s.holdingRepo.GetHoldings(portfolioID)
}

func (s *ReconcileService) lockFor(portfolioID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[portfolioID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[portfolioID] = lock
	}
	return lock
}
