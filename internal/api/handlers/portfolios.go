package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/service"
	"github.com/quantfolio/analytics-engine/internal/validation"
)

// PortfolioHandler handles portfolio-related HTTP requests
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	reconcileService *service.ReconcileService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService, reconcileService *service.ReconcileService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		reconcileService: reconcileService,
	}
}

// PortfoliosResponse represents the Portfolios get response
type PortfoliosResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BaseCurrency string `json:"baseCurrency"`
	Description  string `json:"description"`
	IsArchived   bool   `json:"is_archived"`
}

// Portfolios gets basic portfolio information
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	portfolios, err := h.portfolioService.GetAllPortfolios(model.PortfolioFilter{IncludeArchived: includeArchived})
	if err != nil {
		respondServiceError(w, "Failed to retrieve portfolios", err)
		return
	}

	response := make([]PortfoliosResponse, len(portfolios))
	for i, p := range portfolios {
		response[i] = PortfoliosResponse{
			ID:           p.ID,
			Name:         p.Name,
			BaseCurrency: p.BaseCurrency,
			Description:  p.Description,
			IsArchived:   p.IsArchived,
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// Portfolio returns one portfolio by ID.
//
// Endpoint: GET /api/portfolio/{uuid}
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.portfolioService.GetPortfolio(chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, "Failed to retrieve portfolio", err)
		return
	}

	respondJSON(w, http.StatusOK, PortfoliosResponse{
		ID:           p.ID,
		Name:         p.Name,
		BaseCurrency: p.BaseCurrency,
		Description:  p.Description,
		IsArchived:   p.IsArchived,
	})
}

// CreatePortfolioRequest is the body of a portfolio creation request
type CreatePortfolioRequest struct {
	Name         string `json:"name"`
	BaseCurrency string `json:"baseCurrency"`
	Description  string `json:"description"`
}

// Create registers a new portfolio.
//
// Endpoint: POST /api/portfolio/
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "Failed to decode request body",
			"detail": err.Error(),
		})
		return
	}
	if req.Name == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "name is required",
		})
		return
	}
	if req.BaseCurrency == "" {
		req.BaseCurrency = "USD"
	}

	p, err := h.portfolioService.CreatePortfolio(model.Portfolio{
		Name:         req.Name,
		BaseCurrency: req.BaseCurrency,
		Description:  req.Description,
	})
	if err != nil {
		respondServiceError(w, "Failed to create portfolio", err)
		return
	}

	respondJSON(w, http.StatusCreated, PortfoliosResponse{
		ID:           p.ID,
		Name:         p.Name,
		BaseCurrency: p.BaseCurrency,
		Description:  p.Description,
		IsArchived:   p.IsArchived,
	})
}

// Delete removes a portfolio along with its ledger and derived rows.
//
// Endpoint: DELETE /api/portfolio/{uuid}
func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.portfolioService.DeletePortfolio(chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, "Failed to delete portfolio", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddTransactionRequest is the body of a ledger ingestion request. Quantity
// is signed: positive for buys/inflows, negative for sells/outflows.
type AddTransactionRequest struct {
	AssetID  string `json:"assetId"`
	Date     string `json:"date"`
	Type     string `json:"type"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}

// AddTransaction appends one entry to the portfolio's ledger.
//
// Endpoint: POST /api/portfolio/{uuid}/transactions
func (h *PortfolioHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	var req AddTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "Failed to decode request body",
			"detail": err.Error(),
		})
		return
	}

	date, err := validation.ParseDate(req.Date)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "Failed to parse date",
			"detail": err.Error(),
		})
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "Failed to parse quantity",
			"detail": err.Error(),
		})
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "Failed to parse price",
			"detail": err.Error(),
		})
		return
	}

	txn, err := h.reconcileService.AddTransaction(model.Transaction{
		PortfolioID: portfolioID,
		AssetID:     req.AssetID,
		Date:        date,
		Type:        req.Type,
		Quantity:    quantity,
		Price:       price,
	})
	if err != nil {
		respondServiceError(w, "Failed to add transaction", err)
		return
	}

	respondJSON(w, http.StatusCreated, txn)
}

// HoldingsResponse represents reconciled holdings as of a date
type HoldingsResponse struct {
	PortfolioID string                     `json:"portfolioId"`
	AsOf        string                     `json:"asOf"`
	Positions   map[string]decimal.Decimal `json:"positions"`
	Cash        decimal.Decimal            `json:"cash"`
}

// Holdings reconciles the portfolio's ledger as of the requested date
// (default today) and returns the resulting holding set. With cached=true
// the last committed snapshot is returned instead of replaying the ledger.
func (h *PortfolioHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	if r.URL.Query().Get("cached") == "true" {
		set, err := h.reconcileService.CachedHoldings(portfolioID)
		if err != nil {
			respondServiceError(w, "Failed to read cached holdings", err)
			return
		}
		respondHoldings(w, set)
		return
	}

	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := validation.ParseDate(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error":  "Failed to parse date",
				"detail": err.Error(),
			})
			return
		}
		asOf = parsed
	}

	set, err := h.reconcileService.Reconcile(portfolioID, asOf)
	if err != nil {
		respondServiceError(w, "Failed to reconcile holdings", err)
		return
	}

	respondHoldings(w, set)
}

// Snapshot reconciles the portfolio as of the requested date (default
// today) and commits the result as the new cached snapshot.
//
// Endpoint: POST /api/portfolio/{uuid}/holdings/snapshot
func (h *PortfolioHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := validation.ParseDate(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error":  "Failed to parse date",
				"detail": err.Error(),
			})
			return
		}
		asOf = parsed
	}

	set, err := h.reconcileService.Snapshot(portfolioID, asOf)
	if err != nil {
		respondServiceError(w, "Failed to snapshot holdings", err)
		return
	}

	respondHoldings(w, set)
}

func respondHoldings(w http.ResponseWriter, set model.HoldingSet) {
	respondJSON(w, http.StatusOK, HoldingsResponse{
		PortfolioID: set.PortfolioID,
		AsOf:        set.AsOf.Format("2006-01-02"),
		Positions:   set.Positions,
		Cash:        set.Cash,
	})
}
