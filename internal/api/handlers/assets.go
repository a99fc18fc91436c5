package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/service"
	"github.com/quantfolio/analytics-engine/internal/validation"
)

// AssetHandler handles asset catalog and market data HTTP requests
type AssetHandler struct {
	assetService *service.AssetService
}

// NewAssetHandler creates a new AssetHandler
func NewAssetHandler(assetService *service.AssetService) *AssetHandler {
	return &AssetHandler{
		assetService: assetService,
	}
}

// Assets lists the asset catalog.
//
// Endpoint: GET /api/asset/
func (h *AssetHandler) Assets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.assetService.GetAllAssets()
	if err != nil {
		respondServiceError(w, "Failed to retrieve assets", err)
		return
	}

	respondJSON(w, http.StatusOK, assets)
}

// Asset returns one asset by ID.
//
// Endpoint: GET /api/asset/{uuid}
func (h *AssetHandler) Asset(w http.ResponseWriter, r *http.Request) {
	asset, err := h.assetService.GetAsset(chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, "Failed to retrieve asset", err)
		return
	}

	respondJSON(w, http.StatusOK, asset)
}

// CreateAssetRequest is the body of an asset registration request
type CreateAssetRequest struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
}

// Create registers a new asset.
//
// Endpoint: POST /api/asset/
func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "Failed to decode request body",
			"detail": err.Error(),
		})
		return
	}

	asset, err := h.assetService.CreateAsset(model.Asset{
		Symbol:   req.Symbol,
		Name:     req.Name,
		Type:     req.Type,
		Currency: req.Currency,
	})
	if err != nil {
		respondServiceError(w, "Failed to create asset", err)
		return
	}

	respondJSON(w, http.StatusCreated, asset)
}

// AddPriceRequest is the body of a price ingestion request
type AddPriceRequest struct {
	Date   string   `json:"date"`
	Close  string   `json:"close"`
	Open   *float64 `json:"open,omitempty"`
	High   *float64 `json:"high,omitempty"`
	Low    *float64 `json:"low,omitempty"`
	Volume *int64   `json:"volume,omitempty"`
	Source string   `json:"source,omitempty"`
}

// AddPrice stores one end-of-day close for the asset.
//
// Endpoint: POST /api/asset/{uuid}/prices
func (h *AssetHandler) AddPrice(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "uuid")

	var req AddPriceRequest
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
	closePrice, err := decimal.NewFromString(req.Close)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "Failed to parse close price",
			"detail": err.Error(),
		})
		return
	}

	point, err := h.assetService.AddPrice(model.MarketDataPoint{
		AssetID: assetID,
		Date:    date,
		Open:    req.Open,
		High:    req.High,
		Low:     req.Low,
		Close:   closePrice,
		Volume:  req.Volume,
		Source:  req.Source,
	})
	if err != nil {
		respondServiceError(w, "Failed to store price", err)
		return
	}

	respondJSON(w, http.StatusCreated, point)
}

// PricePointResponse represents one (date, close) pair
type PricePointResponse struct {
	Date  string          `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// Prices returns the asset's close series over the requested range.
//
// Endpoint: GET /api/asset/{uuid}/prices?start=&end=
func (h *AssetHandler) Prices(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "uuid")

	startDate, endDate, ok := parseRangeQuery(w, r)
	if !ok {
		return
	}

	points, err := h.assetService.PriceHistory(assetID, startDate, endDate)
	if err != nil {
		respondServiceError(w, "Failed to retrieve price history", err)
		return
	}

	response := make([]PricePointResponse, len(points))
	for i, p := range points {
		response[i] = PricePointResponse{
			Date:  p.Date.Format("2006-01-02"),
			Close: p.Close,
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// AddRateRequest is the body of an exchange rate ingestion request
type AddRateRequest struct {
	FromCurrency string `json:"fromCurrency"`
	ToCurrency   string `json:"toCurrency"`
	Rate         string `json:"rate"`
	Date         string `json:"date"`
}

// AddRate stores one exchange rate observation.
//
// Endpoint: POST /api/rates
func (h *AssetHandler) AddRate(w http.ResponseWriter, r *http.Request) {
	var req AddRateRequest
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
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "Failed to parse rate",
			"detail": err.Error(),
		})
		return
	}

	stored, err := h.assetService.AddRate(model.ExchangeRate{
		FromCurrency: req.FromCurrency,
		ToCurrency:   req.ToCurrency,
		Rate:         rate,
		Date:         date,
	})
	if err != nil {
		respondServiceError(w, "Failed to store exchange rate", err)
		return
	}

	respondJSON(w, http.StatusCreated, stored)
}
