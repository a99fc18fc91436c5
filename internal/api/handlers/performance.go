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

// PerformanceHandler handles NAV/return series HTTP requests
type PerformanceHandler struct {
	valuationService *service.ValuationService
}

// NewPerformanceHandler creates a new PerformanceHandler
func NewPerformanceHandler(valuationService *service.ValuationService) *PerformanceHandler {
	return &PerformanceHandler{
		valuationService: valuationService,
	}
}

// PerformanceRecordResponse represents one daily NAV observation
type PerformanceRecordResponse struct {
	Date        string          `json:"date"`
	NAV         decimal.Decimal `json:"nav"`
	DailyReturn *float64        `json:"dailyReturn"`
}

// ComputeRequest is the body of a performance compute request
type ComputeRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Compute runs valuation over the requested range and returns the recorded
// series.
//
// Endpoint: POST /api/portfolio/{uuid}/performance/compute
func (h *PerformanceHandler) Compute(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "Failed to decode request body",
			"detail": err.Error(),
		})
		return
	}

	startDate, err := validation.ParseDate(req.StartDate)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "Failed to parse startDate",
			"detail": err.Error(),
		})
		return
	}
	endDate, err := validation.ParseDate(req.EndDate)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "Failed to parse endDate",
			"detail": err.Error(),
		})
		return
	}

	records, err := h.valuationService.ComputeRange(portfolioID, startDate, endDate)
	if err != nil {
		respondServiceError(w, "Failed to compute performance", err)
		return
	}

	respondJSON(w, http.StatusOK, toPerformanceResponse(records))
}

// Records returns the stored performance series for a date range.
//
// Endpoint: GET /api/portfolio/{uuid}/performance?start=&end=
func (h *PerformanceHandler) Records(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	startDate, endDate, ok := parseRangeQuery(w, r)
	if !ok {
		return
	}

	records, err := h.valuationService.StoredRecords(portfolioID, startDate, endDate)
	if err != nil {
		respondServiceError(w, "Failed to retrieve performance records", err)
		return
	}

	respondJSON(w, http.StatusOK, toPerformanceResponse(records))
}

func toPerformanceResponse(records []model.PerformanceRecord) []PerformanceRecordResponse {
	response := make([]PerformanceRecordResponse, len(records))
	for i, rec := range records {
		response[i] = PerformanceRecordResponse{
			Date:        rec.Date.Format("2006-01-02"),
			NAV:         rec.NAV,
			DailyReturn: rec.DailyReturn,
		}
	}
	return response
}
