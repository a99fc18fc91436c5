package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/service"
	"github.com/quantfolio/analytics-engine/internal/validation"
)

// FactorHandler handles factor alignment HTTP requests
type FactorHandler struct {
	factorService *service.FactorService
}

// NewFactorHandler creates a new FactorHandler
func NewFactorHandler(factorService *service.FactorService) *FactorHandler {
	return &FactorHandler{
		factorService: factorService,
	}
}

// CreateFactorRequest is the body of a factor registration request
type CreateFactorRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Create registers a new factor series.
//
// Endpoint: POST /api/factor/
func (h *FactorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "Failed to decode request body",
			"detail": err.Error(),
		})
		return
	}

	factor, err := h.factorService.CreateFactor(model.Factor{
		Name:     req.Name,
		Category: req.Category,
	})
	if err != nil {
		respondServiceError(w, "Failed to create factor", err)
		return
	}

	respondJSON(w, http.StatusCreated, factor)
}

// AddFactorValueRequest is the body of a factor observation request
type AddFactorValueRequest struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// AddValue appends one observation to the factor's time series.
//
// Endpoint: POST /api/factor/{uuid}/values
func (h *FactorHandler) AddValue(w http.ResponseWriter, r *http.Request) {
	factorID := chi.URLParam(r, "uuid")

	var req AddFactorValueRequest
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

	value, err := h.factorService.AddValue(model.FactorValue{
		FactorID: factorID,
		Date:     date,
		Value:    req.Value,
	})
	if err != nil {
		respondServiceError(w, "Failed to add factor value", err)
		return
	}

	respondJSON(w, http.StatusCreated, value)
}

// AlignedPointResponse represents one aligned factor observation
type AlignedPointResponse struct {
	Date        string   `json:"date"`
	Value       float64  `json:"value"`
	ObservedOn  string   `json:"observedOn"`
	DailyReturn *float64 `json:"dailyReturn"`
}

// Align pairs the factor's series with a portfolio's observation dates.
//
// Endpoint: GET /api/factor/{uuid}/align?portfolio=&start=&end=
func (h *FactorHandler) Align(w http.ResponseWriter, r *http.Request) {
	factorID := chi.URLParam(r, "uuid")

	portfolioID := r.URL.Query().Get("portfolio")
	if portfolioID == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "portfolio query parameter is required",
		})
		return
	}
	if err := validation.ValidateUUID(portfolioID); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid portfolio ID",
			"detail": err.Error(),
		})
		return
	}

	startDate, endDate, ok := parseRangeQuery(w, r)
	if !ok {
		return
	}

	points, err := h.factorService.Align(factorID, portfolioID, startDate, endDate)
	if err != nil {
		respondServiceError(w, "Failed to align factor series", err)
		return
	}

	response := make([]AlignedPointResponse, len(points))
	for i, p := range points {
		response[i] = AlignedPointResponse{
			Date:        p.Date.Format("2006-01-02"),
			Value:       p.Value,
			ObservedOn:  p.ObservedOn.Format("2006-01-02"),
			DailyReturn: p.DailyReturn,
		}
	}

	respondJSON(w, http.StatusOK, response)
}
