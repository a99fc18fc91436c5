package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/repository"
	"github.com/quantfolio/analytics-engine/internal/service"
	"github.com/quantfolio/analytics-engine/internal/validation"
)

// RiskHandler handles risk metric HTTP requests
type RiskHandler struct {
	riskService *service.RiskService
	riskRepo    *repository.RiskMetricRepository
}

// NewRiskHandler creates a new RiskHandler
func NewRiskHandler(riskService *service.RiskService, riskRepo *repository.RiskMetricRepository) *RiskHandler {
	return &RiskHandler{
		riskService: riskService,
		riskRepo:    riskRepo,
	}
}

// RiskMetricResponse represents one stored risk metric
type RiskMetricResponse struct {
	Date       string  `json:"date"`
	MetricType string  `json:"metricType"`
	Value      float64 `json:"value"`
}

// RiskComputeRequest is the body of a risk compute request. Metrics is
// optional; when empty the configured default metric set is computed.
type RiskComputeRequest struct {
	Date    string             `json:"date"`
	Metrics []model.MetricSpec `json:"metrics,omitempty"`
}

// Compute derives risk metrics for a portfolio on a date.
//
// Endpoint: POST /api/portfolio/{uuid}/risk/compute
func (h *RiskHandler) Compute(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	var req RiskComputeRequest
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

	specs := req.Metrics
	if len(specs) == 0 {
		specs = h.riskService.DefaultSpecs()
	}

	metrics, err := h.riskService.ComputeMetrics(portfolioID, date, specs)
	if err != nil {
		respondServiceError(w, "Failed to compute risk metrics", err)
		return
	}

	respondJSON(w, http.StatusOK, toRiskResponse(metrics))
}

// Metrics returns all stored risk metrics for the portfolio.
//
// Endpoint: GET /api/portfolio/{uuid}/risk
func (h *RiskHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	metrics, err := h.riskRepo.GetMetrics(portfolioID)
	if err != nil {
		respondServiceError(w, "Failed to retrieve risk metrics", err)
		return
	}

	respondJSON(w, http.StatusOK, toRiskResponse(metrics))
}

func toRiskResponse(metrics []model.RiskMetric) []RiskMetricResponse {
	response := make([]RiskMetricResponse, len(metrics))
	for i, m := range metrics {
		response[i] = RiskMetricResponse{
			Date:       m.Date.Format("2006-01-02"),
			MetricType: m.MetricType,
			Value:      m.Value,
		}
	}
	return response
}
