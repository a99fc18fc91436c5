package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quantfolio/analytics-engine/internal/model"
	"github.com/quantfolio/analytics-engine/internal/service"
	"github.com/quantfolio/analytics-engine/internal/validation"
)

// ScenarioHandler handles scenario run HTTP requests
type ScenarioHandler struct {
	scenarioService *service.ScenarioService
}

// NewScenarioHandler creates a new ScenarioHandler
func NewScenarioHandler(scenarioService *service.ScenarioService) *ScenarioHandler {
	return &ScenarioHandler{
		scenarioService: scenarioService,
	}
}

// CreateScenarioRequest is the body of a scenario registration request
type CreateScenarioRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create registers a new scenario definition.
//
// Endpoint: POST /api/scenario/
func (h *ScenarioHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "Failed to decode request body",
			"detail": err.Error(),
		})
		return
	}

	scenario, err := h.scenarioService.CreateScenario(model.Scenario{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(w, "Failed to create scenario", err)
		return
	}

	respondJSON(w, http.StatusCreated, scenario)
}

// ScenarioRunRequest is the body of a scenario run request. AsOf defaults
// to today when omitted.
type ScenarioRunRequest struct {
	Shocks        model.ShockSet      `json:"shocks"`
	Path          []model.ShockSet    `json:"path,omitempty"`
	Sensitivities model.Sensitivities `json:"sensitivities,omitempty"`
	AsOf          string              `json:"asOf,omitempty"`
}

// ScenarioResultResponse represents one metric of one scenario run
type ScenarioResultResponse struct {
	ScenarioID string  `json:"scenarioId"`
	MetricType string  `json:"metricType"`
	Value      float64 `json:"value"`
	RunAt      string  `json:"runAt"`
}

// Run evaluates a scenario against the portfolio's current holdings.
//
// Endpoint: POST /api/portfolio/{uuid}/scenario/{scenarioId}/run
func (h *ScenarioHandler) Run(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	scenarioID := chi.URLParam(r, "scenarioId")
	if err := validation.ValidateUUID(scenarioID); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid scenario ID",
			"detail": err.Error(),
		})
		return
	}

	var req ScenarioRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "Failed to decode request body",
			"detail": err.Error(),
		})
		return
	}

	asOf := time.Now().UTC()
	if req.AsOf != "" {
		parsed, err := validation.ParseDate(req.AsOf)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error":  "Failed to parse asOf",
				"detail": err.Error(),
			})
			return
		}
		asOf = parsed
	}

	results, err := h.scenarioService.Run(portfolioID, scenarioID, model.ScenarioRequest{
		Shocks:        req.Shocks,
		Path:          req.Path,
		Sensitivities: req.Sensitivities,
		AsOf:          asOf,
	})
	if err != nil {
		respondServiceError(w, "Failed to run scenario", err)
		return
	}

	respondJSON(w, http.StatusOK, toScenarioResponse(results))
}

// Results returns every retained scenario result for the portfolio.
//
// Endpoint: GET /api/portfolio/{uuid}/scenario-results
func (h *ScenarioHandler) Results(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	results, err := h.scenarioService.Results(portfolioID)
	if err != nil {
		respondServiceError(w, "Failed to retrieve scenario results", err)
		return
	}

	respondJSON(w, http.StatusOK, toScenarioResponse(results))
}

func toScenarioResponse(results []model.ScenarioResult) []ScenarioResultResponse {
	response := make([]ScenarioResultResponse, len(results))
	for i, res := range results {
		response[i] = ScenarioResultResponse{
			ScenarioID: res.ScenarioID,
			MetricType: res.MetricType,
			Value:      res.Value,
			RunAt:      res.RunAt.Format(time.RFC3339),
		}
	}
	return response
}
