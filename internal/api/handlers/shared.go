package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
	"github.com/quantfolio/analytics-engine/internal/validation"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Failed to encode JSON: %v", err)
		}
	}
}

// respondServiceError maps service errors onto HTTP status codes and writes
// the error response. Missing entities map to 404, computation refusals
// (data gaps, oversells, short history, zero NAV) to 422, validation
// failures to 400, everything else to 500.
func respondServiceError(w http.ResponseWriter, message string, err error) {
	respondJSON(w, statusForError(err), map[string]string{
		"error":  message,
		"detail": err.Error(),
	})
}

// parseRangeQuery reads the start/end query parameters. A missing start
// falls back to 1970-01-01 and a missing end to today. On a parse failure
// the error response has already been written and ok is false.
func parseRangeQuery(w http.ResponseWriter, r *http.Request) (startDate, endDate time.Time, ok bool) {
	startDate = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	endDate = time.Now().UTC()

	var err error
	if raw := r.URL.Query().Get("start"); raw != "" {
		startDate, err = validation.ParseDate(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error":  "Failed to parse start",
				"detail": err.Error(),
			})
			return startDate, endDate, false
		}
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		endDate, err = validation.ParseDate(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error":  "Failed to parse end",
				"detail": err.Error(),
			})
			return startDate, endDate, false
		}
	}

	return startDate, endDate, true
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrPortfolioNotFound),
		errors.Is(err, apperrors.ErrAssetNotFound),
		errors.Is(err, apperrors.ErrFactorNotFound),
		errors.Is(err, apperrors.ErrScenarioNotFound),
		errors.Is(err, apperrors.ErrTransactionNotFound),
		errors.Is(err, apperrors.ErrUnknownReference):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDataGap),
		errors.Is(err, apperrors.ErrNegativeHolding),
		errors.Is(err, apperrors.ErrInsufficientHistory),
		errors.Is(err, apperrors.ErrZeroNAV):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrInvalidUUID),
		errors.Is(err, apperrors.ErrEmptyID),
		errors.Is(err, apperrors.ErrUnknownTransactionType),
		errors.Is(err, apperrors.ErrUnknownMetricType),
		errors.Is(err, apperrors.ErrUnknownMethod),
		errors.Is(err, apperrors.ErrInvalidConfidence),
		errors.Is(err, apperrors.ErrInvalidShock):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrDuplicateEntry):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
