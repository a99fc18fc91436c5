package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/analytics-engine/internal/apperrors"
)

// wrapInsertError classifies an insert failure. Unique-constraint
// violations surface as apperrors.ErrDuplicateEntry so callers can map
// them without parsing driver messages.
func wrapInsertError(entity string, err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicateEntry, entity)
	}
	return fmt.Errorf("failed to insert %s: %w", entity, err)
}

// ParseTime parses a date string in "2006-01-02" or RFC3339 format.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse("2006-01-02", str)
	if err != nil {
		returnTime, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return returnTime.UTC(), nil
}

// ParseDecimal parses a decimal column stored as TEXT.
func ParseDecimal(str string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(str)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse decimal: %w", err)
	}
	return d, nil
}

// formatDate renders a time for the DATE columns.
func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
