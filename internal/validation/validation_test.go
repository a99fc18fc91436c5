package validation_test

import (
	"errors"
	"testing"

	"github.com/quantfolio/analytics-engine/internal/validation"
)

func TestValidateUUID(t *testing.T) {
	t.Run("accepts a valid UUID", func(t *testing.T) {
		if err := validation.ValidateUUID("550e8400-e29b-41d4-a716-446655440000"); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, input := range []string{"", "not-a-uuid", "550e8400"} {
			if err := validation.ValidateUUID(input); !errors.Is(err, validation.ErrInvalidUUID) {
				t.Errorf("ValidateUUID(%q): expected ErrInvalidUUID, got %v", input, err)
			}
		}
	})
}

func TestValidateUUIDs(t *testing.T) {
	t.Run("rejects empty slices", func(t *testing.T) {
		if err := validation.ValidateUUIDs(nil); !errors.Is(err, validation.ErrEmptySlice) {
			t.Errorf("Expected ErrEmptySlice, got %v", err)
		}
	})

	t.Run("rejects a slice containing one bad ID", func(t *testing.T) {
		ids := []string{"550e8400-e29b-41d4-a716-446655440000", "bad"}
		if err := validation.ValidateUUIDs(ids); !errors.Is(err, validation.ErrInvalidUUID) {
			t.Errorf("Expected ErrInvalidUUID, got %v", err)
		}
	})
}

func TestParseDate(t *testing.T) {
	t.Run("parses calendar dates", func(t *testing.T) {
		parsed, err := validation.ParseDate("2024-03-15")
		if err != nil {
			t.Fatalf("ParseDate() returned unexpected error: %v", err)
		}
		if parsed.Year() != 2024 || parsed.Month() != 3 || parsed.Day() != 15 {
			t.Errorf("Expected 2024-03-15, got %v", parsed)
		}
	})

	t.Run("falls back to RFC 3339", func(t *testing.T) {
		if _, err := validation.ParseDate("2024-03-15T10:30:00Z"); err != nil {
			t.Errorf("Expected RFC 3339 fallback to succeed, got %v", err)
		}
	})

	t.Run("rejects other formats", func(t *testing.T) {
		if _, err := validation.ParseDate("15/03/2024"); !errors.Is(err, validation.ErrInvalidDate) {
			t.Errorf("Expected ErrInvalidDate, got %v", err)
		}
	})
}

func TestValidateDateRange(t *testing.T) {
	start, _ := validation.ParseDate("2024-01-01")
	end, _ := validation.ParseDate("2024-02-01")

	t.Run("accepts ordered ranges", func(t *testing.T) {
		if err := validation.ValidateDateRange(start, end); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("accepts single-day ranges", func(t *testing.T) {
		if err := validation.ValidateDateRange(start, start); err != nil {
			t.Errorf("Expected no error for equal dates, got %v", err)
		}
	})

	t.Run("rejects inverted ranges", func(t *testing.T) {
		if err := validation.ValidateDateRange(end, start); !errors.Is(err, validation.ErrInvalidDateRange) {
			t.Errorf("Expected ErrInvalidDateRange, got %v", err)
		}
	})
}
