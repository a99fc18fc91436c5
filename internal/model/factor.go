package model

import "time"

// Factor represents a named risk/return driver with its own time series.
type Factor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// FactorValue represents one observation in a factor's time series.
type FactorValue struct {
	ID       string    `json:"id"`
	FactorID string    `json:"factorId"`
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
}

// AlignedFactorPoint pairs a portfolio observation date with the factor
// value that was available on that date. ObservedOn is the factor
// observation actually used; it is never after Date (no look-ahead).
// DailyReturn carries the portfolio return for the same date so the pair is
// directly usable as exposure-regression input.
type AlignedFactorPoint struct {
	Date        time.Time `json:"date"`
	Value       float64   `json:"value"`
	ObservedOn  time.Time `json:"observedOn"`
	DailyReturn *float64  `json:"dailyReturn"`
}
