package model

// Portfolio represents a strategy or account whose holdings are derived
// from its transaction ledger.
type Portfolio struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BaseCurrency string `json:"baseCurrency"`
	Description  string `json:"description"`
	IsArchived   bool   `json:"isArchived"`
}

// PortfolioFilter for querying portfolios
type PortfolioFilter struct {
	IncludeArchived bool
}
