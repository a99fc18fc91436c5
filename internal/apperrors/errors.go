package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrAssetNotFound indicates that an asset with the given ID does not exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrFactorNotFound indicates that a factor with the given ID does not exist.
	ErrFactorNotFound = errors.New("factor not found")

	// ErrScenarioNotFound indicates that a scenario with the given ID does not exist.
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Computation errors represent conditions under which the engine refuses to
// produce a number rather than degrade silently.
var (
	// ErrDataGap indicates that no usable price or rate exists within the
	// bounds of the configured missing-price policy.
	ErrDataGap = errors.New("no usable market data within policy bounds")

	// ErrNegativeHolding indicates that replaying the ledger drove an asset
	// position below zero (oversell). The quantity is never clamped.
	ErrNegativeHolding = errors.New("negative holding after reconciliation")

	// ErrInsufficientHistory indicates that a return or factor window is
	// shorter than the configured minimum sample size.
	ErrInsufficientHistory = errors.New("insufficient history for computation")

	// ErrZeroNAV indicates that the prior NAV is zero, which makes the daily
	// return undefined. This is an error condition, not a valid return.
	ErrZeroNAV = errors.New("prior NAV is zero")

	// ErrUnknownReference indicates that a transaction or shock references an
	// asset, factor or portfolio with no matching entity.
	ErrUnknownReference = errors.New("reference to unknown entity")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrUnknownTransactionType indicates a ledger entry with a type the
	// reconciler does not recognize.
	ErrUnknownTransactionType = errors.New("unknown transaction type")

	// ErrUnknownMetricType indicates a risk metric specification the risk
	// engine does not recognize.
	ErrUnknownMetricType = errors.New("unknown risk metric type")

	// ErrUnknownMethod indicates a risk computation method that is neither
	// historical nor parametric.
	ErrUnknownMethod = errors.New("unknown risk method")

	// ErrInvalidConfidence indicates a confidence level outside (0, 1).
	ErrInvalidConfidence = errors.New("confidence level must be in (0, 1)")

	// ErrInvalidShock indicates an asset shock that does not set exactly one
	// of its percent or absolute components.
	ErrInvalidShock = errors.New("shock must set exactly one of percent or absolute")

	// ErrDuplicateEntry indicates that an entity with the same unique constraint already exists.
	ErrDuplicateEntry = errors.New("duplicate entry")
)
