package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrNotFound           = errors.New("resource not found")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Market Data Errors
	// ErrMarketDataUnavailable means the feed yielded no usable bar for an
	// expected step. Backtests skip the step; a live invocation aborts with
	// all persisted state untouched.
	ErrMarketDataUnavailable = errors.New("market data unavailable")
	ErrMarketClosed          = errors.New("market is closed")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
	ErrTxFailed     = errors.New("database transaction failed")
)
