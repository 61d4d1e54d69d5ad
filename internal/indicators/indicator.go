package indicators

import (
	"context"

	"ratesurf/internal/domain"
)

// Series selects which bar field an indicator is computed over.
type Series string

const (
	// RateSeries computes over the reference interest rate.
	RateSeries Series = "rate"
	// PriceSeries computes over the pair's settlement price.
	PriceSeries Series = "price"
)

// Indicator represents a technical indicator that can be calculated from bar history.
type Indicator interface {
	// Calculate computes the indicator value for the given bars.
	Calculate(ctx context.Context, bars []*domain.Bar) (float64, error)

	// RequiredBars returns the minimum number of bars needed for calculation.
	RequiredBars() int

	// Name returns the name of the indicator.
	Name() string
}

// Config holds common configuration for indicators.
type Config struct {
	Period int
	Source Series
}

// value extracts the configured series from a bar.
func (c Config) value(bar *domain.Bar) float64 {
	if c.Source == PriceSeries {
		return bar.Close
	}
	return bar.Rate
}
