package ports

import (
	"context"

	"ratesurf/internal/domain"
)

// MarketFeed supplies timestamped bars of the traded pair joined with the
// reference rate. Bars are returned oldest first, strictly ordered by time.
// A fresh sequence can be requested per run (the feed is restartable).
type MarketFeed interface {
	// GetBars returns up to limit of the most recent bars, oldest first.
	// Returns ErrMarketDataUnavailable (wrapped) when no usable bars exist.
	GetBars(ctx context.Context, limit int) ([]*domain.Bar, error)

	// Latest returns the most recent bar only.
	Latest(ctx context.Context) (*domain.Bar, error)
}
