package ports

import (
	"context"
	"time"

	"ratesurf/internal/domain"
)

// AccountRepository stores the persisted account state for live mode.
type AccountRepository interface {
	// SeedAccount inserts the account row with the given starting capital if
	// it does not exist yet; an existing row is left untouched.
	SeedAccount(ctx context.Context, initialCapital float64) error
	// GetAccount retrieves initial capital, current balance and the last
	// processed bar timestamp. Returns ErrNotFound (wrapped) when the account
	// row has not been seeded.
	GetAccount(ctx context.Context) (*domain.Account, error)
	// SetBalance overwrites the current cash balance.
	SetBalance(ctx context.Context, balance float64) error
	// SetLastBar records the timestamp of the bar just processed.
	SetLastBar(ctx context.Context, t time.Time) error
}

// PositionRepository stores the single open position.
type PositionRepository interface {
	// FindOpen retrieves the currently open position, if any.
	// Returns nil, nil when no open position exists.
	FindOpen(ctx context.Context) (*domain.Position, error)
	// Create saves a new open position and returns its assigned ID.
	Create(ctx context.Context, pos *domain.Position) (int64, error)
	// UpdateMark refreshes current price, swap total and update time of an
	// open position.
	UpdateMark(ctx context.Context, pos *domain.Position) error
	// ClosePosition marks the position closed at the given exit price.
	ClosePosition(ctx context.Context, id int64, exitPrice, unrealizedPNL, swapTotal float64, at time.Time) error
}

// TradeRepository stores the append-only trade log.
type TradeRepository interface {
	// CreateTrade saves a new trade record and returns its assigned ID.
	CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error)
	// FindRecent retrieves the most recent trades, newest first, up to limit.
	FindRecent(ctx context.Context, limit int) ([]*domain.Trade, error)
	// WinRate returns wins/total over the whole trade log; 0 with no trades.
	WinRate(ctx context.Context) (float64, error)
}

// EquityRepository stores the append-only equity curve.
type EquityRepository interface {
	// AppendSample appends one equity sample.
	AppendSample(ctx context.Context, sample *domain.EquitySample) error
	// RecentSamples retrieves the most recent samples, newest first.
	RecentSamples(ctx context.Context, limit int) ([]*domain.EquitySample, error)
}

// Transactor wraps a unit of work in a single storage transaction: either
// every write inside fn commits, or none do. Live invocations run their whole
// read-modify-write cycle through this so a failure mid-step never leaves
// balance and position partially updated.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
