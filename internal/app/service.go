package app

import (
	"context"
	"fmt"
	"time"

	"ratesurf/internal/domain"
	"ratesurf/internal/engine"
	"ratesurf/internal/ports"
	"ratesurf/internal/risk"
)

// LiveRunner advances the simulated account by one bar per invocation. It is
// designed to run as a batch job (cron or systemd timer): each run fetches the
// latest market data, restores the persisted account and position, steps the
// state machine once and persists the outcome inside a single transaction.
// Nothing is kept in memory between runs.
type LiveRunner struct {
	logger      ports.Logger
	feed        ports.MarketFeed
	accountRepo ports.AccountRepository
	posRepo     ports.PositionRepository
	tradeRepo   ports.TradeRepository
	equityRepo  ports.EquityRepository
	tx          ports.Transactor
	source      ports.SignalSource

	engCfg   engine.Config
	guard    risk.Guard
	lookback int
	loc      *time.Location
	leverage float64

	// now is the clock; replaced in tests.
	now func() time.Time
}

// Deps carries the LiveRunner dependencies.
type Deps struct {
	Logger      ports.Logger
	Feed        ports.MarketFeed
	AccountRepo ports.AccountRepository
	PosRepo     ports.PositionRepository
	TradeRepo   ports.TradeRepository
	EquityRepo  ports.EquityRepository
	Tx          ports.Transactor
	Source      ports.SignalSource

	Engine   engine.Config
	Guard    risk.Guard     // Entry circuit breaker; zero value disables it
	Lookback int            // Daily bars fetched per invocation
	Location *time.Location // Timezone for the market-hours gate
	Leverage float64        // Broker leverage for the margin log line; defaults to 25
}

// NewLiveRunner creates a live runner instance, validating its dependencies
// and seeding the account row if this is the first run.
func NewLiveRunner(ctx context.Context, deps Deps) (*LiveRunner, error) {
	if deps.Logger == nil || deps.Feed == nil || deps.AccountRepo == nil || deps.PosRepo == nil ||
		deps.TradeRepo == nil || deps.EquityRepo == nil || deps.Tx == nil || deps.Source == nil {
		return nil, fmt.Errorf("missing required dependencies for LiveRunner")
	}
	if deps.Lookback <= 0 {
		return nil, fmt.Errorf("%w: lookback must be positive, got %d", ports.ErrConfigurationError, deps.Lookback)
	}
	if deps.Lookback < deps.Source.RequiredBars() {
		return nil, fmt.Errorf("%w: lookback %d is below the %d bars required by signal source %s",
			ports.ErrConfigurationError, deps.Lookback, deps.Source.RequiredBars(), deps.Source.Name())
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Leverage <= 0 {
		deps.Leverage = 25
	}

	// Validate the engine parameters up front rather than on first step.
	if _, err := engine.NewMachine(deps.Engine, deps.Logger); err != nil {
		return nil, err
	}
	if err := deps.Guard.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrConfigurationError, err)
	}

	if err := deps.AccountRepo.SeedAccount(ctx, deps.Engine.InitialCapital); err != nil {
		return nil, fmt.Errorf("failed to seed account: %w", err)
	}

	return &LiveRunner{
		logger:      deps.Logger,
		feed:        deps.Feed,
		accountRepo: deps.AccountRepo,
		posRepo:     deps.PosRepo,
		tradeRepo:   deps.TradeRepo,
		equityRepo:  deps.EquityRepo,
		tx:          deps.Tx,
		source:      deps.Source,
		engCfg:      deps.Engine,
		guard:       deps.Guard,
		lookback:    deps.Lookback,
		loc:         deps.Location,
		leverage:    deps.Leverage,
		now:         time.Now,
	}, nil
}

// MarketOpen reports whether the FX market trades at t: continuously from
// Monday 07:00 to Saturday 07:00 in the configured timezone.
func MarketOpen(t time.Time, loc *time.Location) bool {
	lt := t.In(loc)
	switch lt.Weekday() {
	case time.Sunday:
		return false
	case time.Monday:
		return lt.Hour() >= 7
	case time.Saturday:
		return lt.Hour() < 7
	default:
		return true
	}
}

// RunOnce performs one live step. Re-invocations before a new bar is published
// are no-ops, so the job is safe to schedule more often than bars arrive; the
// exception is an open position that has crossed the session boundary, which
// is force-closed even on a stale bar.
func (r *LiveRunner) RunOnce(ctx context.Context) error {
	op := "RunOnce"
	now := r.now()

	if !MarketOpen(now, r.loc) {
		r.logger.Info(ctx, op+": Market closed, skipping", map[string]interface{}{"now": now.In(r.loc)})
		return nil
	}

	// Fetch outside the transaction; the network call must not hold the
	// database write lock.
	bars, err := r.feed.GetBars(ctx, r.lookback)
	if err != nil {
		return fmt.Errorf("failed to fetch bars: %w", err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("feed returned no bars: %w", ports.ErrMarketDataUnavailable)
	}
	latest := bars[len(bars)-1]

	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		acct, err := r.accountRepo.GetAccount(ctx)
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}

		pos, err := r.posRepo.FindOpen(ctx)
		if err != nil {
			return fmt.Errorf("failed to load open position: %w", err)
		}

		stale := !latest.Time.After(acct.LastBarAt)
		if stale {
			forced := false
			if pos != nil {
				_, forced = r.engCfg.Costs.CheckExit(pos, latest.Close, now)
			}
			if !forced {
				r.logger.Info(ctx, op+": No new bar, skipping", map[string]interface{}{
					"lastBarAt": acct.LastBarAt,
					"latestBar": latest.Time,
				})
				return nil
			}
			r.logger.Info(ctx, op+": Stale bar but an exit trigger fired, proceeding", map[string]interface{}{
				"positionID": pos.ID,
			})
		}

		machine, err := engine.NewMachine(r.engCfg, r.logger)
		if err != nil {
			return err
		}
		machine.Restore(acct.Balance, pos)

		sig := r.source.Evaluate(ctx, bars)
		r.logger.Debug(ctx, op+": Signal evaluated", map[string]interface{}{
			"source": r.source.Name(),
			"signal": sig,
			"close":  latest.Close,
		})

		// The circuit breaker only gates fresh entries; a flat account's
		// equity is its cash balance.
		if pos == nil && wouldEnter(sig, r.engCfg.AllowShort) {
			if gerr := r.guard.CheckEntry(acct.InitialCapital, acct.Balance); gerr != nil {
				r.logger.Warn(ctx, op+": Entry blocked by risk guard", map[string]interface{}{
					"reason":  gerr.Error(),
					"balance": acct.Balance,
				})
				sig = domain.SignalWait
			}
		}

		trade, err := machine.StepAt(ctx, latest, sig, now)
		if err != nil {
			return err
		}

		// Persist the transition.
		switch {
		case trade != nil:
			if err := r.posRepo.ClosePosition(ctx, pos.ID, trade.ExitPrice, trade.GrossPNL, trade.SwapTotal, trade.ExitTime); err != nil {
				return err
			}
			if _, err := r.tradeRepo.CreateTrade(ctx, trade); err != nil {
				return err
			}
		case pos == nil && machine.Position() != nil:
			if _, err := r.posRepo.Create(ctx, machine.Position()); err != nil {
				return err
			}
		case pos != nil:
			if err := r.posRepo.UpdateMark(ctx, machine.Position()); err != nil {
				return err
			}
		}

		if err := r.accountRepo.SetBalance(ctx, machine.Balance()); err != nil {
			return err
		}
		if !stale {
			if err := r.accountRepo.SetLastBar(ctx, latest.Time); err != nil {
				return err
			}
		}

		unrealized := machine.Unrealized(latest.Close)
		sample := &domain.EquitySample{
			Time:          latest.Time,
			Balance:       machine.Balance(),
			UnrealizedPNL: unrealized,
			Equity:        machine.Balance() + unrealized,
			Rate:          latest.Rate,
			Price:         latest.Close,
		}
		if err := r.equityRepo.AppendSample(ctx, sample); err != nil {
			return err
		}

		r.logger.Info(ctx, op+": Step complete", map[string]interface{}{
			"balance":        machine.Balance(),
			"equity":         sample.Equity,
			"openUnits":      openUnits(machine.Position()),
			"marginRequired": marginRequired(machine.Position(), latest.Close, r.leverage),
			"tradeMade":      trade != nil,
			"barTime":        latest.Time,
			"closePrice":     latest.Close,
		})
		return nil
	})
}

// wouldEnter reports whether sig opens a new position from the FLAT state.
func wouldEnter(sig domain.Signal, allowShort bool) bool {
	return sig == domain.SignalEnterLong || (allowShort && sig == domain.SignalExit)
}

func openUnits(pos *domain.Position) int {
	if pos == nil {
		return 0
	}
	return pos.Units
}

// marginRequired returns the funds locked by the open position at the
// broker's leverage, units*price/leverage. Zero when flat.
func marginRequired(pos *domain.Position, price, leverage float64) float64 {
	if pos == nil {
		return 0
	}
	return float64(pos.Units) * price / leverage
}
