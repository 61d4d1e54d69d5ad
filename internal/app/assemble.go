package app

import (
	"ratesurf/config"
	"ratesurf/internal/adapters/logger"
	"ratesurf/internal/adapters/zaplogger"
	"ratesurf/internal/engine"
	"ratesurf/internal/ports"
	"ratesurf/internal/risk"
	"ratesurf/internal/signals"
)

// NewLogger builds the configured logger implementation: the plain-text
// standard logger, or zap when LOG_FORMAT=json.
func NewLogger(cfg *config.Config) (ports.Logger, error) {
	if cfg.LogFormat == "json" {
		return zaplogger.New(cfg.LogLevel.String())
	}
	return logger.NewStdLogger(cfg.LogLevel), nil
}

// NewSignalSource builds the configured signal source.
func NewSignalSource(cfg *config.Config) (ports.SignalSource, error) {
	return signals.New(cfg.SignalSource, signals.Params{
		MAWindow:          cfg.MAWindow,
		MomentumLookback:  cfg.MomentumLookback,
		MomentumThreshold: cfg.MomentumThreshold,
		CrossoverFast:     cfg.CrossoverFast,
		CrossoverSlow:     cfg.CrossoverSlow,
	})
}

// EngineConfig maps the loaded configuration onto the engine parameters.
func EngineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		InitialCapital: cfg.InitialCapital,
		Sizer: engine.Sizer{
			Ratio:       cfg.SizingRatio,
			Granularity: cfg.UnitGranularity,
			MinUnits:    cfg.MinUnits,
			MaxUnits:    cfg.MaxUnits,
		},
		Costs: engine.Costs{
			Spread:       cfg.Spread,
			SwapLongDay:  cfg.SwapLongDay,
			SwapShortDay: cfg.SwapShortDay,
			SwapUnits:    cfg.SwapUnits,
			TakeProfit:   cfg.TakeProfit,
			StopLoss:     cfg.StopLoss,
			Session: engine.Session{
				Enabled:   cfg.SessionEndHour >= 0,
				StartHour: cfg.SessionStartHour,
				EndHour:   cfg.SessionEndHour,
			},
			Location: cfg.Location(),
		},
		AllowShort: cfg.AllowShort,
	}
}

// RiskGuard maps the loaded configuration onto the entry circuit breaker.
func RiskGuard(cfg *config.Config) risk.Guard {
	return risk.Guard{MaxDrawdownFrac: cfg.MaxDrawdownHalt}
}
