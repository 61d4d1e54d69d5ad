package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"ratesurf/config"
	"ratesurf/internal/adapters/sqlite"
	"ratesurf/internal/adapters/yahoofeed"
	"ratesurf/internal/app"
)

func main() {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "mode": cfg.Mode})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Mode:   cfg.Mode,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing database repository")
		}
	}()
	appLogger.Info(ctx, "Database repository initialized")

	// 4. Initialize Market Feed
	client := yahoofeed.NewClient("", appLogger)
	feed, err := yahoofeed.NewFeed(client, cfg.PairSymbol, cfg.RateSymbol, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize market feed")
		log.Fatalf("FATAL: Failed to initialize market feed: %v", err)
	}
	appLogger.Info(ctx, "Market feed initialized", map[string]interface{}{
		"pairSymbol": cfg.PairSymbol,
		"rateSymbol": cfg.RateSymbol,
	})

	// 5. Initialize Signal Source
	source, err := app.NewSignalSource(cfg)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize signal source")
		log.Fatalf("FATAL: Failed to initialize signal source: %v", err)
	}
	appLogger.Info(ctx, "Signal source initialized", map[string]interface{}{"source": source.Name()})

	// 6. Initialize Live Runner
	runner, err := app.NewLiveRunner(ctx, app.Deps{
		Logger:      appLogger,
		Feed:        feed,
		AccountRepo: repo,
		PosRepo:     repo,
		TradeRepo:   repo,
		EquityRepo:  repo,
		Tx:          repo,
		Source:      source,
		Engine:      app.EngineConfig(cfg),
		Guard:       app.RiskGuard(cfg),
		Lookback:    cfg.FeedLookback,
		Location:    cfg.Location(),
		Leverage:    cfg.Leverage,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize live runner")
		log.Fatalf("FATAL: Failed to initialize live runner: %v", err)
	}

	// 7. Run one step. The process is invoked periodically by a scheduler;
	// each invocation advances the simulation by at most one bar.
	if err := runner.RunOnce(ctx); err != nil {
		appLogger.Error(ctx, err, "Live step failed")
		log.Fatalf("FATAL: Live step failed: %v", err)
	}

	appLogger.Info(ctx, "Live step finished.")
}
