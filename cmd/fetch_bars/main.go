package main

import (
	"context"
	"flag"
	"log"

	"ratesurf/config"
	"ratesurf/internal/adapters/yahoofeed"
	"ratesurf/internal/app"
	"ratesurf/internal/utils"
)

// Fetches joined daily bars (pair close + reference rate) and writes them to
// a CSV usable by the backtest command.
func main() {
	outFile := flag.String("out", "data/usdjpy_daily.csv", "output CSV file")
	days := flag.Int("days", 365*5, "number of daily bars to fetch")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	appLogger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}

	client := yahoofeed.NewClient("", appLogger)
	feed, err := yahoofeed.NewFeed(client, cfg.PairSymbol, cfg.RateSymbol, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize market feed")
		log.Fatalf("FATAL: Failed to initialize market feed: %v", err)
	}

	bars, err := feed.GetBars(ctx, *days)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to fetch bars")
		log.Fatalf("FATAL: Failed to fetch bars: %v", err)
	}
	appLogger.Info(ctx, "Fetched bars", map[string]interface{}{
		"pairSymbol": cfg.PairSymbol,
		"rateSymbol": cfg.RateSymbol,
		"count":      len(bars),
		"from":       bars[0].Time,
		"to":         bars[len(bars)-1].Time,
	})

	if err := utils.WriteBarsToCSV(bars, *outFile); err != nil {
		appLogger.Error(ctx, err, "Failed to write bars CSV", map[string]interface{}{"file": *outFile})
		log.Fatalf("FATAL: Failed to write bars CSV: %v", err)
	}
	appLogger.Info(ctx, "Bars written", map[string]interface{}{"file": *outFile})
}
