package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"

	"ratesurf/config"
	"ratesurf/internal/app"
	"ratesurf/internal/backtest"
	"ratesurf/internal/signals"
	"ratesurf/internal/utils"
)

// variant is one signal source entered into the comparison run.
type variant struct {
	name   string
	params signals.Params
}

func main() {
	dataFile := flag.String("data", "data/usdjpy_daily.csv", "historical bars CSV (time,open,high,low,close,rate)")
	tradesOut := flag.String("trades-out", "", "optional CSV file for the best variant's trade log")
	single := flag.String("source", "", "run only this signal source instead of the full comparison")
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

	bars, err := utils.ReadBarsFromCSV(*dataFile)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to load historical bars", map[string]interface{}{"file": *dataFile})
		log.Fatalf("FATAL: Failed to load historical bars: %v", err)
	}
	appLogger.Info(ctx, "Loaded historical bars", map[string]interface{}{
		"file":  *dataFile,
		"count": len(bars),
		"from":  bars[0].Time,
		"to":    bars[len(bars)-1].Time,
	})

	engCfg := app.EngineConfig(cfg)

	variants := []variant{
		{"raw_direction", signals.Params{}},
		{"ma_filter", signals.Params{MAWindow: cfg.MAWindow}},
		{"momentum", signals.Params{MomentumLookback: cfg.MomentumLookback, MomentumThreshold: cfg.MomentumThreshold}},
		{"crossover", signals.Params{CrossoverFast: cfg.CrossoverFast, CrossoverSlow: cfg.CrossoverSlow}},
	}
	if *single != "" {
		variants = []variant{{*single, signals.Params{
			MAWindow:          cfg.MAWindow,
			MomentumLookback:  cfg.MomentumLookback,
			MomentumThreshold: cfg.MomentumThreshold,
			CrossoverFast:     cfg.CrossoverFast,
			CrossoverSlow:     cfg.CrossoverSlow,
		}}}
	}

	results := make(map[string]*backtest.Result, len(variants))
	for _, v := range variants {
		src, err := signals.New(v.name, v.params)
		if err != nil {
			appLogger.Error(ctx, err, "Failed to build signal source", map[string]interface{}{"source": v.name})
			log.Fatalf("FATAL: Failed to build signal source %s: %v", v.name, err)
		}

		result, err := backtest.Run(ctx, src, bars, engCfg, appLogger)
		if err != nil {
			appLogger.Error(ctx, err, "Backtest failed", map[string]interface{}{"source": v.name})
			log.Fatalf("FATAL: Backtest failed for %s: %v", v.name, err)
		}
		results[v.name] = result
	}

	// Comparison report, best ROI first.
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return results[names[i]].Summary.ROI > results[names[j]].Summary.ROI
	})

	fmt.Printf("\n%-15s %14s %8s %7s %8s %12s %10s\n",
		"SOURCE", "FINAL EQUITY", "TRADES", "WIN%", "TRD/YR", "MAX DD", "MAX UNITS")
	for _, name := range names {
		s := results[name].Summary
		fmt.Printf("%-15s %14.0f %8d %6.1f%% %8.1f %12.0f %10d\n",
			name, s.FinalEquity, s.TotalTrades, s.WinRate*100, s.TradesPerYear, s.MaxDrawdown, s.MaxUnits)
	}

	best := names[0]
	bestSummary := results[best].Summary
	fmt.Printf("\nBest source: %s  ROI %.1f%%  avg win %.0f  avg loss %.0f  avg hold %s\n",
		best, bestSummary.ROI*100, bestSummary.AverageWin, bestSummary.AverageLoss, bestSummary.AverageHoldTime)

	fmt.Println("\nYear-end equity (" + best + "):")
	for _, ye := range bestSummary.YearlyEquity {
		fmt.Printf("  %d  %14.0f  %+6.1f%%\n", ye.Year, ye.Equity, ye.Return*100)
	}

	if *tradesOut != "" {
		if err := utils.WriteTradesToCSV(results[best].Trades, *tradesOut); err != nil {
			appLogger.Error(ctx, err, "Failed to write trade log", map[string]interface{}{"file": *tradesOut})
			log.Fatalf("FATAL: Failed to write trade log: %v", err)
		}
		appLogger.Info(ctx, "Trade log written", map[string]interface{}{"file": *tradesOut, "trades": len(results[best].Trades)})
	}
}
