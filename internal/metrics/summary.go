// Package metrics is the post-run reducer over the trade log and equity
// curve. Pure reads, no mutation of inputs; degenerate cases (no trades, no
// elapsed time) produce zero values rather than errors.
package metrics

import (
	"time"

	"ratesurf/internal/domain"
)

// Summary holds the performance metrics of one run.
type Summary struct {
	InitialCapital float64
	FinalEquity    float64
	TotalProfit    float64
	ROI            float64 // (final equity - initial capital) / initial capital

	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	TradesPerYear float64

	MaxDrawdown float64 // absolute peak-to-trough decline
	MinEquity   float64
	MaxUnits    int // largest position deployed, shows the compounding effect

	AverageWin      float64
	AverageLoss     float64
	AverageHoldTime time.Duration

	YearlyEquity []YearEnd
}

// YearEnd is the equity at the last sample of one calendar year.
type YearEnd struct {
	Year   int
	Equity float64
	Return float64 // vs. the previous year end (or initial capital)
}

// Summarize reduces a finished run to its Summary. Trades and samples are
// read in the order they were appended.
func Summarize(trades []*domain.Trade, samples []*domain.EquitySample, initialCapital float64) *Summary {
	s := &Summary{
		InitialCapital: initialCapital,
		FinalEquity:    initialCapital,
		MinEquity:      initialCapital,
	}

	peak := initialCapital
	for _, sample := range samples {
		s.FinalEquity = sample.Equity
		if sample.Equity < s.MinEquity {
			s.MinEquity = sample.Equity
		}
		if sample.Equity > peak {
			peak = sample.Equity
		}
		if dd := peak - sample.Equity; dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
		}
	}

	var totalHold time.Duration
	for _, tr := range trades {
		s.TotalTrades++
		if tr.NetPNL > 0 {
			s.WinningTrades++
			s.AverageWin = (s.AverageWin*float64(s.WinningTrades-1) + tr.NetPNL) / float64(s.WinningTrades)
		} else {
			s.LosingTrades++
			s.AverageLoss = (s.AverageLoss*float64(s.LosingTrades-1) + tr.NetPNL) / float64(s.LosingTrades)
		}
		if tr.Units > s.MaxUnits {
			s.MaxUnits = tr.Units
		}
		totalHold += tr.ExitTime.Sub(tr.EntryTime)
	}

	s.TotalProfit = s.FinalEquity - initialCapital
	if initialCapital > 0 {
		s.ROI = s.TotalProfit / initialCapital
	}
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
		s.AverageHoldTime = totalHold / time.Duration(s.TotalTrades)
	}
	if len(samples) > 1 {
		elapsed := samples[len(samples)-1].Time.Sub(samples[0].Time)
		if years := elapsed.Hours() / (24 * 365); years > 0 {
			s.TradesPerYear = float64(s.TotalTrades) / years
		}
	}
	s.YearlyEquity = yearlyEquity(samples, initialCapital)
	return s
}

// yearlyEquity picks the last sample of each calendar year and computes the
// year-over-year return.
func yearlyEquity(samples []*domain.EquitySample, initialCapital float64) []YearEnd {
	if len(samples) == 0 {
		return nil
	}
	var out []YearEnd
	prev := initialCapital
	for i, sample := range samples {
		year := sample.Time.Year()
		last := i == len(samples)-1 || samples[i+1].Time.Year() != year
		if !last {
			continue
		}
		ret := 0.0
		if prev > 0 {
			ret = (sample.Equity - prev) / prev
		}
		out = append(out, YearEnd{Year: year, Equity: sample.Equity, Return: ret})
		prev = sample.Equity
	}
	return out
}
