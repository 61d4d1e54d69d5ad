package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"ratesurf/internal/domain"
)

// WriteBarsToCSV writes daily bars with the header
// time,open,high,low,close,rate.
func WriteBarsToCSV(bars []*domain.Bar, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{"time", "open", "high", "low", "close", "rate"})

	for _, b := range bars {
		writer.Write([]string{
			b.Time.Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Rate, 'f', -1, 64),
		})
	}
	return writer.Error()
}

// WriteTradesToCSV exports a trade log for offline analysis.
func WriteTradesToCSV(trades []*domain.Trade, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{"entry_time", "exit_time", "direction", "units", "entry_price", "exit_price", "gross_pnl", "swap_total", "net_pnl", "exit_reason"})

	for _, t := range trades {
		writer.Write([]string{
			t.EntryTime.Format(time.RFC3339),
			t.ExitTime.Format(time.RFC3339),
			string(t.Direction),
			strconv.Itoa(t.Units),
			strconv.FormatFloat(t.EntryPrice, 'f', -1, 64),
			strconv.FormatFloat(t.ExitPrice, 'f', -1, 64),
			strconv.FormatFloat(t.GrossPNL, 'f', 2, 64),
			strconv.FormatFloat(t.SwapTotal, 'f', 2, 64),
			strconv.FormatFloat(t.NetPNL, 'f', 2, 64),
			string(t.ExitReason),
		})
	}
	return writer.Error()
}

// ReadBarsFromCSV reads bars written by WriteBarsToCSV. The header row is
// required; rows must be oldest first.
func ReadBarsFromCSV(filename string) ([]*domain.Bar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 6

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read CSV header from %s: %w", filename, err)
	}

	var bars []*domain.Bar
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record at line %d: %w", line, err)
		}

		bar, err := parseBar(record)
		if err != nil {
			return nil, fmt.Errorf("invalid bar at line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseBar(record []string) (*domain.Bar, error) {
	t, err := time.Parse(time.RFC3339, record[0])
	if err != nil {
		return nil, fmt.Errorf("bad time %q: %w", record[0], err)
	}

	vals := make([]float64, 5)
	for i, field := range record[1:] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", field, err)
		}
		vals[i] = v
	}

	return &domain.Bar{
		Time:  t,
		Open:  vals[0],
		High:  vals[1],
		Low:   vals[2],
		Close: vals[3],
		Rate:  vals[4],
	}, nil
}
