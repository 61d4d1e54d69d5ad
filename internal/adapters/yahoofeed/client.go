package yahoofeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ratesurf/internal/domain"
	"ratesurf/internal/ports"
)

// Client fetches daily candles from the Yahoo Finance v8 chart API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	logger  ports.Logger
}

// NewClient creates a chart API client. An empty base defaults to the public
// Yahoo endpoint.
func NewClient(base string, logger ports.Logger) *Client {
	if base == "" {
		base = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	return &Client{
		BaseURL: base,
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 15 * time.Second}).DialContext,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}
}

// chartResponse mirrors the subset of the v8 chart payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []*float64 `json:"open"`
					High  []*float64 `json:"high"`
					Low   []*float64 `json:"low"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// candle is one daily OHLC row keyed by its UTC midnight day.
type candle struct {
	day   time.Time
	open  float64
	high  float64
	low   float64
	close float64
}

func (c *Client) buildURL(symbol string, days int) string {
	u, err := url.Parse(c.BaseURL + "/" + url.PathEscape(symbol))
	if err != nil {
		panic(fmt.Sprintf("invalid base URL or symbol: %v", err))
	}
	q := u.Query()
	q.Set("interval", "1d")
	q.Set("range", rangeForDays(days))
	u.RawQuery = q.Encode()
	return u.String()
}

// rangeForDays picks the smallest chart API range that covers the request.
func rangeForDays(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 22:
		return "1mo"
	case days <= 66:
		return "3mo"
	case days <= 132:
		return "6mo"
	case days <= 264:
		return "1y"
	case days <= 528:
		return "2y"
	case days <= 1320:
		return "5y"
	default:
		return "10y"
	}
}

// DailyCandles fetches up to `days` most recent daily candles for symbol.
// Days with a null close (holidays, half sessions) are skipped.
func (c *Client) DailyCandles(ctx context.Context, symbol string, days int) ([]candle, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required: %w", ports.ErrConfigurationError)
	}
	if days <= 0 {
		days = 30
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(symbol, days), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build chart request for %s: %w", symbol, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ratesurf/1.0")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request for %s failed: %w", symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("chart status %d for %s: %s: %w", resp.StatusCode, symbol, string(b), ports.ErrMarketDataUnavailable)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode chart payload for %s: %w", symbol, err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s (%s): %w",
			symbol, payload.Chart.Error.Description, payload.Chart.Error.Code, ports.ErrMarketDataUnavailable)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart payload for %s has no result: %w", symbol, ports.ErrMarketDataUnavailable)
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	candles := make([]candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue // null rows appear on holidays and open sessions
		}
		day := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		cd := candle{day: day, close: *quote.Close[i]}
		cd.open = derefOr(quote.Open, i, cd.close)
		cd.high = derefOr(quote.High, i, cd.close)
		cd.low = derefOr(quote.Low, i, cd.close)
		candles = append(candles, cd)
	}

	if len(candles) > days {
		candles = candles[len(candles)-days:]
	}
	if c.logger != nil {
		c.logger.Debug(ctx, "Fetched daily candles", map[string]interface{}{"symbol": symbol, "count": strconv.Itoa(len(candles))})
	}
	return candles, nil
}

func derefOr(vals []*float64, i int, fallback float64) float64 {
	if i < len(vals) && vals[i] != nil {
		return *vals[i]
	}
	return fallback
}

// Feed joins a currency pair series with a reference interest rate series into
// daily bars, implementing ports.MarketFeed. The two series trade on slightly
// different calendars, so rate values are forward-filled onto pair days; pair
// days before the first known rate are dropped.
type Feed struct {
	client     *Client
	pairSymbol string
	rateSymbol string
	logger     ports.Logger
}

var _ ports.MarketFeed = (*Feed)(nil)

// NewFeed wires a Feed over the given chart client. Typical symbols are
// "JPY=X" for USD/JPY and "^TNX" for the 10-year treasury yield.
func NewFeed(client *Client, pairSymbol, rateSymbol string, logger ports.Logger) (*Feed, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required: %w", ports.ErrConfigurationError)
	}
	if pairSymbol == "" || rateSymbol == "" {
		return nil, fmt.Errorf("pair and rate symbols are required: %w", ports.ErrConfigurationError)
	}
	return &Feed{client: client, pairSymbol: pairSymbol, rateSymbol: rateSymbol, logger: logger}, nil
}

// GetBars returns up to limit daily bars, oldest first.
func (f *Feed) GetBars(ctx context.Context, limit int) ([]*domain.Bar, error) {
	if limit <= 0 {
		limit = 30
	}

	// Over-fetch the rate series so forward-fill has a value for the oldest
	// pair days even across long rate-market holidays.
	pair, err := f.client.DailyCandles(ctx, f.pairSymbol, limit)
	if err != nil {
		return nil, fmt.Errorf("pair series %s: %w", f.pairSymbol, err)
	}
	rates, err := f.client.DailyCandles(ctx, f.rateSymbol, limit+10)
	if err != nil {
		return nil, fmt.Errorf("rate series %s: %w", f.rateSymbol, err)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("rate series %s is empty: %w", f.rateSymbol, ports.ErrMarketDataUnavailable)
	}

	bars := make([]*domain.Bar, 0, len(pair))
	ri := 0
	lastRate := 0.0
	haveRate := false
	for _, pc := range pair {
		for ri < len(rates) && !rates[ri].day.After(pc.day) {
			lastRate = rates[ri].close
			haveRate = true
			ri++
		}
		if !haveRate {
			// Pair day precedes all rate data; nothing sensible to fill with.
			continue
		}
		bars = append(bars, &domain.Bar{
			Time:  pc.day,
			Open:  pc.open,
			High:  pc.high,
			Low:   pc.low,
			Close: pc.close,
			Rate:  lastRate,
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no overlapping days between %s and %s: %w", f.pairSymbol, f.rateSymbol, ports.ErrMarketDataUnavailable)
	}
	if f.logger != nil {
		f.logger.Debug(ctx, "Joined market bars", map[string]interface{}{"count": len(bars)})
	}
	return bars, nil
}

// Latest returns the most recent joined bar.
func (f *Feed) Latest(ctx context.Context) (*domain.Bar, error) {
	bars, err := f.GetBars(ctx, 5)
	if err != nil {
		return nil, err
	}
	return bars[len(bars)-1], nil
}
