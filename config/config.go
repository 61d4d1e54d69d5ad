package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ratesurf/internal/adapters/logger" // Import the logger package for LogLevel
)

// Trading mode profiles. The mode selects the default parameter set; any
// individual value can still be overridden through its environment variable.
const (
	ModeSwing    = "SWING"
	ModeDaytrade = "DAYTRADE"
)

// Config holds all application configuration.
type Config struct {
	// Mode
	Mode string

	// Account
	InitialCapital float64

	// Lot sizing
	SizingRatio     float64 // Fraction of balance converted to units
	UnitGranularity int     // Units are floored to a multiple of this
	MinUnits        int
	MaxUnits        int // 0 means uncapped

	// Cost model
	Spread       float64 // Price units charged once on entry
	SwapLongDay  float64 // Swap per SwapUnits per day for longs
	SwapShortDay float64 // Swap per SwapUnits per day for shorts
	SwapUnits    int     // Unit basis for the daily swap rate

	// Exit triggers
	TakeProfit       float64 // Absolute price distance from entry fill; 0 disables
	StopLoss         float64 // Absolute price distance from entry fill; 0 disables
	SessionStartHour int     // First hour of day at which entries are taken; -1 disables the session window
	SessionEndHour   int     // Hour at which open positions are force-closed; -1 disables the session window
	Timezone         string  // Session window timezone
	AllowShort       bool
	MaxDrawdownHalt  float64 // Fraction of initial capital lost before new entries halt; 0 disables

	// Account reporting
	Leverage float64 // Broker leverage for the margin-requirement log line

	// Signal source
	SignalSource      string // raw_direction, ma_filter, momentum, crossover
	MAWindow          int
	MomentumLookback  int
	MomentumThreshold float64
	CrossoverFast     int
	CrossoverSlow     int

	// Market data
	PairSymbol   string // e.g. JPY=X for USD/JPY
	RateSymbol   string // e.g. ^TNX for the 10y treasury yield
	FeedLookback int    // Daily bars fetched per live invocation

	// Database
	DBPath string

	// Logging
	LogLevel  logger.LogLevel
	LogFormat string // "text" or "json"
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Mode selects the profile defaults
	cfg.Mode = strings.ToUpper(getEnv("MODE", ModeSwing))
	if cfg.Mode != ModeSwing && cfg.Mode != ModeDaytrade {
		errs = append(errs, fmt.Sprintf("MODE must be %s or %s, got %q", ModeSwing, ModeDaytrade, cfg.Mode))
		cfg.Mode = ModeSwing
	}
	defaults := profileDefaults(cfg.Mode)

	// Account
	cfg.InitialCapital, err = getEnvAsFloatRequired("INITIAL_CAPITAL", defaults.initialCapital)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid INITIAL_CAPITAL: %v", err))
	} else if cfg.InitialCapital <= 0 {
		errs = append(errs, "INITIAL_CAPITAL must be positive")
	}

	// Lot sizing
	cfg.SizingRatio, err = getEnvAsFloatRequired("SIZING_RATIO", defaults.sizingRatio)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SIZING_RATIO: %v", err))
	} else if cfg.SizingRatio <= 0 || cfg.SizingRatio >= 1.0 {
		errs = append(errs, "SIZING_RATIO must be between 0.0 and 1.0 (exclusive)")
	}

	cfg.UnitGranularity, err = getEnvAsIntRequired("UNIT_GRANULARITY", 10000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid UNIT_GRANULARITY: %v", err))
	} else if cfg.UnitGranularity <= 0 {
		errs = append(errs, "UNIT_GRANULARITY must be positive")
	}

	cfg.MinUnits, err = getEnvAsIntRequired("MIN_UNITS", defaults.minUnits)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_UNITS: %v", err))
	} else if cfg.MinUnits <= 0 {
		errs = append(errs, "MIN_UNITS must be positive")
	}

	cfg.MaxUnits, err = getEnvAsIntRequired("MAX_UNITS", defaults.maxUnits)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_UNITS: %v", err))
	} else if cfg.MaxUnits < 0 {
		errs = append(errs, "MAX_UNITS cannot be negative")
	} else if cfg.MaxUnits != 0 && cfg.MaxUnits < cfg.MinUnits {
		errs = append(errs, "MAX_UNITS must be zero or >= MIN_UNITS")
	}

	// Cost model
	cfg.Spread, err = getEnvAsFloatRequired("SPREAD", 0.004)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SPREAD: %v", err))
	} else if cfg.Spread < 0 {
		errs = append(errs, "SPREAD cannot be negative")
	}

	cfg.SwapLongDay, err = getEnvAsFloatRequired("SWAP_LONG_PER_DAY", 100.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SWAP_LONG_PER_DAY: %v", err))
	}
	cfg.SwapShortDay, err = getEnvAsFloatRequired("SWAP_SHORT_PER_DAY", -100.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SWAP_SHORT_PER_DAY: %v", err))
	}
	cfg.SwapUnits, err = getEnvAsIntRequired("SWAP_UNITS", 10000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SWAP_UNITS: %v", err))
	} else if cfg.SwapUnits <= 0 && (cfg.SwapLongDay != 0 || cfg.SwapShortDay != 0) {
		errs = append(errs, "SWAP_UNITS must be positive when a swap rate is set")
	}

	// Exit triggers
	cfg.TakeProfit, err = getEnvAsFloatRequired("TAKE_PROFIT", defaults.takeProfit)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TAKE_PROFIT: %v", err))
	} else if cfg.TakeProfit < 0 {
		errs = append(errs, "TAKE_PROFIT cannot be negative")
	}

	cfg.StopLoss, err = getEnvAsFloatRequired("STOP_LOSS", defaults.stopLoss)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STOP_LOSS: %v", err))
	} else if cfg.StopLoss < 0 {
		errs = append(errs, "STOP_LOSS cannot be negative")
	}

	// Session window: both hours set enables it, both -1 disables it.
	cfg.SessionStartHour, err = getEnvAsIntRequired("SESSION_START_HOUR", defaults.sessionStartHour)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SESSION_START_HOUR: %v", err))
	}
	cfg.SessionEndHour, err = getEnvAsIntRequired("SESSION_END_HOUR", defaults.sessionEndHour)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SESSION_END_HOUR: %v", err))
	}
	switch {
	case cfg.SessionStartHour == -1 && cfg.SessionEndHour == -1:
		// Disabled.
	case cfg.SessionStartHour < 0 || cfg.SessionStartHour > 23 || cfg.SessionEndHour < 0 || cfg.SessionEndHour > 23:
		errs = append(errs, "SESSION_START_HOUR and SESSION_END_HOUR must both be within 0-23, or both -1 to disable")
	case cfg.SessionStartHour == cfg.SessionEndHour:
		errs = append(errs, "SESSION_START_HOUR and SESSION_END_HOUR must differ")
	}

	cfg.Timezone = getEnv("TIMEZONE", "Asia/Tokyo")
	if _, tzErr := time.LoadLocation(cfg.Timezone); tzErr != nil {
		errs = append(errs, fmt.Sprintf("invalid TIMEZONE: %v", tzErr))
	}

	cfg.AllowShort = getEnvAsBool("ALLOW_SHORT", false)

	cfg.MaxDrawdownHalt, err = getEnvAsFloatRequired("MAX_DRAWDOWN_HALT", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_DRAWDOWN_HALT: %v", err))
	} else if cfg.MaxDrawdownHalt < 0 || cfg.MaxDrawdownHalt >= 1.0 {
		errs = append(errs, "MAX_DRAWDOWN_HALT must be within [0.0, 1.0)")
	}

	cfg.Leverage, err = getEnvAsFloatRequired("LEVERAGE", 25.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid LEVERAGE: %v", err))
	} else if cfg.Leverage <= 0 {
		errs = append(errs, "LEVERAGE must be positive")
	}

	// Signal source
	cfg.SignalSource = getEnv("SIGNAL_SOURCE", defaults.signalSource)
	cfg.MAWindow, err = getEnvAsIntRequired("MA_WINDOW", 20)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MA_WINDOW: %v", err))
	}
	cfg.MomentumLookback, err = getEnvAsIntRequired("MOMENTUM_LOOKBACK", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MOMENTUM_LOOKBACK: %v", err))
	}
	cfg.MomentumThreshold, err = getEnvAsFloatRequired("MOMENTUM_THRESHOLD", defaults.momentumThreshold)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MOMENTUM_THRESHOLD: %v", err))
	}
	cfg.CrossoverFast, err = getEnvAsIntRequired("CROSSOVER_FAST", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CROSSOVER_FAST: %v", err))
	}
	cfg.CrossoverSlow, err = getEnvAsIntRequired("CROSSOVER_SLOW", 20)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CROSSOVER_SLOW: %v", err))
	}
	if cfg.MAWindow <= 0 || cfg.MomentumLookback <= 0 || cfg.CrossoverFast <= 0 || cfg.CrossoverSlow <= 0 {
		errs = append(errs, "signal lookback windows must be positive")
	}
	if cfg.CrossoverFast >= cfg.CrossoverSlow {
		errs = append(errs, "CROSSOVER_FAST must be less than CROSSOVER_SLOW")
	}

	// Market data
	cfg.PairSymbol = getEnv("PAIR_SYMBOL", "JPY=X")
	if cfg.PairSymbol == "" {
		errs = append(errs, "PAIR_SYMBOL must be set")
	}
	cfg.RateSymbol = getEnv("RATE_SYMBOL", "^TNX")
	if cfg.RateSymbol == "" {
		errs = append(errs, "RATE_SYMBOL must be set")
	}
	cfg.FeedLookback, err = getEnvAsIntRequired("FEED_LOOKBACK", 60)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid FEED_LOOKBACK: %v", err))
	} else if cfg.FeedLookback <= 0 {
		errs = append(errs, "FEED_LOOKBACK must be positive")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/ratesurf.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "text"))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat))
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// Location returns the parsed session timezone. Call after LoadConfig has
// validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// profile holds the per-mode default parameter set.
type profile struct {
	initialCapital    float64
	sizingRatio       float64
	minUnits          int
	maxUnits          int
	takeProfit        float64
	stopLoss          float64
	sessionStartHour  int
	sessionEndHour    int
	signalSource      string
	momentumThreshold float64
}

func profileDefaults(mode string) profile {
	if mode == ModeDaytrade {
		return profile{
			initialCapital:    1_000_000,
			sizingRatio:       0.15,
			minUnits:          10000,
			maxUnits:          0,
			takeProfit:        0.15,
			stopLoss:          0.20,
			sessionStartHour:  10,
			sessionEndHour:    18,
			signalSource:      "momentum",
			momentumThreshold: 0.02,
		}
	}
	return profile{
		initialCapital:    1_000_000,
		sizingRatio:       0.02,
		minUnits:          10000,
		maxUnits:          100000,
		takeProfit:        0,
		stopLoss:          0,
		sessionStartHour:  -1,
		sessionEndHour:    -1,
		signalSource:      "raw_direction",
		momentumThreshold: 0,
	}
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
