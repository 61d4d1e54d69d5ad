package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ratesurf/internal/domain"
	"ratesurf/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the account, position, trade and equity repository
// ports plus ports.Transactor using SQLite. All records are tagged with the
// simulation mode so a swing and a daytrade ledger can share one database
// file without mixing state.
type Repository struct {
	db     *sql.DB
	mode   string
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Mode   string // simulation mode tag, e.g. "SWING" or "DAYTRADE"
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	if cfg.Mode == "" {
		return nil, fmt.Errorf("mode is required for SQLite repository: %w", ports.ErrConfigurationError)
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/ratesurf.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath, "mode": cfg.Mode})

	repo := &Repository{db: db, mode: cfg.Mode, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// NOTE: This is a basic approach. A proper migration tool is recommended for production.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS sim_config (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mode TEXT NOT NULL UNIQUE,
		initial_capital REAL NOT NULL,
		current_balance REAL NOT NULL,
		last_bar_at TIMESTAMP DEFAULT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_positions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mode TEXT NOT NULL,
		direction TEXT NOT NULL,
		entry_price REAL NOT NULL,
		current_price REAL NOT NULL,
		units INTEGER NOT NULL,
		swap_total REAL NOT NULL DEFAULT 0,
		entry_time TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		status TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_trade_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mode TEXT NOT NULL,
		position_id INTEGER NULL,
		direction TEXT NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		units INTEGER NOT NULL,
		gross_pnl REAL NOT NULL,
		spread_cost REAL NOT NULL,
		swap_total REAL NOT NULL,
		net_pnl REAL NOT NULL,
		entry_time TIMESTAMP NOT NULL,
		exit_time TIMESTAMP NOT NULL,
		exit_reason TEXT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_equity_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mode TEXT NOT NULL,
		sampled_at TIMESTAMP NOT NULL,
		balance REAL NOT NULL,
		unrealized_pnl REAL NOT NULL,
		equity REAL NOT NULL,
		rate REAL NOT NULL,
		price REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sim_positions_mode_status ON sim_positions (mode, status);
	CREATE INDEX IF NOT EXISTS idx_sim_trade_history_mode_entry_time ON sim_trade_history (mode, entry_time);
	CREATE INDEX IF NOT EXISTS idx_sim_equity_log_mode_sampled_at ON sim_equity_log (mode, sampled_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- Transactor Implementation ---

type txKey struct{}

// dbtx is the subset of *sql.DB and *sql.Tx the queries need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// conn returns the transaction carried by ctx if WithinTx is active,
// otherwise the bare connection.
func (r *Repository) conn(ctx context.Context) dbtx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.db
}

// WithinTx runs fn inside a single SQLite transaction. The transaction is
// carried through the context, so every repository call made inside fn joins
// it. Nested calls reuse the caller's transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", errors.Join(ports.ErrTxFailed, err))
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error(ctx, rbErr, "Transaction rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", errors.Join(ports.ErrTxFailed, err))
	}
	return nil
}

// --- AccountRepository Implementation ---

// SeedAccount inserts the account row for this mode if it does not exist yet.
// An existing row is left untouched so restarts never reset the balance.
func (r *Repository) SeedAccount(ctx context.Context, initialCapital float64) error {
	const query = `
	INSERT INTO sim_config (mode, initial_capital, current_balance)
	VALUES (?, ?, ?)
	ON CONFLICT(mode) DO NOTHING`

	_, err := r.conn(ctx).ExecContext(ctx, query, r.mode, initialCapital, initialCapital)
	if err != nil {
		return fmt.Errorf("failed to seed account for mode %s: %w", r.mode, err)
	}
	return nil
}

// GetAccount retrieves initial capital, current balance and the last processed
// bar timestamp for this mode.
func (r *Repository) GetAccount(ctx context.Context) (*domain.Account, error) {
	const query = `
	SELECT initial_capital, current_balance, last_bar_at
	FROM sim_config
	WHERE mode = ?`

	acct := &domain.Account{}
	var lastBar sql.NullTime
	err := r.conn(ctx).QueryRowContext(ctx, query, r.mode).Scan(&acct.InitialCapital, &acct.Balance, &lastBar)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account for mode %s not seeded: %w", r.mode, ports.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query account for mode %s: %w", r.mode, err)
	}
	if lastBar.Valid {
		acct.LastBarAt = lastBar.Time
	}
	return acct, nil
}

// SetBalance overwrites the current cash balance.
func (r *Repository) SetBalance(ctx context.Context, balance float64) error {
	const query = `UPDATE sim_config SET current_balance = ? WHERE mode = ?`

	result, err := r.conn(ctx).ExecContext(ctx, query, balance, r.mode)
	if err != nil {
		return fmt.Errorf("failed to update balance for mode %s: %w", r.mode, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for balance update: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account for mode %s not seeded: %w", r.mode, ports.ErrNotFound)
	}
	return nil
}

// SetLastBar records the timestamp of the bar just processed.
func (r *Repository) SetLastBar(ctx context.Context, t time.Time) error {
	const query = `UPDATE sim_config SET last_bar_at = ? WHERE mode = ?`

	result, err := r.conn(ctx).ExecContext(ctx, query, t, r.mode)
	if err != nil {
		return fmt.Errorf("failed to update last bar for mode %s: %w", r.mode, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for last bar update: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account for mode %s not seeded: %w", r.mode, ports.ErrNotFound)
	}
	return nil
}

// --- PositionRepository Implementation ---

// Create saves a new open position and returns its assigned ID.
func (r *Repository) Create(ctx context.Context, pos *domain.Position) (int64, error) {
	const query = `
	INSERT INTO sim_positions (mode, direction, entry_price, current_price, units, swap_total, entry_time, updated_at, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.conn(ctx).ExecContext(ctx, query,
		r.mode, pos.Direction, pos.EntryPrice, pos.CurrentPrice, pos.Units, pos.SwapTotal,
		pos.EntryTime, pos.UpdatedAt, pos.Status)
	if err != nil {
		return 0, fmt.Errorf("failed to insert position: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for position: %w", err)
	}
	pos.ID = id // Update the domain object with the ID
	r.logger.Debug(ctx, "Position created", map[string]interface{}{"positionID": id, "units": pos.Units, "entryPrice": pos.EntryPrice})
	return id, nil
}

// UpdateMark refreshes current price, swap total and update time of a position.
func (r *Repository) UpdateMark(ctx context.Context, pos *domain.Position) error {
	const query = `
	UPDATE sim_positions
	SET current_price = ?, swap_total = ?, updated_at = ?
	WHERE id = ? AND mode = ?`

	result, err := r.conn(ctx).ExecContext(ctx, query,
		pos.CurrentPrice, pos.SwapTotal, pos.UpdatedAt, pos.ID, r.mode)
	if err != nil {
		return fmt.Errorf("failed to update position ID %d: %w", pos.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for update position ID %d: %w", pos.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("position ID %d not found for update: %w", pos.ID, ports.ErrNotFound)
	}
	return nil
}

// ClosePosition marks the position closed at the given exit price.
func (r *Repository) ClosePosition(ctx context.Context, id int64, exitPrice, unrealizedPNL, swapTotal float64, at time.Time) error {
	const query = `
	UPDATE sim_positions
	SET current_price = ?, swap_total = ?, updated_at = ?, status = ?
	WHERE id = ? AND mode = ? AND status = ?`

	result, err := r.conn(ctx).ExecContext(ctx, query,
		exitPrice, swapTotal, at, domain.StatusClosed, id, r.mode, domain.StatusOpen)
	if err != nil {
		return fmt.Errorf("failed to close position ID %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for close position ID %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("open position ID %d not found for close: %w", id, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Position closed", map[string]interface{}{"positionID": id, "exitPrice": exitPrice, "unrealizedPNL": unrealizedPNL})
	return nil
}

// FindOpen retrieves the currently open position, if any.
func (r *Repository) FindOpen(ctx context.Context) (*domain.Position, error) {
	const query = `
	SELECT id, direction, entry_price, current_price, units, swap_total, entry_time, updated_at, status
	FROM sim_positions
	WHERE mode = ? AND status = ?`

	row := r.conn(ctx).QueryRowContext(ctx, query, r.mode, domain.StatusOpen)
	pos, err := scanPosition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "No open position found", map[string]interface{}{"mode": r.mode})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query open position: %w", err)
	}
	return pos, nil
}

// --- TradeRepository Implementation ---

// CreateTrade saves a new trade record and returns its assigned ID.
func (r *Repository) CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO sim_trade_history (mode, position_id, direction, entry_price, exit_price, units,
	                               gross_pnl, spread_cost, swap_total, net_pnl, entry_time, exit_time, exit_reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var positionID sql.NullInt64
	if trade.PositionID != 0 {
		positionID = sql.NullInt64{Int64: trade.PositionID, Valid: true}
	}

	result, err := r.conn(ctx).ExecContext(ctx, query,
		r.mode, positionID, trade.Direction, trade.EntryPrice, trade.ExitPrice, trade.Units,
		trade.GrossPNL, trade.SpreadCost, trade.SwapTotal, trade.NetPNL,
		trade.EntryTime, trade.ExitTime, trade.ExitReason)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade history: %w", err)
	}
	trade.ID = id // Update domain object
	r.logger.Debug(ctx, "Trade history created", map[string]interface{}{"tradeID": id, "netPNL": trade.NetPNL, "reason": trade.ExitReason})
	return id, nil
}

// FindRecent retrieves the most recent trades, newest first, up to limit.
func (r *Repository) FindRecent(ctx context.Context, limit int) ([]*domain.Trade, error) {
	const query = `
	SELECT id, position_id, direction, entry_price, exit_price, units,
	       gross_pnl, spread_cost, swap_total, net_pnl, entry_time, exit_time, exit_reason
	FROM sim_trade_history
	WHERE mode = ? ORDER BY exit_time DESC LIMIT ?`

	rows, err := r.conn(ctx).QueryContext(ctx, query, r.mode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade history: %w", err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade history during FindRecent: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade history rows: %w", err)
	}
	return trades, nil
}

// WinRate returns wins/total over the whole trade log; 0 with no trades.
func (r *Repository) WinRate(ctx context.Context) (float64, error) {
	const query = `
	SELECT COUNT(*), COALESCE(SUM(CASE WHEN net_pnl > 0 THEN 1 ELSE 0 END), 0)
	FROM sim_trade_history
	WHERE mode = ?`

	var total, wins int
	err := r.conn(ctx).QueryRowContext(ctx, query, r.mode).Scan(&total, &wins)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate win rate: %w", err)
	}
	if total == 0 {
		return 0, nil
	}
	return float64(wins) / float64(total), nil
}

// --- EquityRepository Implementation ---

// AppendSample appends one equity sample.
func (r *Repository) AppendSample(ctx context.Context, sample *domain.EquitySample) error {
	const query = `
	INSERT INTO sim_equity_log (mode, sampled_at, balance, unrealized_pnl, equity, rate, price)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.conn(ctx).ExecContext(ctx, query,
		r.mode, sample.Time, sample.Balance, sample.UnrealizedPNL, sample.Equity, sample.Rate, sample.Price)
	if err != nil {
		return fmt.Errorf("failed to insert equity sample: %w", err)
	}
	return nil
}

// RecentSamples retrieves the most recent samples, newest first.
func (r *Repository) RecentSamples(ctx context.Context, limit int) ([]*domain.EquitySample, error) {
	const query = `
	SELECT sampled_at, balance, unrealized_pnl, equity, rate, price
	FROM sim_equity_log
	WHERE mode = ? ORDER BY sampled_at DESC LIMIT ?`

	rows, err := r.conn(ctx).QueryContext(ctx, query, r.mode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query equity samples: %w", err)
	}
	defer rows.Close()

	samples := make([]*domain.EquitySample, 0)
	for rows.Next() {
		s := &domain.EquitySample{}
		if err := rows.Scan(&s.Time, &s.Balance, &s.UnrealizedPNL, &s.Equity, &s.Rate, &s.Price); err != nil {
			return nil, fmt.Errorf("failed to scan equity sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating equity sample rows: %w", err)
	}
	return samples, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanPosition scans a row into a domain.Position struct.
func scanPosition(s scanner) (*domain.Position, error) {
	p := &domain.Position{}
	var direction, status string
	err := s.Scan(
		&p.ID, &direction, &p.EntryPrice, &p.CurrentPrice, &p.Units, &p.SwapTotal,
		&p.EntryTime, &p.UpdatedAt, &status)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	p.Direction = domain.Direction(direction)
	p.Status = domain.PositionStatus(status)
	return p, nil
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var positionID sql.NullInt64
	var direction string
	var exitReason sql.NullString
	err := s.Scan(
		&t.ID, &positionID, &direction, &t.EntryPrice, &t.ExitPrice, &t.Units,
		&t.GrossPNL, &t.SpreadCost, &t.SwapTotal, &t.NetPNL,
		&t.EntryTime, &t.ExitTime, &exitReason)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if positionID.Valid {
		t.PositionID = positionID.Int64
	}
	t.Direction = domain.Direction(direction)
	if exitReason.Valid {
		t.ExitReason = domain.ExitReason(exitReason.String)
	}
	return t, nil
}
