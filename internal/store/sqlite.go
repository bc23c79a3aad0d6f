package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol           TEXT NOT NULL,
	market           TEXT NOT NULL,
	strategy         TEXT NOT NULL,
	start_ms         INTEGER NOT NULL,
	end_ms           INTEGER NOT NULL,
	created_ms       INTEGER NOT NULL,
	initial_capital  REAL NOT NULL,
	final_equity     REAL NOT NULL,
	total_return_pct REAL NOT NULL,
	sharpe_ratio     REAL NOT NULL,
	max_drawdown_pct REAL NOT NULL,
	win_rate_pct     REAL NOT NULL,
	profit_factor    REAL NOT NULL,
	total_trades     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_trades (
	run_id       INTEGER NOT NULL REFERENCES runs(id),
	side         TEXT NOT NULL,
	qty          INTEGER NOT NULL,
	entry_ms     INTEGER NOT NULL,
	entry_price  REAL NOT NULL,
	exit_ms      INTEGER NOT NULL,
	exit_price   REAL NOT NULL,
	pnl          REAL NOT NULL,
	stop_price   REAL NOT NULL,
	target_price REAL NOT NULL,
	outcome      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_trades_run ON run_trades(run_id);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts a run summary and its classified trades in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord, trades []RunTradeRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (
			symbol, market, strategy, start_ms, end_ms, created_ms,
			initial_capital, final_equity, total_return_pct, sharpe_ratio,
			max_drawdown_pct, win_rate_pct, profit_factor, total_trades
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Symbol, run.Market, run.Strategy,
		run.Start.UnixMilli(), run.End.UnixMilli(), created.UnixMilli(),
		run.InitialCapital, run.FinalEquity, run.TotalReturnPct, run.SharpeRatio,
		run.MaxDrawdownPct, run.WinRatePct, run.ProfitFactor, run.TotalTrades,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i := range trades {
		t := &trades[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_trades (
				run_id, side, qty, entry_ms, entry_price, exit_ms, exit_price,
				pnl, stop_price, target_price, outcome
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, t.Side, t.Qty, t.EntryTime.UnixMilli(), t.EntryPrice,
			t.ExitTime.UnixMilli(), t.ExitPrice, t.PnL,
			t.StopPrice, t.TargetPrice, t.Outcome,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting run trade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetRun retrieves a single run summary by its ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, market, strategy, start_ms, end_ms, created_ms,
		       initial_capital, final_equity, total_return_pct, sharpe_ratio,
		       max_drawdown_pct, win_rate_pct, profit_factor, total_trades
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, market, strategy, start_ms, end_ms, created_ms,
		       initial_capital, final_equity, total_return_pct, sharpe_ratio,
		       max_drawdown_pct, win_rate_pct, profit_factor, total_trades
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ListRunTrades returns the trades recorded for a run, entry-time order.
func (s *SQLiteStore) ListRunTrades(ctx context.Context, runID int64) ([]RunTradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, side, qty, entry_ms, entry_price, exit_ms, exit_price,
		       pnl, stop_price, target_price, outcome
		FROM run_trades WHERE run_id = ? ORDER BY entry_ms`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []RunTradeRecord
	for rows.Next() {
		var t RunTradeRecord
		var entryMs, exitMs int64
		err := rows.Scan(&t.RunID, &t.Side, &t.Qty, &entryMs, &t.EntryPrice,
			&exitMs, &t.ExitPrice, &t.PnL, &t.StopPrice, &t.TargetPrice, &t.Outcome)
		if err != nil {
			return nil, err
		}
		t.EntryTime = time.UnixMilli(entryMs)
		t.ExitTime = time.UnixMilli(exitMs)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// scanner lets scanRun work for both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*RunRecord, error) {
	var r RunRecord
	var startMs, endMs, createdMs int64
	err := row.Scan(&r.ID, &r.Symbol, &r.Market, &r.Strategy, &startMs, &endMs,
		&createdMs, &r.InitialCapital, &r.FinalEquity, &r.TotalReturnPct,
		&r.SharpeRatio, &r.MaxDrawdownPct, &r.WinRatePct, &r.ProfitFactor,
		&r.TotalTrades)
	if err != nil {
		return nil, err
	}
	r.Start = time.UnixMilli(startMs)
	r.End = time.UnixMilli(endMs)
	r.CreatedAt = time.UnixMilli(createdMs)
	return &r, nil
}
