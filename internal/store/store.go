// Package store defines storage interfaces for persisting and retrieving
// bar data and backtest run history.
package store

import (
	"context"
	"time"

	"backlab/internal/domain"
)

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars to storage.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol and market within [start, end].
	ReadBars(ctx context.Context, symbol string, market string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in the given market.
	ListSymbols(ctx context.Context, market string) ([]string, error)
}

// RunRecord is the persisted summary of a completed backtest run.
type RunRecord struct {
	ID             int64
	Symbol         string
	Market         string
	Strategy       string
	Start          time.Time
	End            time.Time
	CreatedAt      time.Time
	InitialCapital float64
	FinalEquity    float64
	TotalReturnPct float64
	SharpeRatio    float64
	MaxDrawdownPct float64
	WinRatePct     float64
	ProfitFactor   float64
	TotalTrades    int
}

// RunTradeRecord is one classified round-trip trade belonging to a run.
type RunTradeRecord struct {
	RunID       int64
	Side        string
	Qty         int64
	EntryTime   time.Time
	EntryPrice  float64
	ExitTime    time.Time
	ExitPrice   float64
	PnL         float64
	StopPrice   float64
	TargetPrice float64
	Outcome     string
}

// RunStore persists and retrieves backtest run history.
type RunStore interface {
	// SaveRun inserts a run summary and its trades, returning the run ID.
	SaveRun(ctx context.Context, run *RunRecord, trades []RunTradeRecord) (int64, error)

	// GetRun retrieves a single run summary by its ID.
	GetRun(ctx context.Context, id int64) (*RunRecord, error)

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	// ListRunTrades returns the trades recorded for a run, entry-time order.
	ListRunTrades(ctx context.Context, runID int64) ([]RunTradeRecord, error)
}
