package backtest

import (
	"context"
	"log/slog"
	"time"

	"backlab/internal/domain"
	"backlab/internal/store"
	"backlab/internal/strategy"
)

// Config holds the engine parameters for a run. The zero value is not
// usable; call ApplyDefaults or fill every field.
type Config struct {
	InitialCapital float64
	Commission     float64 // fraction of notional, per side
	Slippage       float64 // fraction of the open price
	RiskPct        float64 // trade-level classifier risk, fraction of entry
	RewardRatio    float64 // trade-level classifier reward:risk multiple
	MinBars        int     // minimum series length, else DataError
	PeriodsPerYear float64 // annualization factor (252 for daily bars)
}

// ApplyDefaults fills unset fields with the standard daily-bar defaults.
func (c *Config) ApplyDefaults() {
	if c.InitialCapital == 0 {
		c.InitialCapital = 100000
	}
	if c.RiskPct == 0 {
		c.RiskPct = 0.02
	}
	if c.RewardRatio == 0 {
		c.RewardRatio = 2
	}
	if c.MinBars == 0 {
		c.MinBars = 50
	}
	if c.PeriodsPerYear == 0 {
		c.PeriodsPerYear = 252
	}
}

func (c *Config) validate() error {
	if c.InitialCapital <= 0 {
		return &ValidationError{Field: "initial capital", Reason: "must be positive"}
	}
	if c.Commission < 0 {
		return &ValidationError{Field: "commission", Reason: "must not be negative"}
	}
	if c.Slippage < 0 {
		return &ValidationError{Field: "slippage", Reason: "must not be negative"}
	}
	return nil
}

// Result is the full output bundle of one backtest run.
type Result struct {
	Strategy       string
	Symbol         string
	Market         string
	Start          time.Time
	End            time.Time
	InitialCapital float64
	Metrics        Metrics
	EquityCurve    []EquityPoint
	Trades         []Trade
	TradeLevels    []TradeLevels
}

// Backtester replays historical bar data through a strategy and computes
// performance metrics.
type Backtester struct {
	store    store.BarStore
	registry *strategy.Registry
	cfg      Config
	log      *slog.Logger
}

// NewBacktester creates a Backtester that reads bars from the given store and
// looks up strategies in the provided registry.
func NewBacktester(barStore store.BarStore, registry *strategy.Registry, cfg Config, logger *slog.Logger) *Backtester {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Backtester{
		store:    barStore,
		registry: registry,
		cfg:      cfg,
		log:      logger,
	}
}

// Config returns the engine configuration after defaulting.
func (bt *Backtester) Config() Config { return bt.cfg }

// Registry returns the strategy registry the engine dispatches against.
func (bt *Backtester) Registry() *strategy.Registry { return bt.registry }

// Run executes a backtest for the named strategy over the symbol and date
// range, reading bars from the store.
func (bt *Backtester) Run(ctx context.Context, strategyName, symbol, market string, start, end time.Time) (*Result, error) {
	strat, ok := bt.registry.Get(strategyName)
	if !ok {
		return nil, &ValidationError{Field: "strategy", Reason: "unknown strategy " + strategyName}
	}

	bars, err := bt.store.ReadBars(ctx, symbol, market, start, end)
	if err != nil {
		return nil, err
	}

	res, err := bt.RunBars(ctx, strat, bars)
	if err != nil {
		return nil, err
	}
	res.Symbol = symbol
	res.Market = market
	res.Start = start
	res.End = end
	return res, nil
}

// RunBars executes a backtest for the given strategy over an in-memory bar
// series. The series must be non-empty, at least MinBars long, and ordered
// by strictly increasing timestamp.
//
// The loop is strictly sequential and pure in-memory: the signal generated
// at bar t is evaluated against bar t+1, and the ledger is marked to market
// once per bar whether or not anything traded.
func (bt *Backtester) RunBars(ctx context.Context, strat strategy.Strategy, bars []domain.Bar) (*Result, error) {
	if err := bt.cfg.validate(); err != nil {
		return nil, err
	}
	if err := validateBars(bars, bt.cfg.MinBars); err != nil {
		return nil, err
	}

	exec := &Executor{Commission: bt.cfg.Commission, Slippage: bt.cfg.Slippage}
	ledger := NewLedger(bt.cfg.InitialCapital)

	var pending domain.Signal
	for i, bar := range bars {
		if i > 0 {
			fill, err := exec.Evaluate(pending, bar, ledger.Cash(), ledger.PositionQty())
			if err != nil {
				return nil, err
			}
			if fill != nil {
				ledger.Apply(fill)
			} else if pending.Action == domain.ActionBuy {
				bt.log.Debug("order not filled",
					"strategy", strat.Name(),
					"bar", bar.Timestamp,
					"kind", pending.Kind,
					"cash", ledger.Cash())
			}
		}

		ledger.MarkToMarket(bar)

		sig, err := strat.OnBar(ctx, bars[:i+1])
		if err != nil {
			return nil, err
		}
		pending = sig
	}

	equity := ledger.EquityCurve()
	trades := ledger.Trades()
	return &Result{
		Strategy:       strat.Name(),
		InitialCapital: bt.cfg.InitialCapital,
		Metrics:        ComputeMetrics(equity, trades, bt.cfg.InitialCapital, bt.cfg.PeriodsPerYear),
		EquityCurve:    equity,
		Trades:         trades,
		TradeLevels:    ClassifyTrades(trades, bt.cfg.RiskPct, bt.cfg.RewardRatio),
	}, nil
}

// validateBars fails fast on an empty, short, out-of-order, or malformed
// series. Every bar must satisfy high ≥ max(open, close, low) and
// low ≤ min(open, close, high).
func validateBars(bars []domain.Bar, minBars int) error {
	if len(bars) == 0 {
		return &DataError{Reason: "empty series"}
	}
	if len(bars) < minBars {
		return &DataError{
			Symbol: bars[0].Symbol,
			Reason: "fewer bars than required minimum",
		}
	}
	for i, b := range bars {
		if i > 0 && !b.Timestamp.After(bars[i-1].Timestamp) {
			return &DataError{
				Symbol: bars[0].Symbol,
				Reason: "timestamps not strictly increasing",
			}
		}
		if b.High < b.Low || b.High < b.Open || b.High < b.Close {
			return &DataError{
				Symbol: bars[0].Symbol,
				Reason: "bar high below another price",
			}
		}
		if b.Low > b.Open || b.Low > b.Close {
			return &DataError{
				Symbol: bars[0].Symbol,
				Reason: "bar low above another price",
			}
		}
	}
	return nil
}
