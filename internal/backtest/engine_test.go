package backtest

import (
	"context"
	"errors"
	"testing"

	"backlab/internal/domain"
	"backlab/internal/strategy"
	"backlab/internal/util"
)

// scriptStrategy emits a fixed signal at chosen bar indexes and holds
// everywhere else.
type scriptStrategy struct {
	name    string
	signals map[int]domain.Signal
}

func (s *scriptStrategy) Name() string { return s.name }

func (s *scriptStrategy) OnBar(_ context.Context, history []domain.Bar) (domain.Signal, error) {
	i := len(history) - 1
	if sig, ok := s.signals[i]; ok {
		sig.Timestamp = history[i].Timestamp
		return sig, nil
	}
	return domain.Hold(history[i].Timestamp), nil
}

// barsFromOpens builds a flat-range daily series where each bar opens and
// closes at the given price.
func barsFromOpens(opens ...float64) []domain.Bar {
	bars := make([]domain.Bar, len(opens))
	for i, p := range opens {
		bars[i] = domain.Bar{
			Symbol:    "TEST",
			Timestamp: day(i),
			Open:      p, High: p, Low: p, Close: p,
			Volume: 1000,
		}
	}
	return bars
}

func testBacktester(cfg Config) *Backtester {
	return NewBacktester(nil, strategy.NewRegistry(), cfg, util.NewLogger("error", "text"))
}

// Scenario: 10,000 starting capital, buy fills at the 100 open, sell fills
// at the 110 open, no friction. 100 units, +1,000 P&L, +10% total return.
func TestRunBarsBuySellRoundTrip(t *testing.T) {
	bt := testBacktester(Config{InitialCapital: 10000, MinBars: 1})
	strat := &scriptStrategy{
		name: "script",
		signals: map[int]domain.Signal{
			0: {Action: domain.ActionBuy, Kind: domain.OrderMarket},
			1: {Action: domain.ActionSell, Kind: domain.OrderMarket},
		},
	}
	bars := barsFromOpens(95, 100, 110)

	res, err := bt.RunBars(context.Background(), strat, bars)
	if err != nil {
		t.Fatalf("RunBars: %v", err)
	}

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Qty != 100 {
		t.Errorf("trade qty = %d, want 100", tr.Qty)
	}
	if tr.PnL != 1000 {
		t.Errorf("trade PnL = %v, want 1000", tr.PnL)
	}
	if !almostEqual(res.Metrics.TotalReturnPct, 10) {
		t.Errorf("total return = %v, want 10", res.Metrics.TotalReturnPct)
	}
	if res.Metrics.FinalEquity != 11000 {
		t.Errorf("final equity = %v, want 11000", res.Metrics.FinalEquity)
	}
}

// Scenario: capital 50 against a 100 open. The buy is skipped silently and
// equity stays flat at 50.
func TestRunBarsInsufficientCapital(t *testing.T) {
	bt := testBacktester(Config{InitialCapital: 50, MinBars: 1})
	strat := &scriptStrategy{
		name:    "script",
		signals: map[int]domain.Signal{0: {Action: domain.ActionBuy, Kind: domain.OrderMarket}},
	}
	bars := barsFromOpens(100, 100, 100)

	res, err := bt.RunBars(context.Background(), strat, bars)
	if err != nil {
		t.Fatalf("RunBars: %v", err)
	}
	if len(res.Trades) != 0 {
		t.Errorf("got %d trades, want 0", len(res.Trades))
	}
	for _, p := range res.EquityCurve {
		if p.Equity != 50 {
			t.Errorf("equity at %v = %v, want constant 50", p.Timestamp, p.Equity)
		}
	}
}

// The equity curve must have exactly one point per bar, even when nothing
// ever trades.
func TestRunBarsEquityCurveLength(t *testing.T) {
	bt := testBacktester(Config{InitialCapital: 10000, MinBars: 1})
	strat := &scriptStrategy{name: "all-hold"}
	bars := barsFromOpens(100, 101, 102, 103, 104, 105, 106)

	res, err := bt.RunBars(context.Background(), strat, bars)
	if err != nil {
		t.Fatalf("RunBars: %v", err)
	}
	if len(res.EquityCurve) != len(bars) {
		t.Errorf("equity curve length = %d, want %d", len(res.EquityCurve), len(bars))
	}
}

// A signal at bar t must fill against bar t+1, never bar t.
func TestRunBarsNoLookahead(t *testing.T) {
	bt := testBacktester(Config{InitialCapital: 10000, MinBars: 1})
	strat := &scriptStrategy{
		name:    "script",
		signals: map[int]domain.Signal{1: {Action: domain.ActionBuy, Kind: domain.OrderMarket}},
	}
	// Signal at the 100 bar; the fill must land at the next bar's 120 open.
	bars := barsFromOpens(90, 100, 120, 120)

	res, err := bt.RunBars(context.Background(), strat, bars)
	if err != nil {
		t.Fatalf("RunBars: %v", err)
	}
	// 10000 / 120 = 83 units at the 120 open: 40 cash + 83 × 120 = 10000.
	// A lookahead fill at the 100 bar would instead end near 12000.
	if res.Metrics.FinalEquity != 10000 {
		t.Errorf("final equity = %v, want 10000 (fill at next open)", res.Metrics.FinalEquity)
	}
	if res.EquityCurve[1].Equity != 10000 {
		t.Errorf("equity on signal bar = %v, want untouched 10000", res.EquityCurve[1].Equity)
	}
}

func TestRunBarsDataErrors(t *testing.T) {
	bt := testBacktester(Config{InitialCapital: 10000, MinBars: 5})
	strat := &scriptStrategy{name: "all-hold"}
	var derr *DataError

	_, err := bt.RunBars(context.Background(), strat, nil)
	if !errors.As(err, &derr) {
		t.Errorf("empty series: err = %v, want DataError", err)
	}

	_, err = bt.RunBars(context.Background(), strat, barsFromOpens(100, 101))
	if !errors.As(err, &derr) {
		t.Errorf("short series: err = %v, want DataError", err)
	}

	// Duplicate timestamps.
	bars := barsFromOpens(100, 101, 102, 103, 104)
	bars[3].Timestamp = bars[2].Timestamp
	_, err = bt.RunBars(context.Background(), strat, bars)
	if !errors.As(err, &derr) {
		t.Errorf("unordered series: err = %v, want DataError", err)
	}
}

func TestRunBarsRejectsMalformedOHLC(t *testing.T) {
	bt := testBacktester(Config{InitialCapital: 10000, MinBars: 2})
	strat := &scriptStrategy{name: "all-hold"}
	var derr *DataError

	// High below low.
	bars := barsFromOpens(100, 101, 102)
	bars[1].High = 90
	bars[1].Low = 101
	_, err := bt.RunBars(context.Background(), strat, bars)
	if !errors.As(err, &derr) {
		t.Errorf("high < low: err = %v, want DataError", err)
	}

	// High below close.
	bars = barsFromOpens(100, 101, 102)
	bars[2].Close = bars[2].High + 5
	_, err = bt.RunBars(context.Background(), strat, bars)
	if !errors.As(err, &derr) {
		t.Errorf("high < close: err = %v, want DataError", err)
	}

	// Low above open, high still valid.
	bars = barsFromOpens(100, 101, 102)
	bars[0].High = 110
	bars[0].Low = bars[0].Open + 1
	_, err = bt.RunBars(context.Background(), strat, bars)
	if !errors.As(err, &derr) {
		t.Errorf("low > open: err = %v, want DataError", err)
	}
}

func TestRunUnknownStrategy(t *testing.T) {
	bt := testBacktester(Config{InitialCapital: 10000, MinBars: 1})
	var verr *ValidationError

	_, err := bt.Run(context.Background(), "no-such-strategy", "TEST", "us", day(0), day(10))
	if !errors.As(err, &verr) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.InitialCapital != 100000 {
		t.Errorf("InitialCapital = %v, want 100000", cfg.InitialCapital)
	}
	if cfg.RiskPct != 0.02 {
		t.Errorf("RiskPct = %v, want 0.02", cfg.RiskPct)
	}
	if cfg.RewardRatio != 2 {
		t.Errorf("RewardRatio = %v, want 2", cfg.RewardRatio)
	}
	if cfg.PeriodsPerYear != 252 {
		t.Errorf("PeriodsPerYear = %v, want 252", cfg.PeriodsPerYear)
	}
}

func TestConfigValidation(t *testing.T) {
	bt := testBacktester(Config{InitialCapital: 1000, MinBars: 1})
	bt.cfg.Commission = -0.01

	_, err := bt.RunBars(context.Background(), &scriptStrategy{name: "x"}, barsFromOpens(100, 101))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("negative commission: err = %v, want ValidationError", err)
	}
}

var _ strategy.Strategy = (*scriptStrategy)(nil)
