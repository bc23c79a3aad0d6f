package backtest

import (
	"math"
	"testing"
)

func pts(values ...float64) []EquityPoint {
	out := make([]EquityPoint, len(values))
	for i, v := range values {
		out[i] = EquityPoint{Timestamp: day(i), Equity: v}
	}
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestComputeMetricsTotalReturn(t *testing.T) {
	m := ComputeMetrics(pts(10000, 10500, 11000), nil, 10000, 252)
	if !almostEqual(m.TotalReturnPct, 10) {
		t.Errorf("total return = %v, want 10", m.TotalReturnPct)
	}
	if m.FinalEquity != 11000 {
		t.Errorf("final equity = %v, want 11000", m.FinalEquity)
	}
}

func TestComputeMetricsFlatCurve(t *testing.T) {
	// Zero-variance returns: Sharpe and volatility are 0, never NaN.
	m := ComputeMetrics(pts(10000, 10000, 10000, 10000), nil, 10000, 252)
	if m.SharpeRatio != 0 {
		t.Errorf("Sharpe on flat curve = %v, want 0", m.SharpeRatio)
	}
	if m.VolatilityPct != 0 {
		t.Errorf("volatility on flat curve = %v, want 0", m.VolatilityPct)
	}
	if math.IsNaN(m.SharpeRatio) || math.IsInf(m.SharpeRatio, 0) {
		t.Error("Sharpe must be a finite number")
	}
}

func TestComputeMetricsSinglePoint(t *testing.T) {
	m := ComputeMetrics(pts(10000), nil, 10000, 252)
	if m.SharpeRatio != 0 {
		t.Errorf("Sharpe on single point = %v, want 0", m.SharpeRatio)
	}
	if m.TotalReturnPct != 0 {
		t.Errorf("total return = %v, want 0", m.TotalReturnPct)
	}
}

func TestComputeMetricsMaxDrawdown(t *testing.T) {
	// Peak 12000, trough 9000: drawdown = (9000−12000)/12000 = −25%.
	m := ComputeMetrics(pts(10000, 12000, 9000, 11000), nil, 10000, 252)
	if !almostEqual(m.MaxDrawdownPct, -25) {
		t.Errorf("max drawdown = %v, want -25", m.MaxDrawdownPct)
	}
}

func TestComputeMetricsDrawdownNonDecreasing(t *testing.T) {
	m := ComputeMetrics(pts(10000, 10000, 10200, 10500, 10500, 11000), nil, 10000, 252)
	if m.MaxDrawdownPct != 0 {
		t.Errorf("max drawdown on non-decreasing curve = %v, want exactly 0", m.MaxDrawdownPct)
	}
}

func TestComputeMetricsSharpe(t *testing.T) {
	// Returns: +10%, −5%. mean = 0.025, sample stdev ≈ 0.106066.
	m := ComputeMetrics(pts(10000, 11000, 10450), nil, 10000, 252)
	want := 0.025 / 0.10606601717798213 * math.Sqrt(252)
	if !almostEqual(m.SharpeRatio, want) {
		t.Errorf("Sharpe = %v, want %v", m.SharpeRatio, want)
	}
}

func TestComputeMetricsTradeStats(t *testing.T) {
	trades := []Trade{
		{PnL: 200},
		{PnL: -100},
		{PnL: 50},
	}
	m := ComputeMetrics(pts(10000, 10150), trades, 10000, 252)

	if !almostEqual(m.WinRatePct, 200.0/3) {
		t.Errorf("win rate = %v, want 66.67", m.WinRatePct)
	}
	if !almostEqual(m.ProfitFactor, 2.5) {
		t.Errorf("profit factor = %v, want 2.5", m.ProfitFactor)
	}
	if m.TotalTrades != 3 {
		t.Errorf("total trades = %d, want 3", m.TotalTrades)
	}
}

func TestComputeMetricsNoTrades(t *testing.T) {
	m := ComputeMetrics(pts(10000, 10100), nil, 10000, 252)
	if m.WinRatePct != 0 {
		t.Errorf("win rate with no trades = %v, want 0", m.WinRatePct)
	}
	if m.ProfitFactor != 0 {
		t.Errorf("profit factor with no trades = %v, want 0", m.ProfitFactor)
	}
}

func TestComputeMetricsNoLosers(t *testing.T) {
	trades := []Trade{{PnL: 300}, {PnL: 200}}
	m := ComputeMetrics(pts(10000, 10500), trades, 10000, 252)

	// No losing trades: profit factor falls back to gross profit, never
	// infinity or a division failure.
	if m.ProfitFactor != 500 {
		t.Errorf("profit factor with no losers = %v, want gross profit 500", m.ProfitFactor)
	}
	if m.WinRatePct != 100 {
		t.Errorf("win rate = %v, want 100", m.WinRatePct)
	}
}

func TestClassifyTrades(t *testing.T) {
	trades := []Trade{
		{Side: "long", EntryPrice: 100, ExitPrice: 104.5}, // target 104
		{Side: "long", EntryPrice: 100, ExitPrice: 97.5},  // stop 98
		{Side: "long", EntryPrice: 100, ExitPrice: 101},
	}
	levels := ClassifyTrades(trades, 0.02, 2)
	if len(levels) != 3 {
		t.Fatalf("got %d classified trades, want 3", len(levels))
	}

	if !almostEqual(levels[0].StopPrice, 98) || !almostEqual(levels[0].TargetPrice, 104) {
		t.Errorf("levels = stop %v target %v, want 98/104", levels[0].StopPrice, levels[0].TargetPrice)
	}
	if levels[0].Outcome != OutcomeTargetHit {
		t.Errorf("outcome[0] = %q, want target_hit", levels[0].Outcome)
	}
	if levels[1].Outcome != OutcomeStopHit {
		t.Errorf("outcome[1] = %q, want stop_hit", levels[1].Outcome)
	}
	if levels[2].Outcome != OutcomeOtherExit {
		t.Errorf("outcome[2] = %q, want other_exit", levels[2].Outcome)
	}
}

func TestClassifyTradesShortSide(t *testing.T) {
	trades := []Trade{
		{Side: "short", EntryPrice: 100, ExitPrice: 95}, // target 96
		{Side: "short", EntryPrice: 100, ExitPrice: 103},
	}
	levels := ClassifyTrades(trades, 0.02, 2)

	if !almostEqual(levels[0].StopPrice, 102) || !almostEqual(levels[0].TargetPrice, 96) {
		t.Errorf("short levels = stop %v target %v, want 102/96", levels[0].StopPrice, levels[0].TargetPrice)
	}
	if levels[0].Outcome != OutcomeTargetHit {
		t.Errorf("outcome[0] = %q, want target_hit", levels[0].Outcome)
	}
	if levels[1].Outcome != OutcomeStopHit {
		t.Errorf("outcome[1] = %q, want stop_hit", levels[1].Outcome)
	}
}
