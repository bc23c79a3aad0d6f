package backtest

import "math"

// Metrics is the aggregate performance summary of one run. It is derived
// solely from the equity curve and the trade list, recomputed fresh each run.
type Metrics struct {
	TotalReturnPct float64
	SharpeRatio    float64
	MaxDrawdownPct float64
	VolatilityPct  float64
	WinRatePct     float64
	ProfitFactor   float64
	TotalTrades    int
	FinalEquity    float64
}

// ComputeMetrics derives performance statistics from an equity curve and a
// closed-trade list. periodsPerYear is the annualization factor matching the
// bar frequency (252 for daily bars).
//
// Degenerate inputs produce defined sentinels instead of errors: a
// zero-variance return series reports Sharpe and volatility of 0, zero
// trades report a win rate of 0, and a run with no losing trades reports
// its gross profit as the profit factor.
func ComputeMetrics(equity []EquityPoint, trades []Trade, initialCapital, periodsPerYear float64) Metrics {
	m := Metrics{TotalTrades: len(trades)}
	if len(equity) == 0 {
		return m
	}

	final := equity[len(equity)-1].Equity
	m.FinalEquity = final
	if initialCapital > 0 {
		m.TotalReturnPct = (final/initialCapital - 1) * 100
	}

	// Simple period-over-period returns.
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev != 0 {
			returns = append(returns, (equity[i].Equity-prev)/prev)
		}
	}

	if sd := sampleStdev(returns); sd > 0 {
		m.SharpeRatio = mean(returns) / sd * math.Sqrt(periodsPerYear)
		m.VolatilityPct = sd * math.Sqrt(periodsPerYear) * 100
	}

	m.MaxDrawdownPct = maxDrawdown(equity) * 100

	var wins int
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
			grossProfit += t.PnL
		} else {
			grossLoss += -t.PnL
		}
	}
	if len(trades) > 0 {
		m.WinRatePct = float64(wins) / float64(len(trades)) * 100
	}
	if grossLoss > 0 {
		m.ProfitFactor = grossProfit / grossLoss
	} else {
		m.ProfitFactor = grossProfit
	}
	return m
}

// maxDrawdown returns the most negative fractional decline from the running
// peak of the curve. A non-decreasing curve yields exactly 0.
func maxDrawdown(equity []EquityPoint) float64 {
	var maxDD float64
	peak := equity[0].Equity
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (p.Equity - peak) / peak; dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdev returns the sample (n−1) standard deviation, or 0 when fewer
// than two observations exist.
func sampleStdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mu := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
