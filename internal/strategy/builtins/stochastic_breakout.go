package builtins

import (
	"context"

	"github.com/cinar/indicator"

	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*StochasticBreakout)(nil)

// stochasticWarmup covers the 14-period %K window plus the 3-period %D
// smoothing.
const stochasticWarmup = 18

// StochasticBreakout buys when %K crosses above %D inside the oversold zone
// and sells when %K crosses below %D inside the overbought zone.
type StochasticBreakout struct {
	oversold   float64
	overbought float64
}

// NewStochasticBreakout creates a new StochasticBreakout strategy with the
// given oversold and overbought zone bounds.
func NewStochasticBreakout(oversold, overbought float64) *StochasticBreakout {
	return &StochasticBreakout{
		oversold:   oversold,
		overbought: overbought,
	}
}

// Name returns "stochastic-breakout".
func (s *StochasticBreakout) Name() string {
	return "stochastic-breakout"
}

// OnBar detects %K/%D crossovers inside the extreme zones.
func (s *StochasticBreakout) OnBar(_ context.Context, history []domain.Bar) (domain.Signal, error) {
	last := history[len(history)-1]
	if len(history) < stochasticWarmup {
		return domain.Hold(last.Timestamp), nil
	}

	highs, lows := highsLows(history)
	k, d := indicator.StochasticOscillator(highs, lows, closes(history))

	i := len(k) - 1
	crossedUp := k[i-1] <= d[i-1] && k[i] > d[i]
	crossedDown := k[i-1] >= d[i-1] && k[i] < d[i]

	switch {
	case crossedUp && k[i] < s.oversold:
		return domain.MarketBuy(last.Timestamp), nil
	case crossedDown && k[i] > s.overbought:
		return domain.MarketSell(last.Timestamp), nil
	}
	return domain.Hold(last.Timestamp), nil
}
