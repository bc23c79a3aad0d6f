package builtins

import (
	"context"

	"github.com/cinar/indicator"

	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*RSIMomentum)(nil)

// rsiWarmup is the number of bars the 14-period RSI needs before its values
// stabilize enough to act on.
const rsiWarmup = 15

// RSIMomentum buys when the 14-period RSI drops below the oversold threshold
// and sells when it rises above the overbought threshold.
type RSIMomentum struct {
	oversold   float64
	overbought float64
}

// NewRSIMomentum creates a new RSIMomentum strategy with the given oversold
// and overbought RSI thresholds.
func NewRSIMomentum(oversold, overbought float64) *RSIMomentum {
	return &RSIMomentum{
		oversold:   oversold,
		overbought: overbought,
	}
}

// Name returns "rsi-momentum".
func (s *RSIMomentum) Name() string {
	return "rsi-momentum"
}

// OnBar evaluates the RSI thresholds on the latest close.
func (s *RSIMomentum) OnBar(_ context.Context, history []domain.Bar) (domain.Signal, error) {
	last := history[len(history)-1]
	if len(history) < rsiWarmup {
		return domain.Hold(last.Timestamp), nil
	}

	_, rsi := indicator.Rsi(closes(history))
	cur := rsi[len(rsi)-1]

	switch {
	case cur < s.oversold:
		return domain.MarketBuy(last.Timestamp), nil
	case cur > s.overbought:
		return domain.MarketSell(last.Timestamp), nil
	}
	return domain.Hold(last.Timestamp), nil
}
