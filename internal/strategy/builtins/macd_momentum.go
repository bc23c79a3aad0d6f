package builtins

import (
	"context"

	"github.com/cinar/indicator"

	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*MACDMomentum)(nil)

// macdWarmup covers the 26-period slow EMA plus the 9-period signal line.
const macdWarmup = 35

// MACDMomentum buys when the MACD line crosses above its signal line and
// sells when it crosses below. Periods are the conventional 12/26/9.
type MACDMomentum struct{}

// NewMACDMomentum creates a new MACDMomentum strategy.
func NewMACDMomentum() *MACDMomentum {
	return &MACDMomentum{}
}

// Name returns "macd-momentum".
func (s *MACDMomentum) Name() string {
	return "macd-momentum"
}

// OnBar detects MACD/signal-line crossovers on the close series.
func (s *MACDMomentum) OnBar(_ context.Context, history []domain.Bar) (domain.Signal, error) {
	last := history[len(history)-1]
	if len(history) < macdWarmup {
		return domain.Hold(last.Timestamp), nil
	}

	macd, signal := indicator.Macd(closes(history))

	i := len(macd) - 1
	crossedUp := macd[i-1] <= signal[i-1] && macd[i] > signal[i]
	crossedDown := macd[i-1] >= signal[i-1] && macd[i] < signal[i]

	switch {
	case crossedUp:
		return domain.MarketBuy(last.Timestamp), nil
	case crossedDown:
		return domain.MarketSell(last.Timestamp), nil
	}
	return domain.Hold(last.Timestamp), nil
}
