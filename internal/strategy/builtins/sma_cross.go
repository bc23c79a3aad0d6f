package builtins

import (
	"context"

	"github.com/cinar/indicator"

	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*SMACross)(nil)

// SMACross implements a simple moving average crossover strategy. It generates
// a buy signal when the short-period SMA crosses above the long-period SMA,
// and a sell signal when it crosses below.
type SMACross struct {
	shortPeriod int
	longPeriod  int
}

// NewSMACross creates a new SMACross strategy with the specified short and
// long moving average periods.
func NewSMACross(short, long int) *SMACross {
	return &SMACross{
		shortPeriod: short,
		longPeriod:  long,
	}
}

// Name returns "sma-cross".
func (s *SMACross) Name() string {
	return "sma-cross"
}

// OnBar detects short/long SMA crossovers on the close series.
func (s *SMACross) OnBar(_ context.Context, history []domain.Bar) (domain.Signal, error) {
	last := history[len(history)-1]
	if len(history) <= s.longPeriod {
		return domain.Hold(last.Timestamp), nil
	}

	closing := closes(history)
	short := indicator.Sma(s.shortPeriod, closing)
	long := indicator.Sma(s.longPeriod, closing)

	i := len(closing) - 1
	crossedUp := short[i-1] <= long[i-1] && short[i] > long[i]
	crossedDown := short[i-1] >= long[i-1] && short[i] < long[i]

	switch {
	case crossedUp:
		return domain.MarketBuy(last.Timestamp), nil
	case crossedDown:
		return domain.MarketSell(last.Timestamp), nil
	}
	return domain.Hold(last.Timestamp), nil
}
