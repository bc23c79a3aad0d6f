package builtins

import (
	"context"

	"github.com/cinar/indicator"

	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*RSIBollinger)(nil)

// bollingerWarmup covers the 20-period Bollinger window plus RSI warmup.
const bollingerWarmup = 21

// RSIBollinger is a mean-reversion strategy combining Bollinger Bands with
// RSI confirmation. When price closes below the lower band while RSI is
// oversold it places a limit buy at the lower band; when price closes above
// the upper band or RSI is overbought it sells at market.
type RSIBollinger struct {
	oversold   float64
	overbought float64
}

// NewRSIBollinger creates a new RSIBollinger strategy with the given RSI
// thresholds.
func NewRSIBollinger(oversold, overbought float64) *RSIBollinger {
	return &RSIBollinger{
		oversold:   oversold,
		overbought: overbought,
	}
}

// Name returns "rsi-bollinger".
func (s *RSIBollinger) Name() string {
	return "rsi-bollinger"
}

// OnBar evaluates band touches with RSI confirmation.
func (s *RSIBollinger) OnBar(_ context.Context, history []domain.Bar) (domain.Signal, error) {
	last := history[len(history)-1]
	if len(history) < bollingerWarmup {
		return domain.Hold(last.Timestamp), nil
	}

	closing := closes(history)
	_, upper, lower := indicator.BollingerBands(closing)
	_, rsi := indicator.Rsi(closing)

	i := len(closing) - 1
	switch {
	case last.Close < lower[i] && rsi[i] < s.oversold:
		// Buy the dip, but only if price comes back to the lower band.
		return domain.Signal{
			Timestamp: last.Timestamp,
			Action:    domain.ActionBuy,
			Kind:      domain.OrderLimit,
			Price:     lower[i],
		}, nil
	case last.Close > upper[i] || rsi[i] > s.overbought:
		return domain.MarketSell(last.Timestamp), nil
	}
	return domain.Hold(last.Timestamp), nil
}
