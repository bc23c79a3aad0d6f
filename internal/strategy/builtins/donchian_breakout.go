package builtins

import (
	"context"

	"github.com/cinar/indicator"

	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*DonchianBreakout)(nil)

// DonchianBreakout is a channel breakout strategy. When price closes at a new
// period-high it places a stop buy just above the prior channel top; when
// price closes at a new period-low it exits with a stop sell at the channel
// bottom.
type DonchianBreakout struct {
	period int
}

// NewDonchianBreakout creates a new DonchianBreakout strategy over the given
// lookback period.
func NewDonchianBreakout(period int) *DonchianBreakout {
	return &DonchianBreakout{period: period}
}

// Name returns "donchian-breakout".
func (s *DonchianBreakout) Name() string {
	return "donchian-breakout"
}

// OnBar compares the latest close against the prior channel bounds.
func (s *DonchianBreakout) OnBar(_ context.Context, history []domain.Bar) (domain.Signal, error) {
	last := history[len(history)-1]
	if len(history) <= s.period {
		return domain.Hold(last.Timestamp), nil
	}

	highs, lows := highsLows(history)
	upper := indicator.Max(s.period, highs)
	lower := indicator.Min(s.period, lows)

	// Channel bounds as of the previous bar, so the current bar can break them.
	i := len(history) - 2
	switch {
	case last.Close > upper[i]:
		return domain.Signal{
			Timestamp: last.Timestamp,
			Action:    domain.ActionBuy,
			Kind:      domain.OrderStop,
			Price:     upper[i],
		}, nil
	case last.Close < lower[i]:
		return domain.Signal{
			Timestamp: last.Timestamp,
			Action:    domain.ActionSell,
			Kind:      domain.OrderStop,
			Price:     lower[i],
		}, nil
	}
	return domain.Hold(last.Timestamp), nil
}
