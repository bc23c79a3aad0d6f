// Package builtins provides built-in strategy implementations that ship with
// the backlab platform.
package builtins

import (
	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// RegisterAll registers every built-in strategy with default parameters.
func RegisterAll(r *strategy.Registry) {
	r.Register(NewSMACross(20, 50))
	r.Register(NewRSIMomentum(30, 70))
	r.Register(NewMACDMomentum())
	r.Register(NewRSIBollinger(30, 70))
	r.Register(NewDonchianBreakout(20))
	r.Register(NewStochasticBreakout(20, 80))
}

// closes extracts the close series from a bar history.
func closes(history []domain.Bar) []float64 {
	out := make([]float64, len(history))
	for i, b := range history {
		out[i] = b.Close
	}
	return out
}

// highsLows extracts the high and low series from a bar history.
func highsLows(history []domain.Bar) (highs, lows []float64) {
	highs = make([]float64, len(history))
	lows = make([]float64, len(history))
	for i, b := range history {
		highs[i] = b.High
		lows[i] = b.Low
	}
	return highs, lows
}
