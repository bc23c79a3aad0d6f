// Package backtest implements the backtest execution engine: the order-fill
// simulator, the portfolio ledger, the performance-metrics computation, and
// the post-hoc trade-level classifier.
//
// The engine enforces temporal causality by construction: the signal emitted
// for bar t is evaluated against bar t+1, so no fill can use information the
// strategy did not have.
package backtest

import (
	"math"
	"time"

	"backlab/internal/domain"
)

// Fill is the realized execution of an order against a single bar.
type Fill struct {
	Timestamp  time.Time
	Action     domain.Action
	Qty        int64
	Price      float64
	Commission float64
}

// Executor converts one-bar-old signals into fills against the current bar.
// Limit and stop orders live for exactly one bar: if the constraint is not
// met within the evaluation bar, the order is discarded, never retried.
type Executor struct {
	Commission float64 // fraction of notional, per side
	Slippage   float64 // fraction of the open price, adverse direction
}

// Evaluate simulates the signal against bar given the account's current cash
// and held quantity. It returns nil with no error when the order does not
// execute (unmet constraint, nothing to sell, or insufficient cash — all
// expected outcomes, not failures).
func (e *Executor) Evaluate(sig domain.Signal, bar domain.Bar, cash float64, held int64) (*Fill, error) {
	switch sig.Action {
	case domain.ActionHold, "":
		return nil, nil
	case domain.ActionBuy, domain.ActionSell:
	default:
		return nil, &ValidationError{Field: "signal action", Reason: string(sig.Action)}
	}
	if sig.Qty < 0 {
		return nil, &ValidationError{Field: "signal quantity", Reason: "must not be negative"}
	}

	price, ok, err := e.fillPrice(sig, bar)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var qty int64
	if sig.Action == domain.ActionBuy {
		// Whole units affordable after per-unit commission.
		affordable := int64(math.Floor(cash / (price * (1 + e.Commission))))
		qty = affordable
		if sig.Qty > 0 && sig.Qty < affordable {
			qty = sig.Qty
		}
		if qty < 1 {
			return nil, nil
		}
	} else {
		if held <= 0 {
			return nil, nil
		}
		qty = held
		if sig.Qty > 0 && sig.Qty < held {
			qty = sig.Qty
		}
	}

	return &Fill{
		Timestamp:  bar.Timestamp,
		Action:     sig.Action,
		Qty:        qty,
		Price:      price,
		Commission: price * float64(qty) * e.Commission,
	}, nil
}

// fillPrice resolves the execution price for the order variant. The boolean
// reports whether the order executes at all on this bar. The returned price
// always lies within [bar.Low, bar.High].
func (e *Executor) fillPrice(sig domain.Signal, bar domain.Bar) (float64, bool, error) {
	switch sig.Kind {
	case domain.OrderMarket, "":
		price := bar.Open
		if sig.Action == domain.ActionBuy {
			price *= 1 + e.Slippage
		} else {
			price *= 1 - e.Slippage
		}
		return clamp(price, bar.Low, bar.High), true, nil

	case domain.OrderLimit:
		if sig.Price <= 0 {
			return 0, false, &ValidationError{Field: "limit price", Reason: "must be positive"}
		}
		// Conservative: fill at the limit price itself, and only when the
		// bar actually traded through it.
		if sig.Price < bar.Low || sig.Price > bar.High {
			return 0, false, nil
		}
		return sig.Price, true, nil

	case domain.OrderStop:
		if sig.Price <= 0 {
			return 0, false, &ValidationError{Field: "stop price", Reason: "must be positive"}
		}
		triggered := (sig.Action == domain.ActionBuy && bar.High >= sig.Price) ||
			(sig.Action == domain.ActionSell && bar.Low <= sig.Price)
		if !triggered {
			return 0, false, nil
		}
		return clamp(sig.Price, bar.Low, bar.High), true, nil
	}
	return 0, false, &ValidationError{Field: "order kind", Reason: string(sig.Kind)}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
