// Package domain defines the shared vocabulary of the backlab platform:
// OHLCV bars and the trading signals strategies emit against them.
package domain

import "time"

// Market identifies the exchange universe a symbol belongs to.
type Market = string

// Market constants.
const (
	MarketUS Market = "us"
	MarketIN Market = "in"
)

// Bar is a single OHLCV record for a fixed time period.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// Action is a strategy's per-bar decision.
type Action string

// Action constants.
const (
	ActionHold Action = "hold"
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// OrderKind discriminates the order request a signal carries. The zero
// value is a market order.
type OrderKind string

// OrderKind constants.
const (
	OrderMarket OrderKind = "market"
	OrderLimit  OrderKind = "limit"
	OrderStop   OrderKind = "stop"
)

// Signal is a strategy's decision after observing the bar at Timestamp.
// It is evaluated against the following bar.
//
// Kind selects the order variant: for OrderLimit and OrderStop the Price
// field is the constraint price and must be positive; for OrderMarket it
// is ignored. Qty overrides the engine's automatic sizing when > 0.
type Signal struct {
	Timestamp time.Time
	Action    Action
	Kind      OrderKind
	Price     float64
	Qty       int64
}

// Hold returns a hold signal for the given bar time.
func Hold(ts time.Time) Signal {
	return Signal{Timestamp: ts, Action: ActionHold}
}

// MarketBuy returns an auto-sized market buy signal.
func MarketBuy(ts time.Time) Signal {
	return Signal{Timestamp: ts, Action: ActionBuy, Kind: OrderMarket}
}

// MarketSell returns a full-liquidation market sell signal.
func MarketSell(ts time.Time) Signal {
	return Signal{Timestamp: ts, Action: ActionSell, Kind: OrderMarket}
}
