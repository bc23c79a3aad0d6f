package backtest

import (
	"time"

	"backlab/internal/domain"
)

// EquityPoint is one mark-to-market observation of total account value.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// Trade is a closed round trip. It is emitted by the ledger only when the
// position quantity returns to exactly zero, and is immutable once recorded.
type Trade struct {
	Side       string
	Qty        int64
	EntryTime  time.Time
	EntryPrice float64
	ExitTime   time.Time
	ExitPrice  float64
	PnL        float64
}

// sideLong is the only side the engine currently opens; the ledger is
// structured so short support only needs a second sign path.
const sideLong = "long"

// Ledger owns the account state of a single backtest run: cash, the open
// position, the equity curve, and the closed-trade list. It is the only
// writer of that state. The ledger assumes every fill it receives is
// affordable; affordability is enforced by the Executor.
type Ledger struct {
	cash float64

	qty           int64
	avgEntry      float64
	entryTime     time.Time
	openSideFees  float64 // commissions paid opening the position
	realizedPnL   float64 // accumulated over partial exits, net of exit fees
	closedQty     int64
	lastExitPrice float64

	equity []EquityPoint
	trades []Trade
}

// NewLedger creates a ledger starting with the given cash balance.
func NewLedger(initialCash float64) *Ledger {
	return &Ledger{cash: initialCash}
}

// Apply records a fill against the account. Buys add to the position with
// weighted-average entry pricing; sells realize P&L, and when the position
// quantity returns to zero a Trade is emitted for the whole round trip.
func (l *Ledger) Apply(f *Fill) {
	if f.Action == domain.ActionBuy {
		l.cash -= f.Price*float64(f.Qty) + f.Commission

		if l.qty == 0 {
			l.entryTime = f.Timestamp
			l.avgEntry = f.Price
			l.openSideFees = f.Commission
		} else {
			total := l.qty + f.Qty
			l.avgEntry = (l.avgEntry*float64(l.qty) + f.Price*float64(f.Qty)) / float64(total)
			l.openSideFees += f.Commission
		}
		l.qty += f.Qty
		return
	}

	// Sell.
	l.cash += f.Price*float64(f.Qty) - f.Commission
	l.realizedPnL += (f.Price-l.avgEntry)*float64(f.Qty) - f.Commission
	l.closedQty += f.Qty
	l.lastExitPrice = f.Price
	l.qty -= f.Qty

	if l.qty == 0 {
		l.trades = append(l.trades, Trade{
			Side:       sideLong,
			Qty:        l.closedQty,
			EntryTime:  l.entryTime,
			EntryPrice: l.avgEntry,
			ExitTime:   f.Timestamp,
			ExitPrice:  f.Price,
			PnL:        l.realizedPnL - l.openSideFees,
		})
		l.avgEntry = 0
		l.openSideFees = 0
		l.realizedPnL = 0
		l.closedQty = 0
	}
}

// MarkToMarket appends one equity observation for the bar. It must be called
// once per bar regardless of trading activity so the curve has no gaps.
func (l *Ledger) MarkToMarket(bar domain.Bar) {
	l.equity = append(l.equity, EquityPoint{
		Timestamp: bar.Timestamp,
		Equity:    l.cash + float64(l.qty)*bar.Close,
	})
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 { return l.cash }

// PositionQty returns the currently held quantity.
func (l *Ledger) PositionQty() int64 { return l.qty }

// AvgEntryPrice returns the weighted-average entry price of the open
// position, or 0 when flat.
func (l *Ledger) AvgEntryPrice() float64 { return l.avgEntry }

// EquityCurve returns the mark-to-market series recorded so far.
func (l *Ledger) EquityCurve() []EquityPoint { return l.equity }

// Trades returns the closed round trips recorded so far.
func (l *Ledger) Trades() []Trade { return l.trades }
