package backtest

import (
	"testing"
	"time"

	"backlab/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestLedgerRoundTrip(t *testing.T) {
	l := NewLedger(10000)

	l.Apply(&Fill{Timestamp: day(0), Action: domain.ActionBuy, Qty: 100, Price: 100})
	if l.Cash() != 0 {
		t.Errorf("cash after buy = %v, want 0", l.Cash())
	}
	if l.PositionQty() != 100 {
		t.Errorf("position after buy = %d, want 100", l.PositionQty())
	}
	if l.AvgEntryPrice() != 100 {
		t.Errorf("avg entry = %v, want 100", l.AvgEntryPrice())
	}

	l.Apply(&Fill{Timestamp: day(1), Action: domain.ActionSell, Qty: 100, Price: 110})
	if l.Cash() != 11000 {
		t.Errorf("cash after sell = %v, want 11000", l.Cash())
	}
	if l.PositionQty() != 0 {
		t.Errorf("position after sell = %d, want 0", l.PositionQty())
	}

	trades := l.Trades()
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	tr := trades[0]
	if tr.PnL != 1000 {
		t.Errorf("trade PnL = %v, want 1000", tr.PnL)
	}
	if tr.EntryPrice != 100 || tr.ExitPrice != 110 {
		t.Errorf("trade prices = %v/%v, want 100/110", tr.EntryPrice, tr.ExitPrice)
	}
	if !tr.EntryTime.Equal(day(0)) || !tr.ExitTime.Equal(day(1)) {
		t.Errorf("trade times = %v/%v, want day0/day1", tr.EntryTime, tr.ExitTime)
	}
	if tr.Qty != 100 {
		t.Errorf("trade qty = %d, want 100", tr.Qty)
	}
}

// Round-trip neutrality: equal-quantity buy and sell at the same price with
// zero commission yields exactly zero P&L.
func TestLedgerRoundTripNeutrality(t *testing.T) {
	l := NewLedger(5000)
	l.Apply(&Fill{Timestamp: day(0), Action: domain.ActionBuy, Qty: 40, Price: 100})
	l.Apply(&Fill{Timestamp: day(1), Action: domain.ActionSell, Qty: 40, Price: 100})

	if l.Cash() != 5000 {
		t.Errorf("cash = %v, want 5000", l.Cash())
	}
	trades := l.Trades()
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	if trades[0].PnL != 0 {
		t.Errorf("PnL = %v, want 0", trades[0].PnL)
	}
}

func TestLedgerWeightedAverageEntry(t *testing.T) {
	l := NewLedger(100000)

	l.Apply(&Fill{Timestamp: day(0), Action: domain.ActionBuy, Qty: 100, Price: 100})
	l.Apply(&Fill{Timestamp: day(1), Action: domain.ActionBuy, Qty: 100, Price: 110})

	// (100×100 + 110×100) / 200 = 105.
	if l.AvgEntryPrice() != 105 {
		t.Errorf("avg entry = %v, want 105", l.AvgEntryPrice())
	}
	if l.PositionQty() != 200 {
		t.Errorf("position = %d, want 200", l.PositionQty())
	}

	l.Apply(&Fill{Timestamp: day(2), Action: domain.ActionSell, Qty: 200, Price: 120})
	trades := l.Trades()
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	// (120 − 105) × 200 = 3000.
	if trades[0].PnL != 3000 {
		t.Errorf("PnL = %v, want 3000", trades[0].PnL)
	}
	if trades[0].EntryPrice != 105 {
		t.Errorf("trade entry = %v, want weighted 105", trades[0].EntryPrice)
	}
	// Entry time is the original open, not the add.
	if !trades[0].EntryTime.Equal(day(0)) {
		t.Errorf("entry time = %v, want day 0", trades[0].EntryTime)
	}
}

func TestLedgerPartialSells(t *testing.T) {
	l := NewLedger(10000)

	l.Apply(&Fill{Timestamp: day(0), Action: domain.ActionBuy, Qty: 100, Price: 100})
	l.Apply(&Fill{Timestamp: day(1), Action: domain.ActionSell, Qty: 40, Price: 110})

	// Partial exit: position still open, no trade yet.
	if got := len(l.Trades()); got != 0 {
		t.Fatalf("got %d trades after partial sell, want 0", got)
	}
	if l.PositionQty() != 60 {
		t.Errorf("position = %d, want 60", l.PositionQty())
	}

	l.Apply(&Fill{Timestamp: day(2), Action: domain.ActionSell, Qty: 60, Price: 120})
	trades := l.Trades()
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	// 40×(110−100) + 60×(120−100) = 400 + 1200 = 1600.
	if trades[0].PnL != 1600 {
		t.Errorf("PnL = %v, want 1600", trades[0].PnL)
	}
	if trades[0].Qty != 100 {
		t.Errorf("trade qty = %d, want full 100", trades[0].Qty)
	}
	if trades[0].ExitPrice != 120 {
		t.Errorf("exit price = %v, want final sell 120", trades[0].ExitPrice)
	}
}

func TestLedgerCommissionInPnL(t *testing.T) {
	l := NewLedger(20000)

	l.Apply(&Fill{Timestamp: day(0), Action: domain.ActionBuy, Qty: 100, Price: 100, Commission: 10})
	l.Apply(&Fill{Timestamp: day(1), Action: domain.ActionSell, Qty: 100, Price: 110, Commission: 11})

	trades := l.Trades()
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	// 1000 gross − 21 round-trip commission.
	if trades[0].PnL != 979 {
		t.Errorf("PnL = %v, want 979", trades[0].PnL)
	}
	// Cash reflects both fees too: 20000 − 10010 + 10989.
	if l.Cash() != 20979 {
		t.Errorf("cash = %v, want 20979", l.Cash())
	}
}

func TestLedgerMarkToMarket(t *testing.T) {
	l := NewLedger(1000)

	l.MarkToMarket(domain.Bar{Timestamp: day(0), Close: 50})
	l.Apply(&Fill{Timestamp: day(1), Action: domain.ActionBuy, Qty: 10, Price: 50})
	l.MarkToMarket(domain.Bar{Timestamp: day(1), Close: 60})

	curve := l.EquityCurve()
	if len(curve) != 2 {
		t.Fatalf("curve length = %d, want 2", len(curve))
	}
	if curve[0].Equity != 1000 {
		t.Errorf("equity[0] = %v, want 1000", curve[0].Equity)
	}
	// 500 cash + 10 × 60.
	if curve[1].Equity != 1100 {
		t.Errorf("equity[1] = %v, want 1100", curve[1].Equity)
	}
}
