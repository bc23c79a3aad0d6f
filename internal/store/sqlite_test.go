package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestRunStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() *RunRecord {
	return &RunRecord{
		Symbol:         "AAPL",
		Market:         "us",
		Strategy:       "sma-cross",
		Start:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		InitialCapital: 100000,
		FinalEquity:    112500,
		TotalReturnPct: 12.5,
		SharpeRatio:    1.8,
		MaxDrawdownPct: -6.2,
		WinRatePct:     60,
		ProfitFactor:   2.1,
		TotalTrades:    5,
	}
}

func TestSQLiteStoreSaveGetRun(t *testing.T) {
	s := newTestRunStore(t)
	ctx := context.Background()

	trades := []RunTradeRecord{
		{
			Side:       "long",
			Qty:        100,
			EntryTime:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			EntryPrice: 100.0,
			ExitTime:   time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
			ExitPrice:  110.0,
			PnL:        1000.0,
			StopPrice:  98.0, TargetPrice: 104.0,
			Outcome: "target_hit",
		},
	}

	id, err := s.SaveRun(ctx, sampleRun(), trades)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id <= 0 {
		t.Fatalf("SaveRun returned id %d, want > 0", id)
	}

	got, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got == nil {
		t.Fatal("GetRun returned nil for saved run")
	}
	if got.Symbol != "AAPL" || got.Strategy != "sma-cross" {
		t.Errorf("GetRun = %+v, want symbol AAPL strategy sma-cross", got)
	}
	if got.TotalReturnPct != 12.5 {
		t.Errorf("TotalReturnPct = %v, want 12.5", got.TotalReturnPct)
	}
	if got.TotalTrades != 5 {
		t.Errorf("TotalTrades = %d, want 5", got.TotalTrades)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on save")
	}
}

func TestSQLiteStoreGetRunMissing(t *testing.T) {
	s := newTestRunStore(t)

	got, err := s.GetRun(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got != nil {
		t.Errorf("GetRun for missing id = %+v, want nil", got)
	}
}

func TestSQLiteStoreListRuns(t *testing.T) {
	s := newTestRunStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := sampleRun()
		run.Strategy = []string{"sma-cross", "rsi-momentum", "macd-momentum"}[i]
		if _, err := s.SaveRun(ctx, run, nil); err != nil {
			t.Fatalf("SaveRun %d: %v", i, err)
		}
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("ListRuns returned %d runs, want 3", len(runs))
	}
	// Newest first.
	if runs[0].Strategy != "macd-momentum" {
		t.Errorf("first run strategy = %s, want macd-momentum (newest first)", runs[0].Strategy)
	}

	limited, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns (limit 2): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListRuns limit 2 returned %d runs", len(limited))
	}
}

func TestSQLiteStoreListRunTrades(t *testing.T) {
	s := newTestRunStore(t)
	ctx := context.Background()

	trades := []RunTradeRecord{
		{
			Side: "long", Qty: 50,
			EntryTime:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			EntryPrice: 200, ExitTime: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			ExitPrice: 195, PnL: -250,
			StopPrice: 196, TargetPrice: 208, Outcome: "stop_hit",
		},
		{
			Side: "long", Qty: 50,
			EntryTime:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			EntryPrice: 190, ExitTime: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
			ExitPrice: 199, PnL: 450,
			StopPrice: 186.2, TargetPrice: 197.6, Outcome: "target_hit",
		},
	}

	id, err := s.SaveRun(ctx, sampleRun(), trades)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.ListRunTrades(ctx, id)
	if err != nil {
		t.Fatalf("ListRunTrades: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListRunTrades returned %d trades, want 2", len(got))
	}
	// Entry-time order: February trade first.
	if got[0].Outcome != "target_hit" {
		t.Errorf("first trade outcome = %s, want target_hit (entry-time order)", got[0].Outcome)
	}
	if got[0].RunID != id || got[1].RunID != id {
		t.Errorf("trades should carry run id %d, got %d and %d", id, got[0].RunID, got[1].RunID)
	}
}
