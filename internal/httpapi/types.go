package httpapi

import (
	"time"

	"backlab/internal/backtest"
	"backlab/internal/store"
)

// BacktestRequest selects a single strategy/symbol run.
type BacktestRequest struct {
	Strategy string `json:"strategy"`
	Symbol   string `json:"symbol"`
	Market   string `json:"market"`
	Start    string `json:"start"` // YYYY-MM-DD
	End      string `json:"end"`   // YYYY-MM-DD
}

// CompareRequest runs every registered strategy against one symbol.
type CompareRequest struct {
	Symbol string `json:"symbol"`
	Market string `json:"market"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// MultiTickerRequest runs one strategy against a list of symbols.
type MultiTickerRequest struct {
	Strategy string   `json:"strategy"`
	Symbols  []string `json:"symbols"`
	Market   string   `json:"market"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
}

// MetricsDTO is the wire form of a run's performance summary.
type MetricsDTO struct {
	TotalReturnPct float64 `json:"total_return_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	VolatilityPct  float64 `json:"volatility_pct"`
	WinRatePct     float64 `json:"win_rate_pct"`
	ProfitFactor   float64 `json:"profit_factor"`
	TotalTrades    int     `json:"total_trades"`
	FinalEquity    float64 `json:"final_equity"`
}

// EquityPointDTO is one equity-curve observation on the wire.
type EquityPointDTO struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}

// TradeDTO is one classified closed trade on the wire.
type TradeDTO struct {
	Side        string    `json:"side"`
	Qty         int64     `json:"qty"`
	EntryTime   time.Time `json:"entry_time"`
	EntryPrice  float64   `json:"entry_price"`
	ExitTime    time.Time `json:"exit_time"`
	ExitPrice   float64   `json:"exit_price"`
	PnL         float64   `json:"pnl"`
	StopPrice   float64   `json:"stop_price"`
	TargetPrice float64   `json:"target_price"`
	Outcome     string    `json:"outcome"`
}

// BacktestResponse is the full result bundle of one run.
type BacktestResponse struct {
	RunID       int64            `json:"run_id,omitempty"`
	Strategy    string           `json:"strategy"`
	Symbol      string           `json:"symbol"`
	Market      string           `json:"market"`
	Metrics     MetricsDTO       `json:"metrics"`
	EquityCurve []EquityPointDTO `json:"equity_curve"`
	Trades      []TradeDTO       `json:"trades"`
}

// RunSummary is one row of a batch comparison: the request coordinates plus
// the metrics, or an error when that run failed.
type RunSummary struct {
	Strategy string      `json:"strategy"`
	Symbol   string      `json:"symbol"`
	Metrics  *MetricsDTO `json:"metrics,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// CompareResponse lists every strategy's outcome on one symbol, sorted
// best-return-first, with the winning strategy pulled out.
type CompareResponse struct {
	Results []RunSummary `json:"results"`
	Best    *RunSummary  `json:"best,omitempty"`
}

// BatchSummary aggregates the successful runs of a multi-ticker batch.
type BatchSummary struct {
	AvgReturnPct    float64 `json:"avg_return_pct"`
	MedianReturnPct float64 `json:"median_return_pct"`
	Succeeded       int     `json:"succeeded"`
	Failed          int     `json:"failed"`
}

// MultiTickerResponse lists one strategy's outcome per symbol, sorted
// best-return-first, with the batch aggregate.
type MultiTickerResponse struct {
	Results []RunSummary `json:"results"`
	Summary BatchSummary `json:"summary"`
}

// RunRecordDTO is a persisted run summary on the wire.
type RunRecordDTO struct {
	ID        int64      `json:"id"`
	Symbol    string     `json:"symbol"`
	Market    string     `json:"market"`
	Strategy  string     `json:"strategy"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	CreatedAt time.Time  `json:"created_at"`
	Metrics   MetricsDTO `json:"metrics"`
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

func metricsDTO(m backtest.Metrics) MetricsDTO {
	return MetricsDTO{
		TotalReturnPct: m.TotalReturnPct,
		SharpeRatio:    m.SharpeRatio,
		MaxDrawdownPct: m.MaxDrawdownPct,
		VolatilityPct:  m.VolatilityPct,
		WinRatePct:     m.WinRatePct,
		ProfitFactor:   m.ProfitFactor,
		TotalTrades:    m.TotalTrades,
		FinalEquity:    m.FinalEquity,
	}
}

func backtestResponse(res *backtest.Result) BacktestResponse {
	resp := BacktestResponse{
		Strategy:    res.Strategy,
		Symbol:      res.Symbol,
		Market:      res.Market,
		Metrics:     metricsDTO(res.Metrics),
		EquityCurve: make([]EquityPointDTO, len(res.EquityCurve)),
		Trades:      make([]TradeDTO, len(res.TradeLevels)),
	}
	for i, p := range res.EquityCurve {
		resp.EquityCurve[i] = EquityPointDTO{Timestamp: p.Timestamp, Equity: p.Equity}
	}
	for i, t := range res.TradeLevels {
		resp.Trades[i] = TradeDTO{
			Side:        t.Side,
			Qty:         t.Qty,
			EntryTime:   t.EntryTime,
			EntryPrice:  t.EntryPrice,
			ExitTime:    t.ExitTime,
			ExitPrice:   t.ExitPrice,
			PnL:         t.PnL,
			StopPrice:   t.StopPrice,
			TargetPrice: t.TargetPrice,
			Outcome:     t.Outcome,
		}
	}
	return resp
}

func runRecord(res *backtest.Result) *store.RunRecord {
	return &store.RunRecord{
		Symbol:         res.Symbol,
		Market:         res.Market,
		Strategy:       res.Strategy,
		Start:          res.Start,
		End:            res.End,
		InitialCapital: res.InitialCapital,
		FinalEquity:    res.Metrics.FinalEquity,
		TotalReturnPct: res.Metrics.TotalReturnPct,
		SharpeRatio:    res.Metrics.SharpeRatio,
		MaxDrawdownPct: res.Metrics.MaxDrawdownPct,
		WinRatePct:     res.Metrics.WinRatePct,
		ProfitFactor:   res.Metrics.ProfitFactor,
		TotalTrades:    res.Metrics.TotalTrades,
	}
}

func runTradeRecords(levels []backtest.TradeLevels) []store.RunTradeRecord {
	out := make([]store.RunTradeRecord, len(levels))
	for i, t := range levels {
		out[i] = store.RunTradeRecord{
			Side:        t.Side,
			Qty:         t.Qty,
			EntryTime:   t.EntryTime,
			EntryPrice:  t.EntryPrice,
			ExitTime:    t.ExitTime,
			ExitPrice:   t.ExitPrice,
			PnL:         t.PnL,
			StopPrice:   t.StopPrice,
			TargetPrice: t.TargetPrice,
			Outcome:     t.Outcome,
		}
	}
	return out
}

func runRecordDTO(r store.RunRecord) RunRecordDTO {
	return RunRecordDTO{
		ID:        r.ID,
		Symbol:    r.Symbol,
		Market:    r.Market,
		Strategy:  r.Strategy,
		Start:     r.Start,
		End:       r.End,
		CreatedAt: r.CreatedAt,
		Metrics: MetricsDTO{
			TotalReturnPct: r.TotalReturnPct,
			SharpeRatio:    r.SharpeRatio,
			MaxDrawdownPct: r.MaxDrawdownPct,
			WinRatePct:     r.WinRatePct,
			ProfitFactor:   r.ProfitFactor,
			TotalTrades:    r.TotalTrades,
			FinalEquity:    r.FinalEquity,
		},
	}
}

func tradeDTOs(trades []store.RunTradeRecord) []TradeDTO {
	out := make([]TradeDTO, len(trades))
	for i, t := range trades {
		out[i] = TradeDTO{
			Side:        t.Side,
			Qty:         t.Qty,
			EntryTime:   t.EntryTime,
			EntryPrice:  t.EntryPrice,
			ExitTime:    t.ExitTime,
			ExitPrice:   t.ExitPrice,
			PnL:         t.PnL,
			StopPrice:   t.StopPrice,
			TargetPrice: t.TargetPrice,
			Outcome:     t.Outcome,
		}
	}
	return out
}
