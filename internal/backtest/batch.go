package backtest

import (
	"context"
	"sort"
	"sync"
	"time"
)

// RunRequest identifies one independent backtest run within a batch.
type RunRequest struct {
	Strategy string
	Symbol   string
	Market   string
	Start    time.Time
	End      time.Time
}

// RunOutcome pairs a batch request with its result or failure. A failed run
// never corrupts the outcomes of the other runs in the batch.
type RunOutcome struct {
	Request RunRequest
	Result  *Result
	Err     error
}

// RunBatch executes independent backtest runs in parallel. Each run gets its
// own ledger; the only shared input is the read-only bar store. Cancellation
// is run-granular: runs not yet started when ctx is cancelled report the
// context error, runs already started complete normally.
func (bt *Backtester) RunBatch(ctx context.Context, reqs []RunRequest, workers int) []RunOutcome {
	if workers < 1 {
		workers = 1
	}
	if workers > len(reqs) {
		workers = len(reqs)
	}

	outcomes := make([]RunOutcome, len(reqs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				req := reqs[i]
				outcomes[i].Request = req
				if err := ctx.Err(); err != nil {
					outcomes[i].Err = err
					continue
				}
				res, err := bt.Run(ctx, req.Strategy, req.Symbol, req.Market, req.Start, req.End)
				outcomes[i].Result = res
				outcomes[i].Err = err
			}
		}()
	}

	for i := range reqs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// CompareStrategies runs every registered strategy against one symbol and
// returns the outcomes sorted best-return-first.
func (bt *Backtester) CompareStrategies(ctx context.Context, symbol, market string, start, end time.Time, workers int) []RunOutcome {
	names := bt.registry.List()
	reqs := make([]RunRequest, len(names))
	for i, name := range names {
		reqs[i] = RunRequest{Strategy: name, Symbol: symbol, Market: market, Start: start, End: end}
	}
	outcomes := bt.RunBatch(ctx, reqs, workers)
	SortByReturn(outcomes)
	return outcomes
}

// MultiTicker runs one strategy against a list of symbols and returns the
// outcomes sorted best-return-first.
func (bt *Backtester) MultiTicker(ctx context.Context, strategyName string, symbols []string, market string, start, end time.Time, workers int) []RunOutcome {
	reqs := make([]RunRequest, len(symbols))
	for i, sym := range symbols {
		reqs[i] = RunRequest{Strategy: strategyName, Symbol: sym, Market: market, Start: start, End: end}
	}
	outcomes := bt.RunBatch(ctx, reqs, workers)
	SortByReturn(outcomes)
	return outcomes
}

// SortByReturn orders outcomes by total return, best first. Failed runs sort
// after all successful ones, in their original relative order.
func SortByReturn(outcomes []RunOutcome) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		a, b := outcomes[i], outcomes[j]
		if a.Err != nil || b.Err != nil {
			return a.Err == nil && b.Err != nil
		}
		return a.Result.Metrics.TotalReturnPct > b.Result.Metrics.TotalReturnPct
	})
}

// ReturnStats reduces a batch to the average and median total return of its
// successful runs. n is the number of successful runs; avg and median are 0
// when every run failed.
func ReturnStats(outcomes []RunOutcome) (avg, median float64, n int) {
	var returns []float64
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		returns = append(returns, o.Result.Metrics.TotalReturnPct)
	}
	n = len(returns)
	if n == 0 {
		return 0, 0, 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	avg = sum / float64(n)

	sort.Float64s(returns)
	if n%2 == 1 {
		median = returns[n/2]
	} else {
		median = (returns[n/2-1] + returns[n/2]) / 2
	}
	return avg, median, n
}

// BestByReturn returns the successful result with the highest total return,
// or nil when every run failed.
func BestByReturn(outcomes []RunOutcome) *Result {
	var best *Result
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		if best == nil || o.Result.Metrics.TotalReturnPct > best.Metrics.TotalReturnPct {
			best = o.Result
		}
	}
	return best
}
