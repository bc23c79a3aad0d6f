// Package us gathers daily US equity bar data from the Alpaca market-data
// API into the bar store.
package us

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"backlab/internal/domain"
	"backlab/internal/gather"
	"backlab/internal/store"
	"backlab/internal/util"
)

// Compile-time interface check.
var _ gather.Gatherer = (*DailyBarGatherer)(nil)

// DailyBarGatherer fetches daily OHLCV bars for a configured symbol list via
// the Alpaca market-data API and writes them to the bar store. Repeated runs
// are idempotent: the store merges bars by symbol and timestamp.
type DailyBarGatherer struct {
	client    *marketdata.Client
	store     store.BarStore
	symbols   []string
	batchSize int
	startDate string
	limiter   *util.RateLimiter
	log       *slog.Logger
}

// NewDailyBarGatherer creates a DailyBarGatherer configured with the given
// Alpaca credentials, target store, symbol list, and batch parameters.
func NewDailyBarGatherer(apiKey, apiSecret, dataURL string, s store.BarStore, symbols []string, batchSize, rateLimitPerMin int, startDate string, logger *slog.Logger) *DailyBarGatherer {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	if batchSize < 1 {
		batchSize = 200
	}
	if rateLimitPerMin < 1 {
		rateLimitPerMin = 200
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DailyBarGatherer{
		client:    marketdata.NewClient(opts),
		store:     s,
		symbols:   symbols,
		batchSize: batchSize,
		startDate: startDate,
		limiter:   util.NewRateLimiter(rateLimitPerMin),
		log:       logger.With("gatherer", "us-daily"),
	}
}

// Name returns the gatherer identifier.
func (g *DailyBarGatherer) Name() string { return "us-daily" }

// Run fetches daily bars for every configured symbol in batches and writes
// them to the store. It returns when all batches are done or ctx is
// cancelled.
func (g *DailyBarGatherer) Run(ctx context.Context) error {
	start, err := time.Parse("2006-01-02", g.startDate)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", g.startDate, err)
	}
	rng := gather.DateRange{
		Start: start,
		End:   time.Now().UTC().Truncate(24 * time.Hour),
	}

	if len(g.symbols) == 0 {
		g.log.Info("no symbols configured")
		return nil
	}

	var batches [][]string
	for i := 0; i < len(g.symbols); i += g.batchSize {
		j := min(i+g.batchSize, len(g.symbols))
		batches = append(batches, g.symbols[i:j])
	}

	runStart := time.Now()
	g.log.Info("starting us-daily",
		"symbols", len(g.symbols),
		"batches", len(batches),
		"start", g.startDate,
	)

	var total int
	for i, batch := range batches {
		if !g.limiter.Allow() {
			g.log.Debug("rate limited", "batch", i+1)
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		var bars []domain.Bar
		err := util.Retry(ctx, 3, time.Second, func() error {
			var ferr error
			bars, ferr = g.fetchMultiBars(batch, rng)
			return ferr
		})
		if err != nil {
			return fmt.Errorf("fetching batch %d/%d: %w", i+1, len(batches), err)
		}

		if len(bars) > 0 {
			if err := g.store.WriteBars(ctx, bars); err != nil {
				return fmt.Errorf("writing batch %d/%d: %w", i+1, len(batches), err)
			}
		}
		total += len(bars)

		g.log.Info("batch done",
			"batch", fmt.Sprintf("%d/%d", i+1, len(batches)),
			"bars", len(bars),
			"elapsed", time.Since(runStart).Round(time.Second),
		)
	}

	g.log.Info("complete", "bars", total, "elapsed", time.Since(runStart).Round(time.Second))
	return nil
}

// fetchMultiBars fetches daily bars for multiple symbols in a single API call.
func (g *DailyBarGatherer) fetchMultiBars(symbols []string, rng gather.DateRange) ([]domain.Bar, error) {
	multiBars, err := g.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     rng.Start,
		End:       rng.End,
		Feed:      "sip",
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     strings.ToUpper(symbol),
				Timestamp:  ab.Timestamp,
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     int64(ab.Volume),
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
	}
	return bars, nil
}
