package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"backlab/internal/config"
	"backlab/internal/gather/us"
	"backlab/internal/store"
	"backlab/internal/util"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbol list (overrides config)")
	startFlag := flag.String("start", "", "fetch start date YYYY-MM-DD (overrides config)")
	flag.Parse()

	cfgPath := "config/backlab.yaml"
	if p := os.Getenv("BACKLAB_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	symbols := cfg.Gather.Symbols
	if *symbolsFlag != "" {
		symbols = nil
		for _, s := range strings.Split(*symbolsFlag, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, strings.ToUpper(s))
			}
		}
	}
	startDate := cfg.Gather.StartDate
	if *startFlag != "" {
		startDate = *startFlag
	}

	barStore := store.NewParquetStore(cfg.Storage.DataDir)

	gatherer := us.NewDailyBarGatherer(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL,
		barStore,
		symbols,
		cfg.Gather.BatchSize,
		cfg.Gather.RateLimitPerMin,
		startDate,
		logger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := gatherer.Run(ctx); err != nil {
		log.Fatalf("fetch error: %v", err)
	}
}
