package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"backlab/internal/backtest"
	"backlab/internal/config"
	"backlab/internal/store"
	"backlab/internal/strategy"
	"backlab/internal/strategy/builtins"
	"backlab/internal/util"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: backlab-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version     Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  strategies  List built-in strategies\n")
		fmt.Fprintf(os.Stderr, "  backtest    Run one strategy against one symbol\n")
		fmt.Fprintf(os.Stderr, "  compare     Run every strategy against one symbol\n")
		fmt.Fprintf(os.Stderr, "  tickers     Run one strategy against many symbols\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("backlab-cli %s\n", version)

	case "strategies":
		registry := strategy.NewRegistry()
		builtins.RegisterAll(registry)
		for _, name := range registry.List() {
			fmt.Println(name)
		}

	case "backtest":
		runBacktest(os.Args[2:])

	case "compare":
		runCompare(os.Args[2:])

	case "tickers":
		runTickers(os.Args[2:])

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
}

// newEngine builds a local engine from the config file, no server needed.
func newEngine() *backtest.Backtester {
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

	registry := strategy.NewRegistry()
	builtins.RegisterAll(registry)

	return backtest.NewBacktester(
		store.NewParquetStore(cfg.Storage.DataDir),
		registry,
		backtest.Config{
			InitialCapital: cfg.Backtest.InitialCapital,
			Commission:     cfg.Backtest.Commission,
			Slippage:       cfg.Backtest.Slippage,
			RiskPct:        cfg.Backtest.RiskPct,
			RewardRatio:    cfg.Backtest.RewardRatio,
			MinBars:        cfg.Backtest.MinBars,
			PeriodsPerYear: float64(cfg.Backtest.PeriodsPerYear),
		},
		logger,
	)
}

func parseRange(startStr, endStr string) (time.Time, time.Time) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		log.Fatalf("invalid -start date: %v", err)
	}
	end := time.Now().UTC()
	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			log.Fatalf("invalid -end date: %v", err)
		}
	}
	return start, end
}

func runBacktest(args []string) {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	strategyName := fs.String("strategy", "", "strategy name (required)")
	symbol := fs.String("symbol", "", "ticker symbol (required)")
	market := fs.String("market", "us", "market")
	startStr := fs.String("start", "", "start date YYYY-MM-DD (required)")
	endStr := fs.String("end", "", "end date YYYY-MM-DD (default today)")
	fs.Parse(args)

	if *strategyName == "" || *symbol == "" || *startStr == "" {
		fs.Usage()
		os.Exit(1)
	}
	start, end := parseRange(*startStr, *endStr)

	engine := newEngine()
	res, err := engine.Run(context.Background(), *strategyName, strings.ToUpper(*symbol), *market, start, end)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	printMetrics(res)
	printTrades(res.TradeLevels)
}

func runCompare(args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	symbol := fs.String("symbol", "", "ticker symbol (required)")
	market := fs.String("market", "us", "market")
	startStr := fs.String("start", "", "start date YYYY-MM-DD (required)")
	endStr := fs.String("end", "", "end date YYYY-MM-DD (default today)")
	workers := fs.Int("workers", 4, "parallel runs")
	fs.Parse(args)

	if *symbol == "" || *startStr == "" {
		fs.Usage()
		os.Exit(1)
	}
	start, end := parseRange(*startStr, *endStr)

	engine := newEngine()
	outcomes := engine.CompareStrategies(context.Background(), strings.ToUpper(*symbol), *market, start, end, *workers)
	printOutcomes(outcomes, "STRATEGY", func(o backtest.RunOutcome) string { return o.Request.Strategy })
}

func runTickers(args []string) {
	fs := flag.NewFlagSet("tickers", flag.ExitOnError)
	strategyName := fs.String("strategy", "", "strategy name (required)")
	symbolsStr := fs.String("symbols", "", "comma-separated symbols (required)")
	market := fs.String("market", "us", "market")
	startStr := fs.String("start", "", "start date YYYY-MM-DD (required)")
	endStr := fs.String("end", "", "end date YYYY-MM-DD (default today)")
	workers := fs.Int("workers", 4, "parallel runs")
	fs.Parse(args)

	if *strategyName == "" || *symbolsStr == "" || *startStr == "" {
		fs.Usage()
		os.Exit(1)
	}
	start, end := parseRange(*startStr, *endStr)

	var symbols []string
	for _, s := range strings.Split(*symbolsStr, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, strings.ToUpper(s))
		}
	}

	engine := newEngine()
	outcomes := engine.MultiTicker(context.Background(), *strategyName, symbols, *market, start, end, *workers)
	printOutcomes(outcomes, "SYMBOL", func(o backtest.RunOutcome) string { return o.Request.Symbol })

	if avg, median, n := backtest.ReturnStats(outcomes); n > 0 {
		fmt.Printf("\n%d symbols: avg return %+.2f%%, median %+.2f%%\n", n, avg, median)
	}
}

func printMetrics(res *backtest.Result) {
	m := res.Metrics
	fmt.Printf("%s on %s\n", res.Strategy, res.Symbol)
	fmt.Printf("  total return   %+.2f%%\n", m.TotalReturnPct)
	fmt.Printf("  final equity   %.2f\n", m.FinalEquity)
	fmt.Printf("  sharpe ratio   %.2f\n", m.SharpeRatio)
	fmt.Printf("  max drawdown   %.2f%%\n", m.MaxDrawdownPct)
	fmt.Printf("  volatility     %.2f%%\n", m.VolatilityPct)
	fmt.Printf("  win rate       %.2f%%\n", m.WinRatePct)
	fmt.Printf("  profit factor  %.2f\n", m.ProfitFactor)
	fmt.Printf("  trades         %d\n", m.TotalTrades)
}

func printTrades(levels []backtest.TradeLevels) {
	if len(levels) == 0 {
		return
	}
	fmt.Printf("\n%-12s %-6s %-10s %-10s %-12s %-10s %-10s %-12s\n",
		"ENTRY", "QTY", "ENTRY PX", "EXIT PX", "PNL", "STOP", "TARGET", "OUTCOME")
	for _, t := range levels {
		fmt.Printf("%-12s %-6d %-10.2f %-10.2f %-12.2f %-10.2f %-10.2f %-12s\n",
			t.EntryTime.Format("2006-01-02"), t.Qty, t.EntryPrice, t.ExitPrice,
			t.PnL, t.StopPrice, t.TargetPrice, t.Outcome)
	}
}

func printOutcomes(outcomes []backtest.RunOutcome, label string, key func(backtest.RunOutcome) string) {
	fmt.Printf("%-22s %-12s %-10s %-12s %-10s %-8s\n",
		label, "RETURN", "SHARPE", "DRAWDOWN", "WIN RATE", "TRADES")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Printf("%-22s error: %v\n", key(o), o.Err)
			continue
		}
		m := o.Result.Metrics
		fmt.Printf("%-22s %+-12.2f %-10.2f %-12.2f %-10.2f %-8d\n",
			key(o), m.TotalReturnPct, m.SharpeRatio, m.MaxDrawdownPct, m.WinRatePct, m.TotalTrades)
	}
}
