package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backlab/internal/backtest"
	"backlab/internal/config"
	"backlab/internal/httpapi"
	"backlab/internal/store"
	"backlab/internal/strategy"
	"backlab/internal/strategy/builtins"
	"backlab/internal/util"
)

func main() {
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

	barStore := store.NewParquetStore(cfg.Storage.DataDir)

	runStore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open run store: %v", err)
	}
	defer runStore.Close()

	registry := strategy.NewRegistry()
	builtins.RegisterAll(registry)

	engine := backtest.NewBacktester(barStore, registry, backtest.Config{
		InitialCapital: cfg.Backtest.InitialCapital,
		Commission:     cfg.Backtest.Commission,
		Slippage:       cfg.Backtest.Slippage,
		RiskPct:        cfg.Backtest.RiskPct,
		RewardRatio:    cfg.Backtest.RewardRatio,
		MinBars:        cfg.Backtest.MinBars,
		PeriodsPerYear: float64(cfg.Backtest.PeriodsPerYear),
	}, logger)

	api := httpapi.NewServer(engine, runStore, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("backlab-server listening", "addr", addr, "strategies", registry.List())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
