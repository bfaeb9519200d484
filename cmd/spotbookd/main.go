package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"spotbook/params"
	"spotbook/pkg/api"
	"spotbook/pkg/exchange"
	"spotbook/pkg/exchange/market"
	"spotbook/pkg/storage"
	"spotbook/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("") // "" means load from .env in current directory

	if err := os.MkdirAll(cfg.Node.DataDir, 0755); err != nil {
		log.Fatalf("data dir: %v", err)
	}

	// Setup logging (console, plus file when configured)
	logFile := cfg.Node.LogFile
	var (
		logger *zap.Logger
		err    error
	)
	if logFile != "" {
		logger, err = util.NewLoggerWithFile(logFile)
	} else {
		logger, err = util.NewLogger()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", logFile)

	// ---- Market ----
	m, err := market.New(cfg.Market.Symbol, cfg.Market.BaseAsset, cfg.Market.QuoteAsset, market.Params{
		TickSize:     cfg.Market.TickSize,
		LotSize:      cfg.Market.LotSize,
		MinOrderSize: cfg.Market.MinOrderSize,
		MaxOrderSize: cfg.Market.MaxOrderSize,
		MaxPrice:     cfg.Market.MaxPrice,
	})
	if err != nil {
		sugar.Fatalw("market_config_invalid", "err", err)
	}

	// ---- Storage ----
	store, err := storage.Open(filepath.Join(cfg.Node.DataDir, "spotbook.db"))
	if err != nil {
		sugar.Fatalw("store_open_failed", "err", err)
	}
	defer store.Close()

	// ---- Engine ----
	engine := exchange.New(m, store, sugar)

	sugar.Infow("engine_starting",
		"symbol", m.Symbol,
		"base", m.BaseAsset,
		"quote", m.QuoteAsset)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- API Server ----
	apiServer := api.NewServer(engine, cfg.Node.FaucetAmount, sugar)
	go func() {
		if err := apiServer.Start(ctx, cfg.Node.APIAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")
}
