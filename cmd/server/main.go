package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"jo3qma.com/autosniper/internal/app"
	"jo3qma.com/autosniper/internal/config"
)

func main() {
	os.Exit(run())
}

// run はサーバーを起動し、終了コードを返します
func run() int {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("❌ Failed to load config", "error", err)
		return 1
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.Level())
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	// シグナル待機（Ctrl+Cなど）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 依存関係の組み立て（依存性注入）
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("❌ Failed to initialize", "error", err)
		return 1
	}
	defer a.Close()

	if err := app.Serve(ctx, ":"+cfg.Port, a.Handler(), logger); err != nil {
		return 1
	}
	return 0
}
