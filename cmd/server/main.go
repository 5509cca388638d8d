package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"TokenBoard/internal/config"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		*cfgPath = v
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "path", *cfgPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}

	logger, err := setupLogger(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	logger.Info("TokenBoard starting",
		"addr", cfg.Server.Addr,
		"source", cfg.Collector.Source,
		"store", cfg.Database.Store,
		"history", cfg.Database.HistoryEnabled,
		"redis", cfg.Redis.Addr != "",
		"kafka", len(cfg.Kafka.Brokers) > 0,
		"telegram", cfg.TelegramEnabled(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := BuildContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build container", "error", err)
		os.Exit(1)
	}

	refreshOnStart := os.Getenv("RUN_ON_START") == "true"
	err = container.Invoke(func(app *Application) error {
		return app.Run(ctx, refreshOnStart)
	})
	if err != nil {
		logger.Error("TokenBoard stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("TokenBoard stopped")
}

func setupLogger(level, filename string) (*slog.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger, nil
}
