package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.uber.org/dig"

	"TokenBoard/internal/api"
	"TokenBoard/internal/board"
	"TokenBoard/internal/collector"
	"TokenBoard/internal/config"
	"TokenBoard/internal/events"
	"TokenBoard/internal/notifier"
	"TokenBoard/internal/recorder"
	"TokenBoard/internal/scheduler"
	"TokenBoard/internal/store"
)

const redisPingTimeout = 3 * time.Second

func ProvideCache(cfg *config.Config, logger *slog.Logger) (collector.SnapshotCache, error) {
	if cfg.Redis.Addr == "" {
		return collector.NewMemoryCache(cfg.Collector.CacheTTL), nil
	}
	rc := collector.RedisConfigDefaults()
	rc.Addr = cfg.Redis.Addr
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.KeyPrefix = cfg.Redis.KeyPrefix
	rc.TTL = cfg.Collector.CacheTTL
	rcache, err := collector.NewRedisCache(rc, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := rcache.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, using in-process snapshot cache", "addr", rc.Addr, "error", err)
		rcache.Close()
		return collector.NewMemoryCache(cfg.Collector.CacheTTL), nil
	}
	logger.Info("redis snapshot cache connected", "addr", rc.Addr)
	return rcache, nil
}

func ProvideFetcher(cfg *config.Config, logger *slog.Logger) collector.Fetcher {
	if cfg.Collector.Source == "mock" {
		return collector.NewMockFetcher()
	}
	cg := collector.CoinGeckoConfigDefaults()
	if cfg.CoinGecko.BaseURL != "" {
		cg.BaseURL = cfg.CoinGecko.BaseURL
	}
	cg.APIKey = cfg.CoinGecko.APIKey
	cg.Proxy = cfg.Proxy
	cg.MaxRetries = cfg.CoinGecko.MaxRetries
	cg.RateLimitPerMin = cfg.CoinGecko.RateLimitPerMin
	cg.Logger = logger
	return collector.NewCoinGeckoFetcher(cg)
}

func ProvideCollector(cfg *config.Config, fetcher collector.Fetcher, cache collector.SnapshotCache, logger *slog.Logger) *collector.Collector {
	coll := collector.NewCollector(fetcher, collector.Options{
		FallbackToMock: cfg.Collector.FallbackToMock,
		Cache:          cache,
		Logger:         logger,
	})
	logger.Info("collector ready", "source", coll.Source(), "fallback_to_mock", cfg.Collector.FallbackToMock)
	return coll
}

func ProvideRepository(cfg *config.Config, logger *slog.Logger) (store.Repository, error) {
	switch cfg.Database.Store {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreSQLite:
		return store.NewSQLiteStore(cfg.Database.SQLitePath, logger)
	default:
		return store.NewFileStore(cfg.Database.StateFile)
	}
}

func ProvideRecorder(cfg *config.Config, logger *slog.Logger) recorder.Recorder {
	if !cfg.Database.HistoryEnabled {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
	if err != nil {
		logger.Warn("init sqlite recorder failed, using noop", "error", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

func ProvideBroker() *events.Broker {
	return events.NewBroker()
}

func ProvideBoard(ctx context.Context, cfg *config.Config, repo store.Repository, coll *collector.Collector,
	rec recorder.Recorder, broker *events.Broker, logger *slog.Logger) (*board.Manager, error) {
	opts := board.Options{
		Reactions: cfg.ReactionKinds(),
		Recorder:  rec,
		Broker:    broker,
		Logger:    logger,
	}
	if cfg.Birdeye.APIKey != "" {
		opts.Validator = collector.NewBirdeyeClient(collector.BirdeyeConfig{
			BaseURL: cfg.Birdeye.BaseURL,
			APIKey:  cfg.Birdeye.APIKey,
			Proxy:   cfg.Proxy,
			Logger:  logger,
		})
	}
	return board.NewManager(ctx, repo, coll, opts)
}

// ProvideNotifier returns nil when Telegram is not configured.
func ProvideNotifier(cfg *config.Config, logger *slog.Logger) (*notifier.TelegramNotifier, error) {
	if !cfg.TelegramEnabled() {
		return nil, nil
	}
	return notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
}

func ProvideScheduler(ctx context.Context, cfg *config.Config, mgr *board.Manager, tn *notifier.TelegramNotifier, logger *slog.Logger) (*scheduler.Scheduler, error) {
	var sender scheduler.Sender
	if tn != nil {
		sender = tn
	}
	s := scheduler.NewScheduler(ctx, mgr, sender, cfg.Telegram.DigestSize, logger)
	if err := s.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.DigestCron); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideKafkaSink returns nil when no brokers are configured.
func ProvideKafkaSink(cfg *config.Config, logger *slog.Logger) *events.KafkaSink {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil
	}
	w := events.NewKafkaWriter(events.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
	return events.NewKafkaSink(w, cfg.Kafka.Topic, logger)
}

func ProvideHTTPServer(cfg *config.Config, mgr *board.Manager, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(mgr, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func BuildContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dig.Container, error) {
	container := dig.New()

	providers := []struct {
		name string
		fn   any
	}{
		{"context", func() context.Context { return ctx }},
		{"config", func() *config.Config { return cfg }},
		{"logger", func() *slog.Logger { return logger }},
		{"snapshot cache", ProvideCache},
		{"fetcher", ProvideFetcher},
		{"collector", ProvideCollector},
		{"repository", ProvideRepository},
		{"recorder", ProvideRecorder},
		{"broker", ProvideBroker},
		{"board", ProvideBoard},
		{"notifier", ProvideNotifier},
		{"scheduler", ProvideScheduler},
		{"kafka sink", ProvideKafkaSink},
		{"http server", ProvideHTTPServer},
		{"application", NewApplication},
	}
	for _, p := range providers {
		if err := container.Provide(p.fn); err != nil {
			return nil, fmt.Errorf("failed to provide %s: %w", p.name, err)
		}
	}
	return container, nil
}
