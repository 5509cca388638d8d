package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"TokenBoard/internal/model"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	CoinGecko struct {
		BaseURL         string `yaml:"base_url"`
		APIKey          string `yaml:"api_key"`
		RateLimitPerMin int    `yaml:"rate_limit_per_min"`
		MaxRetries      int    `yaml:"max_retries"`
	} `yaml:"coingecko"`
	Birdeye struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"birdeye"`
	Collector struct {
		// Source is "coingecko" or "mock".
		Source         string        `yaml:"source"`
		FallbackToMock bool          `yaml:"fallback_to_mock"`
		CacheTTL       time.Duration `yaml:"cache_ttl"`
	} `yaml:"collector"`
	Redis struct {
		Addr      string `yaml:"addr"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		KeyPrefix string `yaml:"key_prefix"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	Database struct {
		Store      string `yaml:"store"`
		StateFile  string `yaml:"state_file"`
		SQLitePath string `yaml:"sqlite_path"`
		// HistoryEnabled turns on the SQLite price and engagement recorder.
		HistoryEnabled bool `yaml:"history_enabled"`
	} `yaml:"database"`
	Board struct {
		Reactions []string `yaml:"reactions"`
	} `yaml:"board"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		DigestCron  string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken   string `yaml:"bot_token"`
		ChatID     string `yaml:"chat_id"`
		DigestSize int    `yaml:"digest_size"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides and fills defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")
	setString(&c.CoinGecko.BaseURL, "COINGECKO_BASE_URL")
	setString(&c.CoinGecko.APIKey, "COINGECKO_API_KEY")
	setString(&c.Birdeye.BaseURL, "BIRDEYE_BASE_URL")
	setString(&c.Birdeye.APIKey, "BIRDEYE_API_KEY")
	setString(&c.Collector.Source, "COLLECTOR_SOURCE")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Kafka.Topic, "KAFKA_TOPIC")
	setString(&c.Database.Store, "STORE")
	setString(&c.Database.StateFile, "STATE_FILE")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Schedule.RefreshCron, "CRON_REFRESH")
	setString(&c.Schedule.DigestCron, "CRON_DIGEST")
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&c.Proxy, "HTTPS_PROXY")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("BOARD_REACTIONS"); v != "" {
		c.Board.Reactions = splitList(v)
	}
	if v := os.Getenv("COLLECTOR_FALLBACK_TO_MOCK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Collector.FallbackToMock = b
		}
	}
	if v := os.Getenv("COLLECTOR_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Collector.CacheTTL = d
		}
	}
	if v := os.Getenv("HISTORY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Database.HistoryEnabled = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File == "" {
		c.Log.File = "logs/tokenboard.log"
	}
	if c.Collector.Source == "" {
		c.Collector.Source = "coingecko"
	}
	if c.Collector.CacheTTL == 0 {
		c.Collector.CacheTTL = time.Minute
	}
	if c.CoinGecko.RateLimitPerMin == 0 {
		c.CoinGecko.RateLimitPerMin = 25
	}
	if c.CoinGecko.MaxRetries == 0 {
		c.CoinGecko.MaxRetries = 2
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "tokenboard"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "tokenboard.events"
	}
	if c.Database.Store == "" {
		c.Database.Store = StoreFile
	}
	if c.Database.StateFile == "" {
		c.Database.StateFile = "data/board.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/tokenboard.db"
	}
	if len(c.Board.Reactions) == 0 {
		for _, r := range model.DefaultReactions {
			c.Board.Reactions = append(c.Board.Reactions, string(r))
		}
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 */5 * * * *"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 0 9 * * *"
	}
	if c.Telegram.DigestSize == 0 {
		c.Telegram.DigestSize = 5
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Database.Store {
	case StoreMemory, StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("database.store must be one of memory, file, sqlite; got %q", c.Database.Store)
	}
	switch c.Collector.Source {
	case "coingecko", "mock":
	default:
		return fmt.Errorf("collector.source must be coingecko or mock; got %q", c.Collector.Source)
	}
	if c.Collector.CacheTTL < 0 {
		return fmt.Errorf("collector.cache_ttl must not be negative")
	}
	if c.CoinGecko.RateLimitPerMin < 0 {
		return fmt.Errorf("coingecko.rate_limit_per_min must not be negative")
	}
	seen := make(map[string]bool)
	for _, r := range c.Board.Reactions {
		if r == "" {
			return fmt.Errorf("board.reactions must not contain empty names")
		}
		if seen[r] {
			return fmt.Errorf("board.reactions lists %q twice", r)
		}
		seen[r] = true
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"schedule.refresh_cron": c.Schedule.RefreshCron,
		"schedule.digest_cron":  c.Schedule.DigestCron,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when brokers are set")
	}
	return nil
}

// ReactionKinds returns the configured reaction set.
func (c *Config) ReactionKinds() []model.ReactionKind {
	out := make([]model.ReactionKind, 0, len(c.Board.Reactions))
	for _, r := range c.Board.Reactions {
		out = append(out, model.ReactionKind(strings.ToLower(strings.TrimSpace(r))))
	}
	return out
}

// TelegramEnabled reports whether the bot is configured.
func (c *Config) TelegramEnabled() bool { return c.Telegram.BotToken != "" }

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
