package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"TokenBoard/internal/model"
)

// SnapshotCache stores recent snapshots keyed by token address.
// Get returns (nil, nil) on a miss.
type SnapshotCache interface {
	Get(ctx context.Context, address string) (*model.PriceSnapshot, error)
	Set(ctx context.Context, snap model.PriceSnapshot) error
	Close() error
}

var (
	_ SnapshotCache = (*MemoryCache)(nil)
	_ SnapshotCache = (*RedisCache)(nil)
)

type cacheEntry struct {
	snap    model.PriceSnapshot
	expires time.Time
}

// MemoryCache is an in-process SnapshotCache with a fixed TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, address string) (*model.PriceSnapshot, error) {
	c.mu.RLock()
	e, ok := c.entries[address]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		return nil, nil
	}
	snap := e.snap
	return &snap, nil
}

func (c *MemoryCache) Set(_ context.Context, snap model.PriceSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[snap.Address] = cacheEntry{snap: snap, expires: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Close() error { return nil }

// RedisConfig holds Redis cache configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	// KeyPrefix is prepended to all cache keys.
	KeyPrefix string
}

// RedisConfigDefaults returns defaults for the Redis snapshot cache.
func RedisConfigDefaults() RedisConfig {
	return RedisConfig{
		Addr:      "localhost:6379",
		TTL:       time.Minute,
		KeyPrefix: "tokenboard",
	}
}

// redisClient is the subset of *redis.Client the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisCache shares snapshots between instances through Redis.
type RedisCache struct {
	client    redisClient
	ttl       time.Duration
	keyPrefix string
	logger    *slog.Logger
}

func NewRedisCache(cfg RedisConfig, logger *slog.Logger) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	defaults := RedisConfigDefaults()
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaults.KeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newRedisCache(client, cfg, logger), nil
}

func newRedisCache(client redisClient, cfg RedisConfig, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{
		client:    client,
		ttl:       cfg.TTL,
		keyPrefix: cfg.KeyPrefix,
		logger:    logger.With("component", "redis-cache"),
	}
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) key(address string) string {
	return fmt.Sprintf("%s:snapshot:%s", c.keyPrefix, address)
}

func (c *RedisCache) Get(ctx context.Context, address string) (*model.PriceSnapshot, error) {
	data, err := c.client.Get(ctx, c.key(address)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	var snap model.PriceSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.logger.Warn("dropping corrupt cache entry", "address", address, "error", err)
		return nil, nil
	}
	return &snap, nil
}

func (c *RedisCache) Set(ctx context.Context, snap model.PriceSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key(snap.Address), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
