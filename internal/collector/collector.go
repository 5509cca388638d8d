package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"TokenBoard/internal/model"
)

// Options controls the Collector's recovery policy.
type Options struct {
	// FallbackToMock substitutes a placeholder snapshot when the fetcher fails.
	FallbackToMock bool
	Cache          SnapshotCache
	Logger         *slog.Logger
}

// Collector wraps a Fetcher with caching and fallbacks.
type Collector struct {
	fetcher  Fetcher
	mock     *MockFetcher
	cache    SnapshotCache
	fallback bool
	logger   *slog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, opts Options) *Collector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		fetcher:  fetcher,
		mock:     NewMockFetcher(),
		cache:    opts.Cache,
		fallback: opts.FallbackToMock,
		logger:   logger.With("component", "collector", "source", fetcher.Name()),
	}
}

// Source names the underlying fetcher.
func (c *Collector) Source() string { return c.fetcher.Name() }

// Snapshot returns the current snapshot for a token. Failures surface as
// ErrSnapshotUnavailable unless the mock fallback is enabled. Placeholders
// are never cached.
func (c *Collector) Snapshot(ctx context.Context, address string) (*model.PriceSnapshot, error) {
	if c.cache != nil {
		if snap, err := c.cache.Get(ctx, address); err != nil {
			c.logger.Warn("cache read failed", "address", address, "error", err)
		} else if snap != nil {
			return snap, nil
		}
	}

	snap, err := c.fetcher.FetchSnapshot(ctx, address)
	if err == nil && snap.Price > 0 {
		if c.cache != nil && !snap.Placeholder {
			if err := c.cache.Set(ctx, *snap); err != nil {
				c.logger.Warn("cache write failed", "address", address, "error", err)
			}
		}
		return snap, nil
	}
	if err == nil {
		err = fmt.Errorf("non-positive price %v", snap.Price)
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, ctx.Err())
	}
	if c.fallback {
		c.logger.Warn("snapshot fetch failed, using placeholder", "address", address, "error", err)
		p := c.mock.Placeholder(address)
		return &p, nil
	}
	c.logger.Warn("snapshot fetch failed", "address", address, "error", err)
	if errors.Is(err, ErrTokenNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrSnapshotUnavailable, address, err)
}

// Trending returns trending tokens, or the built-in list when the lookup fails.
func (c *Collector) Trending(ctx context.Context) []model.TokenInfo {
	tokens, err := c.fetcher.FetchTrending(ctx)
	if err != nil || len(tokens) == 0 {
		if err != nil {
			c.logger.Warn("trending fetch failed, serving fallback", "error", err)
		}
		out := make([]model.TokenInfo, len(FallbackTrending))
		copy(out, FallbackTrending)
		return out
	}
	return tokens
}

// Search returns matches for the query; failures yield an empty list.
func (c *Collector) Search(ctx context.Context, query string) []model.TokenInfo {
	results, err := c.fetcher.Search(ctx, query)
	if err != nil {
		c.logger.Warn("search failed", "query", query, "error", err)
		return []model.TokenInfo{}
	}
	if results == nil {
		return []model.TokenInfo{}
	}
	return results
}

// Close releases the cache.
func (c *Collector) Close() error {
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}
