package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"TokenBoard/internal/model"
	"TokenBoard/internal/retry"
)

// Compile-time check that CoinGeckoFetcher implements Fetcher.
var _ Fetcher = (*CoinGeckoFetcher)(nil)

const (
	coinGeckoPublicURL = "https://api.coingecko.com/api/v3"
	trendingLimit      = 5
	searchLimit        = 10
)

// CoinGeckoConfig holds configuration for the CoinGecko fetcher.
type CoinGeckoConfig struct {
	// BaseURL defaults to the public v3 API.
	BaseURL string
	// APIKey is sent as x-cg-pro-api-key when set.
	APIKey string
	Proxy  string

	Timeout    time.Duration
	MaxRetries int
	// RateLimitPerMin caps outgoing requests; the public tier allows about 30.
	RateLimitPerMin int

	Logger     *slog.Logger
	HTTPClient *http.Client
}

// CoinGeckoConfigDefaults returns a config with default values.
func CoinGeckoConfigDefaults() CoinGeckoConfig {
	return CoinGeckoConfig{
		BaseURL:         coinGeckoPublicURL,
		Timeout:         30 * time.Second,
		MaxRetries:      2,
		RateLimitPerMin: 25,
	}
}

// CoinGeckoFetcher implements Fetcher using the CoinGecko REST API.
type CoinGeckoFetcher struct {
	config      CoinGeckoConfig
	client      *http.Client
	limiter     *rate.Limiter
	retryConfig retry.Config
	logger      *slog.Logger
}

// NewCoinGeckoFetcher creates a fetcher with optional proxy support.
func NewCoinGeckoFetcher(cfg CoinGeckoConfig) *CoinGeckoFetcher {
	defaults := CoinGeckoConfigDefaults()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.RateLimitPerMin <= 0 {
		cfg.RateLimitPerMin = defaults.RateLimitPerMin
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout, Transport: proxyTransport(cfg.Proxy)}
	}

	rps := float64(cfg.RateLimitPerMin) / 60.0
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.MaxRetries

	return &CoinGeckoFetcher{
		config:      cfg,
		client:      client,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		retryConfig: retryCfg,
		logger:      cfg.Logger.With("component", "coingecko"),
	}
}

func proxyTransport(proxyURL string) *http.Transport {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return transport
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

// priceFields is the per-asset object returned by the simple price endpoints.
type priceFields struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
	USDMarketCap float64 `json:"usd_market_cap"`
	USD24hVol    float64 `json:"usd_24h_vol"`
}

func (p priceFields) snapshot(address, source string) model.PriceSnapshot {
	return model.PriceSnapshot{
		Address:          address,
		Price:            p.USD,
		Volume24h:        p.USD24hVol,
		MarketCap:        p.USDMarketCap,
		Change24hPercent: p.USD24hChange,
		Source:           source,
		FetchedAt:        time.Now(),
	}
}

type coinRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Large  string `json:"large"`
}

var marketParams = url.Values{
	"vs_currencies":       {"usd"},
	"include_24hr_vol":    {"true"},
	"include_24hr_change": {"true"},
	"include_market_cap":  {"true"},
}

func withMarketParams(extra url.Values) url.Values {
	v := url.Values{}
	for k, vals := range marketParams {
		v[k] = vals
	}
	for k, vals := range extra {
		v[k] = vals
	}
	return v
}

// FetchSnapshot reads the current price of a Solana SPL token by mint address.
func (f *CoinGeckoFetcher) FetchSnapshot(ctx context.Context, address string) (*model.PriceSnapshot, error) {
	// CoinGecko keys the response by the lowercased contract address.
	normalized := strings.ToLower(strings.TrimSpace(address))
	endpoint := f.config.BaseURL + "/simple/token_price/solana"

	var resp map[string]priceFields
	if err := f.get(ctx, endpoint, withMarketParams(url.Values{"contract_addresses": {normalized}}), &resp); err != nil {
		return nil, fmt.Errorf("fetch token price: %w", err)
	}
	data, ok := resp[normalized]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, address)
	}
	snap := data.snapshot(address, f.Name())
	return &snap, nil
}

// FetchTrending returns the top trending coins with prices.
func (f *CoinGeckoFetcher) FetchTrending(ctx context.Context) ([]model.TokenInfo, error) {
	var trending struct {
		Coins []struct {
			Item coinRef `json:"item"`
		} `json:"coins"`
	}
	if err := f.get(ctx, f.config.BaseURL+"/search/trending", nil, &trending); err != nil {
		return nil, fmt.Errorf("fetch trending: %w", err)
	}

	refs := make([]coinRef, 0, trendingLimit)
	for _, c := range trending.Coins {
		if len(refs) == trendingLimit {
			break
		}
		refs = append(refs, c.Item)
	}
	return f.withPrices(ctx, refs)
}

// Search looks coins up by name or symbol.
func (f *CoinGeckoFetcher) Search(ctx context.Context, query string) ([]model.TokenInfo, error) {
	var results struct {
		Coins []coinRef `json:"coins"`
	}
	if err := f.get(ctx, f.config.BaseURL+"/search", url.Values{"query": {query}}, &results); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	refs := results.Coins
	if len(refs) > searchLimit {
		refs = refs[:searchLimit]
	}
	if len(refs) == 0 {
		return nil, nil
	}
	return f.withPrices(ctx, refs)
}

// withPrices joins coin references with /simple/price data. Coins without
// price data get zero values rather than being dropped.
func (f *CoinGeckoFetcher) withPrices(ctx context.Context, refs []coinRef) ([]model.TokenInfo, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}

	var prices map[string]priceFields
	if err := f.get(ctx, f.config.BaseURL+"/simple/price", withMarketParams(url.Values{"ids": {strings.Join(ids, ",")}}), &prices); err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	out := make([]model.TokenInfo, 0, len(refs))
	for _, r := range refs {
		out = append(out, model.TokenInfo{
			Address:  r.ID,
			Name:     r.Name,
			Symbol:   strings.ToUpper(r.Symbol),
			Image:    r.Large,
			Snapshot: prices[r.ID].snapshot(r.ID, f.Name()),
		})
	}
	return out, nil
}

func (f *CoinGeckoFetcher) get(ctx context.Context, endpoint string, params url.Values, result any) error {
	fullURL := endpoint
	if len(params) > 0 {
		fullURL = endpoint + "?" + params.Encode()
	}

	isRetryable := func(err error) bool {
		var nonRetryable *nonRetryableError
		return !errors.As(err, &nonRetryable)
	}
	onRetry := func(attempt int, err error, backoff time.Duration) {
		f.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"max_retries", f.retryConfig.MaxRetries,
			"backoff", backoff,
			"error", err,
		)
	}

	body, err := retry.Do(ctx, f.retryConfig, isRetryable, onRetry, func() ([]byte, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &nonRetryableError{err: fmt.Errorf("rate limiter: %w", err)}
		}
		return f.doSingleRequest(ctx, fullURL)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (f *CoinGeckoFetcher) doSingleRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &nonRetryableError{err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if f.config.APIKey != "" {
		req.Header.Set("x-cg-pro-api-key", f.config.APIKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (HTTP 429)")
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("server error (HTTP %d)", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &nonRetryableError{err: fmt.Errorf("client error (HTTP %d): %s", resp.StatusCode, string(body))}
	}
	return body, nil
}

// nonRetryableError wraps errors that should not be retried.
type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }
