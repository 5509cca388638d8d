package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"

	"TokenBoard/internal/model"
)

var _ Validator = (*BirdeyeClient)(nil)

const birdeyePublicURL = "https://public-api.birdeye.so/defi"

// BirdeyeConfig configures the Birdeye token validator.
type BirdeyeConfig struct {
	BaseURL    string
	APIKey     string
	Proxy      string
	Timeout    time.Duration
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// BirdeyeClient validates token addresses and searches verified tokens.
type BirdeyeClient struct {
	config BirdeyeConfig
	client *http.Client
	logger *slog.Logger
}

func NewBirdeyeClient(cfg BirdeyeConfig) *BirdeyeClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = birdeyePublicURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout, Transport: proxyTransport(cfg.Proxy)}
	}
	return &BirdeyeClient{
		config: cfg,
		client: client,
		logger: cfg.Logger.With("component", "birdeye"),
	}
}

var (
	dataPath     = []string{"data"}
	tokensPath   = []string{"data", "tokens"}
	namePath     = []string{"name"}
	symbolPath   = []string{"symbol"}
	logoPath     = []string{"logoURI"}
	verifiedPath = []string{"verified"}
	pricePath    = []string{"price"}
	addressPath  = []string{"address"}
)

// ValidateToken looks the address up on Birdeye. A response without a data
// object yields ErrTokenNotFound.
func (c *BirdeyeClient) ValidateToken(ctx context.Context, address string) (*model.TokenInfo, error) {
	body, err := c.get(ctx, "/token/info", url.Values{"address": {address}})
	if err != nil {
		return nil, fmt.Errorf("validate token: %w", err)
	}

	data, dataType, _, err := jsonparser.Get(body, dataPath...)
	if err != nil || dataType != jsonparser.Object {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, address)
	}

	info := parseTokenInfo(data)
	info.Address = address
	return &info, nil
}

// SearchVerified searches tokens by name and keeps only verified ones.
func (c *BirdeyeClient) SearchVerified(ctx context.Context, query string) ([]model.TokenInfo, error) {
	body, err := c.get(ctx, "/token/list", url.Values{"name": {query}})
	if err != nil {
		return nil, fmt.Errorf("search tokens: %w", err)
	}

	var out []model.TokenInfo
	_, err = jsonparser.ArrayEach(body, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		info := parseTokenInfo(value)
		if !info.Verified {
			return
		}
		if addr, err := jsonparser.GetString(value, addressPath...); err == nil {
			info.Address = addr
		}
		out = append(out, info)
	}, tokensPath...)
	if err != nil && err != jsonparser.KeyPathNotFoundError {
		return nil, fmt.Errorf("parse token list: %w", err)
	}
	return out, nil
}

func parseTokenInfo(data []byte) model.TokenInfo {
	var info model.TokenInfo
	if v, err := jsonparser.GetString(data, namePath...); err == nil {
		info.Name = v
	}
	if v, err := jsonparser.GetString(data, symbolPath...); err == nil {
		info.Symbol = v
	}
	if v, err := jsonparser.GetString(data, logoPath...); err == nil {
		info.Image = v
	}
	if v, err := jsonparser.GetBoolean(data, verifiedPath...); err == nil {
		info.Verified = v
	}
	if v, err := jsonparser.GetFloat(data, pricePath...); err == nil {
		info.Snapshot.Price = v
	}
	return info
}

func (c *BirdeyeClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-chain", "solana")
	if c.config.APIKey != "" {
		req.Header.Set("X-API-KEY", c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTokenNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("unexpected status", "path", path, "status", resp.StatusCode)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
