package collector

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"TokenBoard/internal/model"
)

var _ Fetcher = (*MockFetcher)(nil)

// FallbackTrending is served when the trending lookup fails.
var FallbackTrending = []model.TokenInfo{
	{
		Address: "bitcoin",
		Name:    "Bitcoin",
		Symbol:  "BTC",
		Image:   "https://assets.coingecko.com/coins/images/1/large/bitcoin.png",
		Snapshot: model.PriceSnapshot{
			Address:          "bitcoin",
			Price:            65000,
			Change24hPercent: 2.5,
			Source:           "fallback",
			Placeholder:      true,
		},
	},
	{
		Address: "ethereum",
		Name:    "Ethereum",
		Symbol:  "ETH",
		Image:   "https://assets.coingecko.com/coins/images/279/large/ethereum.png",
		Snapshot: model.PriceSnapshot{
			Address:          "ethereum",
			Price:            3500,
			Change24hPercent: 1.8,
			Source:           "fallback",
			Placeholder:      true,
		},
	},
}

// MockFetcher fabricates placeholder data. Fixed snapshots and a forced
// error can be set for tests.
type MockFetcher struct {
	mu        sync.Mutex
	Snapshots map[string]model.PriceSnapshot
	Err       error
	Float64   func() float64
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{Snapshots: make(map[string]model.PriceSnapshot)}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) rnd() float64 {
	if m.Float64 != nil {
		return m.Float64()
	}
	return rand.Float64()
}

// Set registers a fixed snapshot for an address.
func (m *MockFetcher) Set(snap model.PriceSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Snapshots == nil {
		m.Snapshots = make(map[string]model.PriceSnapshot)
	}
	m.Snapshots[snap.Address] = snap
}

func (m *MockFetcher) FetchSnapshot(_ context.Context, address string) (*model.PriceSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if snap, ok := m.Snapshots[address]; ok {
		return &snap, nil
	}
	snap := m.placeholder(address)
	return &snap, nil
}

// Placeholder returns a fabricated snapshot for the address.
func (m *MockFetcher) Placeholder(address string) model.PriceSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.placeholder(address)
}

func (m *MockFetcher) placeholder(address string) model.PriceSnapshot {
	snap := model.PriceSnapshot{
		Address:          address,
		Price:            m.rnd() * 100,
		Change24hPercent: m.rnd()*20 - 10,
		MarketCap:        m.rnd() * 1e9,
		Volume24h:        m.rnd() * 1e6,
		Source:           m.Name(),
		Placeholder:      true,
		FetchedAt:        time.Now(),
	}
	if strings.EqualFold(address, USDCMint) {
		snap.Price = 1.0
	}
	return snap
}

func (m *MockFetcher) FetchTrending(_ context.Context) ([]model.TokenInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.TokenInfo, len(FallbackTrending))
	copy(out, FallbackTrending)
	return out, nil
}

// Search matches the query against known token names and symbols.
func (m *MockFetcher) Search(_ context.Context, query string) ([]model.TokenInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	var out []model.TokenInfo
	for mint, md := range KnownTokens {
		if strings.Contains(strings.ToLower(md.Name), q) || strings.Contains(strings.ToLower(md.Symbol), q) {
			out = append(out, model.TokenInfo{
				Address:  mint,
				Name:     md.Name,
				Symbol:   md.Symbol,
				Image:    md.LogoURL,
				Verified: true,
				Snapshot: m.placeholder(mint),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}
