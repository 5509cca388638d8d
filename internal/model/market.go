package model

import "time"

// PriceSnapshot is the current price reading for a token.
type PriceSnapshot struct {
	Address          string    `json:"address"`
	Price            float64   `json:"price"`
	Volume24h        float64   `json:"volume_24h"`
	MarketCap        float64   `json:"market_cap"`
	Change24hPercent float64   `json:"change_24h"`
	Source           string    `json:"source"`
	Placeholder      bool      `json:"placeholder"` // fabricated after an upstream failure
	FetchedAt        time.Time `json:"fetched_at"`
}

// TokenInfo is token metadata returned by search and trending lookups.
type TokenInfo struct {
	Address  string        `json:"address"`
	Name     string        `json:"name"`
	Symbol   string        `json:"symbol"`
	Image    string        `json:"image,omitempty"`
	Verified bool          `json:"verified"`
	Snapshot PriceSnapshot `json:"snapshot"`
}
