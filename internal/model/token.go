package model

import "time"

// ReactionKind names an emoji reaction a user can leave on a token.
type ReactionKind string

const (
	ReactionRocket ReactionKind = "rocket"
	ReactionFire   ReactionKind = "fire"
	ReactionPoop   ReactionKind = "poop"
)

// DefaultReactions is the reaction set used when none is configured.
var DefaultReactions = []ReactionKind{ReactionRocket, ReactionFire, ReactionPoop}

// Token is a tracked token on the board.
type Token struct {
	Address     string               `json:"address"`
	Name        string               `json:"name"`
	Symbol      string               `json:"symbol"`
	Image       string               `json:"image,omitempty"`
	Description string               `json:"description,omitempty"`
	Price       float64              `json:"price"`
	MarketCap   float64              `json:"market_cap"`
	Volume24h   float64              `json:"volume_24h"`
	Change24h   float64              `json:"change_24h"`
	Votes       int                  `json:"votes"`
	Pinned      bool                 `json:"pinned"`
	Favorite    bool                 `json:"favorite"`
	Verified    bool                 `json:"verified"`
	Reactions   map[ReactionKind]int `json:"reactions"`
	AddedAt     time.Time            `json:"added_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Snapshot returns the token's last known price values.
func (t *Token) Snapshot() PriceSnapshot {
	return PriceSnapshot{
		Address:          t.Address,
		Price:            t.Price,
		Volume24h:        t.Volume24h,
		MarketCap:        t.MarketCap,
		Change24hPercent: t.Change24h,
		FetchedAt:        t.UpdatedAt,
	}
}

// ApplySnapshot copies snapshot values onto the token.
func (t *Token) ApplySnapshot(s PriceSnapshot) {
	t.Price = s.Price
	t.Volume24h = s.Volume24h
	t.MarketCap = s.MarketCap
	t.Change24h = s.Change24hPercent
	t.UpdatedAt = s.FetchedAt
}

// TotalReactions sums all reaction counters.
func (t *Token) TotalReactions() int {
	n := 0
	for _, c := range t.Reactions {
		n += c
	}
	return n
}

// Clone returns a deep copy so callers cannot mutate shared reaction maps.
func (t Token) Clone() Token {
	if t.Reactions != nil {
		r := make(map[ReactionKind]int, len(t.Reactions))
		for k, v := range t.Reactions {
			r[k] = v
		}
		t.Reactions = r
	}
	return t
}
