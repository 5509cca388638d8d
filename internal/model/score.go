package model

// FactorScore represents a single factor's scoring result.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"raw_score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary"`
}

// TrendTier maps a total score range to a label.
type TrendTier struct {
	Label string `json:"label"`
	Rank  int    `json:"rank"` // 0 is hottest
}

// TrendScore is the output of the trending engine for one token.
type TrendScore struct {
	Address    string        `json:"address"`
	Factors    []FactorScore `json:"factors"`
	TotalScore float64       `json:"total_score"`
	Tier       TrendTier     `json:"tier"`
}
