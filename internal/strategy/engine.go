package strategy

import "TokenBoard/internal/model"

// Tiers defines the trend mapping, hottest first.
var Tiers = []struct {
	MinScore float64
	Tier     model.TrendTier
}{
	{1.2, model.TrendTier{Label: "hot", Rank: 0}},
	{0.6, model.TrendTier{Label: "rising", Rank: 1}},
	{0.0, model.TrendTier{Label: "steady", Rank: 2}},
	{-0.6, model.TrendTier{Label: "cooling", Rank: 3}},
}

// DefaultTier is the lowest tier for scores < -0.6.
var DefaultTier = model.TrendTier{Label: "cold", Rank: 4}

// mapTier maps a total score to a TrendTier.
func mapTier(totalScore float64) model.TrendTier {
	for _, t := range Tiers {
		if totalScore >= t.MinScore {
			return t.Tier
		}
	}
	return DefaultTier
}

// Evaluate computes the trend score of a token from its engagement and market stats.
func Evaluate(tok *model.Token) *model.TrendScore {
	factors := []model.FactorScore{
		scoreVotes(tok),
		scoreReactions(tok),
		scoreMomentum(tok),
		scoreTurnover(tok),
	}

	total := 0.0
	for _, f := range factors {
		total += f.Weighted
	}

	return &model.TrendScore{
		Address:    tok.Address,
		Factors:    factors,
		TotalScore: total,
		Tier:       mapTier(total),
	}
}
