package strategy

import (
	"fmt"

	"TokenBoard/internal/model"
)

func factor(name string, score, weight float64, commentary string) model.FactorScore {
	return model.FactorScore{
		Name:       name,
		RawScore:   score,
		Weight:     weight,
		Weighted:   score * weight,
		Commentary: commentary,
	}
}

// scoreVotes scores community upvotes.
// Weight: 0.30
func scoreVotes(tok *model.Token) model.FactorScore {
	v := tok.Votes
	var score float64
	switch {
	case v >= 1000:
		score = 2.0
	case v >= 250:
		score = 1.5
	case v >= 100:
		score = 1.0
	case v >= 25:
		score = 0.5
	case v > 0:
		score = 0
	default:
		score = -0.5
	}
	return factor("votes", score, 0.30, fmt.Sprintf("%d votes", v))
}

// scoreReactions scores net sentiment: rockets and fires count for, poops against.
// Weight: 0.20
func scoreReactions(tok *model.Token) model.FactorScore {
	net := 0
	for kind, n := range tok.Reactions {
		if kind == model.ReactionPoop {
			net -= n
		} else {
			net += n
		}
	}
	var score float64
	switch {
	case net >= 100:
		score = 2.0
	case net >= 30:
		score = 1.0
	case net >= 5:
		score = 0.5
	case net >= 0:
		score = 0
	case net >= -10:
		score = -1.0
	default:
		score = -2.0
	}
	return factor("reactions", score, 0.20, fmt.Sprintf("net %+d", net))
}

// scoreMomentum scores the 24h price change.
// Weight: 0.30
func scoreMomentum(tok *model.Token) model.FactorScore {
	c := tok.Change24h
	var score float64
	switch {
	case c >= 20:
		score = 2.0
	case c >= 10:
		score = 1.5
	case c >= 5:
		score = 1.0
	case c >= 0:
		score = 0.5
	case c >= -5:
		score = 0
	case c >= -10:
		score = -0.5
	case c >= -20:
		score = -1.0
	default:
		score = -2.0
	}
	return factor("momentum", score, 0.30, fmt.Sprintf("%+.1f%% 24h", c))
}

// scoreTurnover scores 24h volume relative to market cap.
// Weight: 0.20
func scoreTurnover(tok *model.Token) model.FactorScore {
	if tok.MarketCap <= 0 {
		return factor("turnover", 0, 0.20, "market cap unavailable")
	}
	ratio := tok.Volume24h / tok.MarketCap
	var score float64
	switch {
	case ratio >= 0.5:
		score = 2.0
	case ratio >= 0.2:
		score = 1.0
	case ratio >= 0.05:
		score = 0.5
	case ratio >= 0.01:
		score = 0
	default:
		score = -0.5
	}
	return factor("turnover", score, 0.20, fmt.Sprintf("%.1f%% of cap", ratio*100))
}
