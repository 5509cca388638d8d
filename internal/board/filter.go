package board

import (
	"sort"
	"strings"

	"TokenBoard/internal/model"
	"TokenBoard/internal/strategy"
)

// Filter selects and orders the board for display.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPopular   Filter = "popular"
	FilterGainers   Filter = "gainers"
	FilterTrending  Filter = "trending"
	FilterRecent    Filter = "recent"
	FilterFavorites Filter = "favorites"
)

// Filters lists every supported filter.
var Filters = []Filter{FilterAll, FilterPopular, FilterGainers, FilterTrending, FilterRecent, FilterFavorites}

// ParseFilter accepts a filter name; empty means all.
func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", ErrUnknownFilter
}

// apply filters and sorts tokens in place. Pinned tokens always come first;
// ties keep board order.
func apply(tokens []model.Token, f Filter) []model.Token {
	if f == FilterFavorites {
		kept := tokens[:0]
		for _, t := range tokens {
			if t.Favorite {
				kept = append(kept, t)
			}
		}
		tokens = kept
	}

	var less func(a, b *model.Token) bool
	switch f {
	case FilterPopular:
		less = func(a, b *model.Token) bool { return a.Votes > b.Votes }
	case FilterGainers:
		less = func(a, b *model.Token) bool { return a.Change24h > b.Change24h }
	case FilterRecent:
		less = func(a, b *model.Token) bool { return a.AddedAt.After(b.AddedAt) }
	case FilterTrending:
		scores := make(map[string]float64, len(tokens))
		for i := range tokens {
			scores[tokens[i].Address] = strategy.Evaluate(&tokens[i]).TotalScore
		}
		less = func(a, b *model.Token) bool { return scores[a.Address] > scores[b.Address] }
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		a, b := &tokens[i], &tokens[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if less == nil {
			return false
		}
		return less(a, b)
	})
	return tokens
}
