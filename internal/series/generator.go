// Package series synthesizes plausible historical price series anchored to
// a current snapshot, for charts that have no real historical feed.
package series

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"TokenBoard/internal/model"
)

// MaxDeviation bounds every generated price to base*(1±MaxDeviation).
const MaxDeviation = 0.5

// ErrInvalidSnapshot is returned when the snapshot price cannot anchor a walk.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Generator produces bounded random walks with linear drift.
// The zero value is ready to use and draws from the global source.
type Generator struct {
	// Float64 returns a uniform draw in [0,1). It must be safe for
	// concurrent use if the Generator is shared.
	Float64 func() float64
}

// NewGenerator returns a Generator using the goroutine-safe global source.
func NewGenerator() *Generator {
	return &Generator{Float64: rand.Float64}
}

// NewSeededGenerator returns a deterministic Generator. Not safe for concurrent use.
func NewSeededGenerator(seed uint64) *Generator {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &Generator{Float64: r.Float64}
}

func (g *Generator) draw() float64 {
	if g == nil || g.Float64 == nil {
		return rand.Float64()
	}
	return g.Float64()
}

// Generate builds a series for tf ending at now. The last point equals snap.
func (g *Generator) Generate(snap model.PriceSnapshot, tf Timeframe, now time.Time) (model.Series, error) {
	basePrice := snap.Price
	if basePrice <= 0 || math.IsNaN(basePrice) || math.IsInf(basePrice, 0) {
		return nil, fmt.Errorf("%w: price %v", ErrInvalidSnapshot, basePrice)
	}
	if !nonNegative(snap.MarketCap) {
		return nil, fmt.Errorf("%w: market cap %v", ErrInvalidSnapshot, snap.MarketCap)
	}
	if !nonNegative(snap.Volume24h) {
		return nil, fmt.Errorf("%w: volume %v", ErrInvalidSnapshot, snap.Volume24h)
	}

	cfg := ConfigFor(tf)
	trend := cfg.Trend(snap.Change24hPercent)
	nowMillis := now.UnixMilli()
	timeStep := cfg.TimeStep(nowMillis)

	lower := basePrice * (1 - MaxDeviation)
	upper := basePrice * (1 + MaxDeviation)
	trendChange := trend / float64(cfg.Points)

	out := make(model.Series, 0, cfg.Points+1)
	currentPrice := basePrice / (1 + trend)

	for i := 0; i <= cfg.Points; i++ {
		ts := nowMillis - int64(math.Round(float64(cfg.Points-i)*timeStep))

		randomChange := (g.draw() - 0.5) * cfg.Volatility
		currentPrice *= 1 + randomChange + trendChange
		currentPrice = clamp(currentPrice, lower, upper)

		out = append(out, model.SeriesPoint{
			TimestampMillis: ts,
			Price:           currentPrice,
			MarketCap:       currentPrice / basePrice * snap.MarketCap,
			Volume:          snap.Volume24h * (0.5 + g.draw()),
		})
	}

	last := &out[len(out)-1]
	last.Price = snap.Price
	last.MarketCap = snap.MarketCap
	last.Volume = snap.Volume24h

	return out, nil
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// clamp also pulls NaN (from a degenerate trend) back to the lower bound.
func clamp(v, lo, hi float64) float64 {
	if v < lo || math.IsNaN(v) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
