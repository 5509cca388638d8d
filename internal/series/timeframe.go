package series

import (
	"strings"
	"time"
)

// Timeframe names a historical window for a synthetic series.
type Timeframe string

const (
	Timeframe24h Timeframe = "24h"
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
	Timeframe1y  Timeframe = "1y"
)

// DefaultTimeframe is used for unrecognized labels.
const DefaultTimeframe = Timeframe7d

// Timeframes lists the supported windows, shortest first.
var Timeframes = []Timeframe{Timeframe24h, Timeframe7d, Timeframe30d, Timeframe1y}

// StepConfig controls point density and walk shape for one timeframe.
type StepConfig struct {
	Points     int
	Volatility float64
	// TrendDays scales the hourly drift derived from the 24h change.
	TrendDays float64
	// Days is the window length implied by the label.
	Days int
}

var stepConfigs = map[Timeframe]StepConfig{
	Timeframe24h: {Points: 24, Volatility: 0.01, TrendDays: 1, Days: 1},
	Timeframe7d:  {Points: 168, Volatility: 0.015, TrendDays: 7, Days: 7},
	Timeframe30d: {Points: 180, Volatility: 0.02, TrendDays: 30, Days: 30},
	Timeframe1y:  {Points: 365, Volatility: 0.025, TrendDays: 365, Days: 365},
}

// ParseTimeframe normalizes a label. ok is false when the label is not one
// of the supported windows; the returned value is then DefaultTimeframe.
func ParseTimeframe(s string) (tf Timeframe, ok bool) {
	tf = Timeframe(strings.ToLower(strings.TrimSpace(s)))
	if _, found := stepConfigs[tf]; found {
		return tf, true
	}
	return DefaultTimeframe, false
}

// ConfigFor returns the step configuration, falling back to 7d.
func ConfigFor(tf Timeframe) StepConfig {
	if cfg, ok := stepConfigs[tf]; ok {
		return cfg
	}
	return stepConfigs[DefaultTimeframe]
}

// PointCount is the number of steps; a generated series has PointCount+1 points.
func PointCount(tf Timeframe) int {
	return ConfigFor(tf).Points
}

// Trend converts a 24h percentage change into the window drift.
func (c StepConfig) Trend(change24hPercent float64) float64 {
	return change24hPercent / 100 / 24 * c.TrendDays
}

// WindowMillis is the timeframe duration in milliseconds.
func (c StepConfig) WindowMillis() int64 {
	return (time.Duration(c.Days) * 24 * time.Hour).Milliseconds()
}

// TimeStep is the spacing between consecutive points in milliseconds:
// (now - window) / points.
func (c StepConfig) TimeStep(nowMillis int64) float64 {
	return float64(nowMillis-c.WindowMillis()) / float64(c.Points)
}
