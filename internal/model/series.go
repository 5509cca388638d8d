package model

// SeriesPoint is a single sample of a synthetic price series.
type SeriesPoint struct {
	TimestampMillis int64   `json:"timestamp"`
	Price           float64 `json:"price"`
	MarketCap       float64 `json:"market_cap"`
	Volume          float64 `json:"volume"`
}

// Series is an ordered run of points, oldest first.
type Series []SeriesPoint

// Prices returns the price column.
func (s Series) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}

// SeriesSummary holds statistics computed over a series.
type SeriesSummary struct {
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	Close         float64 `json:"close"`
	ChangePercent float64 `json:"change_percent"`
	SMA20         float64 `json:"sma_20"`
	RSI14         float64 `json:"rsi_14"`
}

// ChartData is the wire shape consumed by chart widgets: [timestamp, value] pairs.
type ChartData struct {
	Timeframe    string         `json:"timeframe"`
	Prices       [][2]float64   `json:"prices"`
	MarketCaps   [][2]float64   `json:"market_caps"`
	TotalVolumes [][2]float64   `json:"total_volumes"`
	Summary      *SeriesSummary `json:"summary,omitempty"`
}

// NewChartData splits a series into the three pair columns.
func NewChartData(timeframe string, s Series) ChartData {
	cd := ChartData{
		Timeframe:    timeframe,
		Prices:       make([][2]float64, 0, len(s)),
		MarketCaps:   make([][2]float64, 0, len(s)),
		TotalVolumes: make([][2]float64, 0, len(s)),
	}
	for _, p := range s {
		ts := float64(p.TimestampMillis)
		cd.Prices = append(cd.Prices, [2]float64{ts, p.Price})
		cd.MarketCaps = append(cd.MarketCaps, [2]float64{ts, p.MarketCap})
		cd.TotalVolumes = append(cd.TotalVolumes, [2]float64{ts, p.Volume})
	}
	return cd
}
