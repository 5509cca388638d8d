package calculator

import (
	"errors"

	"TokenBoard/internal/model"
)

const (
	smaPeriod = 20
	rsiPeriod = 14
)

// Summarize computes chart statistics for a series. Indicators that cannot
// be computed fall back to the close price (SMA) or 50 (RSI).
func Summarize(s model.Series) (*model.SeriesSummary, error) {
	if len(s) == 0 {
		return nil, errors.New("empty series")
	}
	prices := s.Prices()
	sum := &model.SeriesSummary{
		Open:  prices[0],
		Close: prices[len(prices)-1],
	}

	high, low, err := CalculateRange(prices)
	if err != nil {
		return nil, err
	}
	sum.High, sum.Low = high, low

	if chg, err := CalculateChangePercent(sum.Open, sum.Close); err == nil {
		sum.ChangePercent = chg
	}

	if sma, err := CalculateSMA(prices, smaPeriod); err != nil {
		sum.SMA20 = sum.Close
	} else {
		sum.SMA20 = sma
	}

	if rsi, err := CalculateRSI(prices, rsiPeriod); err != nil {
		sum.RSI14 = 50
	} else {
		sum.RSI14 = rsi
	}

	return sum, nil
}
