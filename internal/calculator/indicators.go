package calculator

import "errors"

var (
	ErrBadPeriod        = errors.New("period must be positive")
	ErrInsufficientData = errors.New("not enough data")
)

// neutralRSI is reported when there is no directional movement to measure.
const neutralRSI = 50.0

// MovingAverage returns the rolling simple average of prices. Element i of the
// result averages prices[i : i+period].
func MovingAverage(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrBadPeriod
	}
	if len(prices) < period {
		return nil, ErrInsufficientData
	}
	out := make([]float64, 0, len(prices)-period+1)
	var window float64
	for i, p := range prices {
		window += p
		if i >= period {
			window -= prices[i-period]
		}
		if i >= period-1 {
			out = append(out, window/float64(period))
		}
	}
	return out, nil
}

// CalculateSMA returns the latest value of the rolling average.
func CalculateSMA(prices []float64, period int) (float64, error) {
	line, err := MovingAverage(prices, period)
	if err != nil {
		return 0, err
	}
	return line[len(line)-1], nil
}

// CalculateRSI computes Wilder's RSI over the price column. With fewer than
// period+1 prices, or a flat series, it reports 50.
func CalculateRSI(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrBadPeriod
	}
	if len(prices) <= period {
		return neutralRSI, nil
	}

	p := float64(period)
	var up, down float64
	for i := 1; i < len(prices); i++ {
		gain, loss := split(prices[i] - prices[i-1])
		if i <= period {
			up += gain / p
			down += loss / p
			continue
		}
		up = (up*(p-1) + gain) / p
		down = (down*(p-1) + loss) / p
	}

	switch {
	case up == 0 && down == 0:
		return neutralRSI, nil
	case down == 0:
		return 100, nil
	}
	return 100 - 100/(1+up/down), nil
}

func split(delta float64) (gain, loss float64) {
	if delta > 0 {
		return delta, 0
	}
	return 0, -delta
}
