package indicators

import "errors"

// EMA calculates the Exponential Moving Average
type EMA struct {
	period int
}

// NewEMA creates a new EMA instance with the given period
func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

// Calculate computes the EMA across the whole price slice, seeded at the
// first price.
func (e *EMA) Calculate(prices []float64) (float64, error) {
	if len(prices) == 0 {
		return 0, errors.New("insufficient data for EMA calculation")
	}
	if len(prices) < e.period {
		return prices[len(prices)-1], nil
	}

	multiplier := 2.0 / float64(e.period+1)
	ema := prices[0]
	for _, price := range prices[1:] {
		ema = (price * multiplier) + (ema * (1 - multiplier))
	}
	return ema, nil
}

// Period returns the configured lookback period
func (e *EMA) Period() int {
	return e.period
}
