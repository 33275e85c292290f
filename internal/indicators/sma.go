package indicators

import "errors"

// SMA calculates the Simple Moving Average
type SMA struct {
	period int
}

// NewSMA creates a new SMA instance with the given period
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

// Calculate computes the SMA of the last period prices
func (s *SMA) Calculate(prices []float64) (float64, error) {
	if len(prices) < s.period {
		return 0, errors.New("insufficient data for SMA calculation")
	}
	return mean(prices[len(prices)-s.period:]), nil
}

// Period returns the configured lookback period
func (s *SMA) Period() int {
	return s.period
}
