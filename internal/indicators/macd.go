package indicators

import "errors"

// MACD calculates the Moving Average Convergence Divergence line
// (fast EMA minus slow EMA).
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal int
}

// NewMACD creates a new MACD instance with the given periods
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: signal,
	}
}

// Calculate computes the MACD line for the given price slice
func (m *MACD) Calculate(prices []float64) (float64, error) {
	if len(prices) < m.slow.Period() {
		return 0, errors.New("insufficient data for MACD calculation")
	}

	fastEMA, err := m.fast.Calculate(prices)
	if err != nil {
		return 0, err
	}
	slowEMA, err := m.slow.Calculate(prices)
	if err != nil {
		return 0, err
	}
	return fastEMA - slowEMA, nil
}

// RequiredPeriods returns the minimum number of prices needed
func (m *MACD) RequiredPeriods() int {
	return m.slow.Period()
}
