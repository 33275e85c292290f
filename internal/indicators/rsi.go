package indicators

import (
	"errors"
	"math"
)

// RSI calculates the Relative Strength Index
type RSI struct {
	period int
}

// NewRSI creates a new RSI instance with the given period
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Calculate computes the RSI value based on the given price slice
func (r *RSI) Calculate(prices []float64) (float64, error) {
	if len(prices) < r.period+1 {
		return 0, errors.New("insufficient data for RSI calculation")
	}

	// Calculate price changes
	changes := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		changes[i-1] = prices[i] - prices[i-1]
	}

	// Separate gains and losses
	gains := make([]float64, len(changes))
	losses := make([]float64, len(changes))
	for i, change := range changes {
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = math.Abs(change)
		}
	}

	avgGain := mean(gains[len(gains)-r.period:])
	avgLoss := mean(losses[len(losses)-r.period:])

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))

	return rsi, nil
}

// Period returns the configured lookback period
func (r *RSI) Period() int {
	return r.period
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values))
}
