package indicators

import (
	"errors"
	"math"
)

// BollingerBands calculates Bollinger Bands around an SMA midline
type BollingerBands struct {
	period int
	stdDev float64
}

// Bands holds the three band values for one calculation
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// NewBollingerBands creates a new Bollinger Bands instance
func NewBollingerBands(period int, stdDev float64) *BollingerBands {
	return &BollingerBands{period: period, stdDev: stdDev}
}

// Calculate computes the bands over the last period prices
func (b *BollingerBands) Calculate(prices []float64) (Bands, error) {
	if len(prices) < b.period {
		return Bands{}, errors.New("insufficient data for Bollinger Bands calculation")
	}

	window := prices[len(prices)-b.period:]
	sma := mean(window)

	variance := 0.0
	for _, price := range window {
		diff := price - sma
		variance += diff * diff
	}
	variance /= float64(len(window))
	std := math.Sqrt(variance)

	return Bands{
		Upper:  sma + std*b.stdDev,
		Middle: sma,
		Lower:  sma - std*b.stdDev,
	}, nil
}

// Period returns the configured lookback period
func (b *BollingerBands) Period() int {
	return b.period
}
