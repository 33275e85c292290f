package signal

import (
	"math"
	"time"

	"github.com/quantfold/trading-engine/internal/errors"
	"github.com/quantfold/trading-engine/internal/indicators"
	"github.com/quantfold/trading-engine/pkg/types"
)

// FeatureCount is the fixed dimensionality of the ML feature vector
const FeatureCount = 20

var featurePeriods = []int{5, 10, 20, 50}

// BuildFeatures builds the fixed ML feature vector from the lookback
// window: price statistics, multi-period SMA deltas, RSI, MACD,
// Bollinger position, volume statistics and time-of-day/week.
func BuildFeatures(snap *types.MarketSnapshot, lookback int) ([]float64, error) {
	if len(snap.Close) < lookback {
		return nil, errors.NewDataInsufficient("features", "build",
			"not enough history for feature extraction")
	}

	prices := snap.Close[len(snap.Close)-lookback:]
	volumes := snap.Volume
	if len(volumes) > lookback {
		volumes = volumes[len(volumes)-lookback:]
	}

	current := prices[len(prices)-1]
	features := make([]float64, 0, FeatureCount)

	// Price statistics
	priceMean := mean(prices)
	features = append(features,
		current,
		priceMean,
		stdDev(prices, priceMean),
		(current-prices[0])/prices[0],
	)

	// Multi-period SMA and price-vs-SMA deltas
	for _, period := range featurePeriods {
		if len(prices) >= period {
			sma := mean(prices[len(prices)-period:])
			features = append(features, sma, (current-sma)/sma)
		} else {
			features = append(features, 0, 0)
		}
	}

	// Technical indicators
	rsi, err := indicators.NewRSI(14).Calculate(prices)
	if err != nil {
		rsi = 50
	}
	macd, err := indicators.NewMACD(12, 26, 9).Calculate(prices)
	if err != nil {
		macd = 0
	}
	bandPos := 0.5
	if bands, err := indicators.NewBollingerBands(20, 2.0).Calculate(prices); err == nil && bands.Upper != bands.Lower {
		bandPos = (current - bands.Lower) / (bands.Upper - bands.Lower)
	}
	features = append(features, rsi, macd, bandPos)

	// Volume statistics
	if len(volumes) > 0 {
		volMean := mean(volumes)
		features = append(features,
			volumes[len(volumes)-1],
			volMean,
			stdDev(volumes, volMean),
		)
	} else {
		features = append(features, 0, 0, 0)
	}

	// Time features
	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	features = append(features,
		float64(ts.Hour())/24,
		float64(ts.Weekday())/7,
	)

	return features, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range values {
		d := v - avg
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}
