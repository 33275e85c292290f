package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMACD(t *testing.T) {
	macd := NewMACD(12, 26, 9)

	assert.NotNil(t, macd)
	assert.Equal(t, 26, macd.RequiredPeriods())
}

func TestMACD_Calculate_InsufficientData(t *testing.T) {
	macd := NewMACD(12, 26, 9)

	_, err := macd.Calculate(generateRisingPrices(20))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient data")
}

func TestMACD_Calculate_UptrendPositive(t *testing.T) {
	macd := NewMACD(12, 26, 9)

	value, err := macd.Calculate(generateRisingPrices(60))
	require.NoError(t, err)

	// In a steady uptrend the fast EMA sits above the slow EMA
	assert.Greater(t, value, 0.0)
}

func TestMACD_Calculate_DowntrendNegative(t *testing.T) {
	macd := NewMACD(12, 26, 9)
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 200.0 - float64(i)
	}

	value, err := macd.Calculate(prices)
	require.NoError(t, err)

	assert.Less(t, value, 0.0)
}

func TestMACD_Calculate_FlatZero(t *testing.T) {
	macd := NewMACD(12, 26, 9)
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 100.0
	}

	value, err := macd.Calculate(prices)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, value, 1e-9)
}

func TestSMA_Calculate(t *testing.T) {
	sma := NewSMA(5)

	value, err := sma.Calculate([]float64{1, 2, 3, 4, 5, 6, 7})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, value, 1e-9)

	_, err = sma.Calculate([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestEMA_Calculate_ShortInput(t *testing.T) {
	ema := NewEMA(20)

	// Fewer prices than the period falls back to the latest price
	value, err := ema.Calculate([]float64{10, 11, 12})
	require.NoError(t, err)
	assert.Equal(t, 12.0, value)

	_, err = ema.Calculate(nil)
	assert.Error(t, err)
}
