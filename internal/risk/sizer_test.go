package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantfold/trading-engine/internal/config"
	"github.com/quantfold/trading-engine/pkg/types"
)

func sizedSignal(confidence, entry, stop float64) *types.TradingSignal {
	return &types.TradingSignal{
		Symbol:     "BTCUSDT",
		Strategy:   types.StrategyMomentum,
		Type:       types.SignalBuy,
		Confidence: confidence,
		EntryPrice: entry,
		StopLoss:   stop,
		TakeProfit: entry * 1.05,
	}
}

func TestSizeIsPure(t *testing.T) {
	limits := config.DefaultRiskLimits()
	sig := sizedSignal(0.8, 50000, 49000)

	first := Size(sig, limits, 100000)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Size(sig, limits, 100000))
	}
}

func TestSizeZeroStopDistance(t *testing.T) {
	limits := config.DefaultRiskLimits()
	sig := sizedSignal(0.9, 50000, 50000)

	assert.Equal(t, 0.0, Size(sig, limits, 100000))
}

func TestSizeDegenerateInputs(t *testing.T) {
	limits := config.DefaultRiskLimits()

	assert.Equal(t, 0.0, Size(sizedSignal(0.8, 0, 0), limits, 100000))
	assert.Equal(t, 0.0, Size(sizedSignal(0.8, 50000, 49000), limits, 0))
	assert.Equal(t, 0.0, Size(sizedSignal(0.8, 50000, 49000), limits, -5000))
}

func TestSizeComputation(t *testing.T) {
	limits := config.DefaultRiskLimits()
	pv := 100000.0

	// budget = min(0.1*100000, 0.1*0.05*100000) = 500
	// stop distance = 1000/50000 = 0.02
	// kelly(0.8) = (0.8*2 - 0.2)/2 = 0.7 -> clamped to 0.25
	// raw = (500/0.02)*0.25/50000 = 0.125
	// cap = 0.1*100000/50000 = 0.2 (not binding)
	// scaled = 0.125*0.8 = 0.1
	sig := sizedSignal(0.8, 50000, 49000)
	assert.InDelta(t, 0.1, Size(sig, limits, pv), 1e-9)
}

func TestSizePositionCapBinds(t *testing.T) {
	limits := config.DefaultRiskLimits()
	pv := 100000.0

	// a tight stop inflates the raw size until the position cap binds:
	// stop distance 0.1% -> raw = (500/0.001)*0.25/50000 = 2.5 > cap 0.2
	sig := sizedSignal(0.8, 50000, 49950)
	assert.InDelta(t, 0.2*0.8, Size(sig, limits, pv), 1e-9)
}

func TestSizeNeverNegative(t *testing.T) {
	limits := config.DefaultRiskLimits()

	// low confidence drives the Kelly fraction to zero
	sig := sizedSignal(0.1, 50000, 49000)
	assert.Equal(t, 0.0, Size(sig, limits, 100000))
}

func TestKellyFraction(t *testing.T) {
	// f = (p*2 - (1-p))/2
	assert.InDelta(t, 0.25, kellyFraction(0.5), 1e-9)
	assert.Equal(t, 0.25, kellyFraction(0.9), "clamped at 0.25")
	assert.Equal(t, 0.0, kellyFraction(0.2), "negative edge clamps to 0")
	assert.InDelta(t, 0.1, kellyFraction(0.4), 1e-9)
}

func BenchmarkSize(b *testing.B) {
	limits := config.DefaultRiskLimits()
	sig := sizedSignal(0.8, 50000, 49000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Size(sig, limits, 100000)
	}
}
