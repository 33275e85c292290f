package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/trading-engine/internal/config"
	"github.com/quantfold/trading-engine/pkg/types"
)

func makeSignal(symbol string, confidence, size, entry, stop, target float64) types.TradingSignal {
	return types.TradingSignal{
		Symbol:       symbol,
		Strategy:     types.StrategyMomentum,
		Type:         types.SignalBuy,
		Confidence:   confidence,
		Strength:     0.5,
		EntryPrice:   entry,
		StopLoss:     stop,
		TakeProfit:   target,
		PositionSize: size,
		Timestamp:    time.Now(),
	}
}

func TestFilterDropsLowConfidence(t *testing.T) {
	cfg := config.DefaultGeneratorConfig()

	signals := []types.TradingSignal{
		makeSignal("BTCUSDT", 0.9, 0.05, 100, 98, 105),
		makeSignal("ETHUSDT", 0.3, 0.05, 100, 98, 105),
	}

	filtered := Filter(signals, cfg)

	require.Len(t, filtered, 1)
	assert.Equal(t, "BTCUSDT", filtered[0].Symbol)
}

func TestFilterClampsPositionSize(t *testing.T) {
	cfg := config.DefaultGeneratorConfig()

	signals := []types.TradingSignal{
		makeSignal("BTCUSDT", 0.9, 0.5, 100, 98, 105),
	}

	filtered := Filter(signals, cfg)

	require.Len(t, filtered, 1)
	assert.Equal(t, cfg.MaxPositionSize, filtered[0].PositionSize)
}

func TestExpectedValue(t *testing.T) {
	sig := makeSignal("BTCUSDT", 0.8, 0.1, 100, 98, 105)

	// 0.8*5 - 0.2*2 = 3.6, scaled by 0.1
	ev := ExpectedValue(&sig)
	assert.InDelta(t, 0.36, ev, 1e-9)
}

func TestRankOrdersByExpectedValueDescending(t *testing.T) {
	signals := []types.TradingSignal{
		makeSignal("LOW", 0.6, 0.05, 100, 99, 101),
		makeSignal("HIGH", 0.9, 0.1, 100, 98, 110),
		makeSignal("MID", 0.7, 0.08, 100, 98, 104),
	}

	ranked := Rank(signals)

	require.Len(t, ranked, 3)
	assert.Equal(t, "HIGH", ranked[0].Symbol)
	assert.Equal(t, "MID", ranked[1].Symbol)
	assert.Equal(t, "LOW", ranked[2].Symbol)

	for _, sig := range ranked {
		_, ok := sig.Metadata[types.MetaExpectedValue]
		assert.True(t, ok, "expected value should be attached to metadata")
	}
}

func TestRankIsStableForTies(t *testing.T) {
	first := makeSignal("FIRST", 0.8, 0.1, 100, 98, 105)
	second := makeSignal("SECOND", 0.8, 0.1, 100, 98, 105)

	ranked := Rank([]types.TradingSignal{first, second})

	require.Len(t, ranked, 2)
	assert.Equal(t, "FIRST", ranked[0].Symbol)
	assert.Equal(t, "SECOND", ranked[1].Symbol)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	signals := []types.TradingSignal{
		makeSignal("A", 0.6, 0.05, 100, 99, 101),
		makeSignal("B", 0.9, 0.1, 100, 98, 110),
	}

	Rank(signals)

	assert.Equal(t, "A", signals[0].Symbol)
	assert.Equal(t, "B", signals[1].Symbol)
}

func TestTruncate(t *testing.T) {
	signals := []types.TradingSignal{
		makeSignal("A", 0.9, 0.05, 100, 98, 105),
		makeSignal("B", 0.8, 0.05, 100, 98, 105),
		makeSignal("C", 0.7, 0.05, 100, 98, 105),
	}

	assert.Len(t, Truncate(signals, 2), 2)
	assert.Len(t, Truncate(signals, 5), 3)
	assert.Len(t, Truncate(signals, 0), 3)
}

func TestHistoryRotation(t *testing.T) {
	h := NewHistory(3)

	h.Record([]types.TradingSignal{
		makeSignal("A", 0.9, 0.05, 100, 98, 105),
		makeSignal("B", 0.9, 0.05, 100, 98, 105),
	})
	h.Record([]types.TradingSignal{
		makeSignal("C", 0.9, 0.05, 100, 98, 105),
		makeSignal("D", 0.9, 0.05, 100, 98, 105),
	})

	assert.Equal(t, 3, h.Len())

	recent := h.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "B", recent[0].Symbol)
	assert.Equal(t, "D", recent[2].Symbol)

	last := h.Recent(1)
	require.Len(t, last, 1)
	assert.Equal(t, "D", last[0].Symbol)
}
