package portfolio

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/trading-engine/internal/logger"
	"github.com/quantfold/trading-engine/pkg/types"
)

type stubBroker struct {
	positions []types.Position
	err       error
}

func (b *stubBroker) PositionsSnapshot() ([]types.Position, error) {
	return b.positions, b.err
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(100000, logger.New("test"))
	require.NoError(t, err)
	return l
}

func buySignal(symbol string, entry float64) types.TradingSignal {
	return types.TradingSignal{
		Symbol:     symbol,
		Strategy:   types.StrategyMomentum,
		Type:       types.SignalBuy,
		Confidence: 0.8,
		EntryPrice: entry,
		StopLoss:   entry * 0.98,
		TakeProfit: entry * 1.05,
		Timestamp:  time.Now(),
	}
}

func TestNewLedgerRejectsNonPositiveValue(t *testing.T) {
	_, err := NewLedger(0, logger.New("test"))
	assert.Error(t, err)

	_, err = NewLedger(-100, logger.New("test"))
	assert.Error(t, err)
}

func TestOpenAndClosePosition(t *testing.T) {
	l := newTestLedger(t)

	pos, err := l.OpenPosition(buySignal("BTCUSDT", 50000), 0.1)
	require.NoError(t, err)
	assert.Equal(t, types.SideLong, pos.Side)
	assert.Equal(t, 50000.0, pos.EntryPrice)

	state := l.Snapshot()
	assert.Equal(t, 1, state.PositionCount)

	realized, err := l.ClosePosition("BTCUSDT", 51000)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, realized, 1e-9)

	state = l.Snapshot()
	assert.Equal(t, 0, state.PositionCount)
	assert.InDelta(t, 100.0, state.DailyPnL, 1e-9)
	assert.InDelta(t, 100.0, state.TotalPnL, 1e-9)
	assert.InDelta(t, 100100.0, state.PortfolioValue, 1e-9)
}

func TestShortPositionPnL(t *testing.T) {
	l := newTestLedger(t)

	sig := buySignal("ETHUSDT", 3000)
	sig.Type = types.SignalSell

	pos, err := l.OpenPosition(sig, 1.0)
	require.NoError(t, err)
	assert.Equal(t, types.SideShort, pos.Side)

	realized, err := l.ClosePosition("ETHUSDT", 2900)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, realized, 1e-9)
}

func TestOpenPositionRejectsDuplicateSymbol(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.OpenPosition(buySignal("BTCUSDT", 50000), 0.1)
	require.NoError(t, err)

	_, err = l.OpenPosition(buySignal("BTCUSDT", 50500), 0.1)
	assert.Error(t, err)
}

func TestOpenPositionRejectedDuringEmergencyStop(t *testing.T) {
	l := newTestLedger(t)

	assert.True(t, l.TriggerEmergencyStop())

	_, err := l.OpenPosition(buySignal("BTCUSDT", 50000), 0.1)
	assert.Error(t, err)

	l.ResetEmergencyStop()
	_, err = l.OpenPosition(buySignal("BTCUSDT", 50000), 0.1)
	assert.NoError(t, err)
}

func TestEmergencyStopLatchesOnce(t *testing.T) {
	l := newTestLedger(t)

	assert.True(t, l.TriggerEmergencyStop())
	assert.False(t, l.TriggerEmergencyStop(), "second trigger should not win the latch")
	assert.True(t, l.EmergencyStopped())
}

func TestRefreshPricesUpdatesValueAndPeak(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.OpenPosition(buySignal("BTCUSDT", 50000), 1.0)
	require.NoError(t, err)

	l.RefreshPrices(map[string]float64{"BTCUSDT": 52000})

	state := l.Snapshot()
	assert.InDelta(t, 102000.0, state.PortfolioValue, 1e-9)
	assert.InDelta(t, 102000.0, state.PeakValue, 1e-9)
	assert.InDelta(t, 0.0, state.Drawdown, 1e-9)

	// price falls back: value drops, peak holds, drawdown opens up
	l.RefreshPrices(map[string]float64{"BTCUSDT": 49000})

	state = l.Snapshot()
	assert.InDelta(t, 99000.0, state.PortfolioValue, 1e-9)
	assert.InDelta(t, 102000.0, state.PeakValue, 1e-9)
	assert.InDelta(t, (102000.0-99000.0)/102000.0, state.Drawdown, 1e-9)
}

func TestRefreshPricesIgnoresUnknownAndInvalidQuotes(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.OpenPosition(buySignal("BTCUSDT", 50000), 1.0)
	require.NoError(t, err)

	l.RefreshPrices(map[string]float64{"ETHUSDT": 3000, "BTCUSDT": -1})

	pos, ok := l.Position("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 50000.0, pos.CurrentPrice)
}

func TestSeedFromBroker(t *testing.T) {
	l := newTestLedger(t)

	broker := &stubBroker{positions: []types.Position{
		{Symbol: "BTCUSDT", Side: types.SideLong, Size: 0.5, EntryPrice: 48000, CurrentPrice: 48000},
		{Symbol: "ETHUSDT", Side: types.SideShort, Size: 2.0, EntryPrice: 3100, CurrentPrice: 3100},
	}}

	require.NoError(t, l.SeedFromBroker(broker))

	state := l.Snapshot()
	assert.Equal(t, 2, state.PositionCount)

	pos, ok := l.Position("ETHUSDT")
	require.True(t, ok)
	assert.Equal(t, types.SideShort, pos.Side)
}

func TestSeedFromBrokerPropagatesError(t *testing.T) {
	l := newTestLedger(t)

	broker := &stubBroker{err: assert.AnError}
	assert.Error(t, l.SeedFromBroker(broker))
}

func TestRiskEventLogIsAppendOnly(t *testing.T) {
	l := newTestLedger(t)

	l.RecordRiskEvent(types.EventDrawdownLimitExceeded, "BTCUSDT")
	l.RecordRiskEvent(types.EventPositionLimitExceeded, "ETHUSDT")

	events := l.RiskEvents(0)
	require.Len(t, events, 2)
	assert.Equal(t, types.EventDrawdownLimitExceeded, events[0].Kind)
	assert.Equal(t, types.EventPositionLimitExceeded, events[1].Kind)
	assert.Equal(t, 100000.0, events[0].PortfolioValue)

	last := l.RiskEvents(1)
	require.Len(t, last, 1)
	assert.Equal(t, "ETHUSDT", last[0].Symbol)
}

func TestSnapshotIsDetachedCopy(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.OpenPosition(buySignal("BTCUSDT", 50000), 1.0)
	require.NoError(t, err)

	state := l.Snapshot()
	mutated := state.Positions["BTCUSDT"]
	mutated.Size = 999
	state.Positions["BTCUSDT"] = mutated

	pos, ok := l.Position("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 1.0, pos.Size)
}

func TestConcurrentAccess(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.OpenPosition(buySignal("BTCUSDT", 50000), 1.0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.RefreshPrices(map[string]float64{"BTCUSDT": 50000 + float64(j)})
				_ = l.Snapshot()
				_ = l.EmergencyStopped()
			}
		}()
	}
	wg.Wait()

	state := l.Snapshot()
	assert.Equal(t, 1, state.PositionCount)
}
