package signal

import (
	"math"
	"sort"

	"github.com/quantfold/trading-engine/internal/config"
	"github.com/quantfold/trading-engine/pkg/types"
)

// Filter drops signals below the confidence floor and clamps the
// position size fraction to the configured cap.
func Filter(signals []types.TradingSignal, cfg config.GeneratorConfig) []types.TradingSignal {
	filtered := make([]types.TradingSignal, 0, len(signals))
	for _, sig := range signals {
		if sig.Confidence < cfg.MinConfidence {
			continue
		}
		if sig.PositionSize > cfg.MaxPositionSize {
			sig.PositionSize = cfg.MaxPositionSize
		}
		filtered = append(filtered, sig)
	}
	return filtered
}

// Rank computes each signal's expected value, attaches it to metadata
// and returns the signals in descending expected-value order. The sort
// is stable: equal expected values keep their generation order, which
// keeps cycle output reproducible.
func Rank(signals []types.TradingSignal) []types.TradingSignal {
	ranked := make([]types.TradingSignal, len(signals))
	copy(ranked, signals)

	for i := range ranked {
		ev := ExpectedValue(&ranked[i])
		if ranked[i].Metadata == nil {
			ranked[i].Metadata = make(map[string]float64)
		}
		ranked[i].Metadata[types.MetaExpectedValue] = ev
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Metadata[types.MetaExpectedValue] > ranked[j].Metadata[types.MetaExpectedValue]
	})
	return ranked
}

// ExpectedValue is the confidence-weighted payoff minus the
// confidence-weighted loss, scaled by position size.
func ExpectedValue(sig *types.TradingSignal) float64 {
	winAmount := math.Abs(sig.TakeProfit - sig.EntryPrice)
	lossAmount := math.Abs(sig.EntryPrice - sig.StopLoss)
	ev := sig.Confidence*winAmount - (1-sig.Confidence)*lossAmount
	return ev * sig.PositionSize
}

// Truncate limits a ranked slice to the per-cycle signal cap
func Truncate(signals []types.TradingSignal, max int) []types.TradingSignal {
	if max > 0 && len(signals) > max {
		return signals[:max]
	}
	return signals
}
