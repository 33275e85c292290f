package risk

import (
	"math"

	"github.com/quantfold/trading-engine/internal/config"
	"github.com/quantfold/trading-engine/pkg/types"
)

// kellyPayoffRatio is the assumed win/loss payoff ratio b in the Kelly
// formula. The strategies target roughly 2:1 reward-to-risk, so b=2.
const kellyPayoffRatio = 2.0

// maxKellyFraction caps the Kelly bet at a quarter-Kelly-style bound
const maxKellyFraction = 0.25

// Size computes the position size in asset units for a signal against
// the given portfolio value. It is a pure function: same inputs, same
// output, no state touched.
//
// The risk budget is the smaller of the position cap and a tenth of
// the daily loss budget. The stop distance converts the budget into a
// raw size; the Kelly fraction (p=confidence, b=2, clamped to
// [0, 0.25]) scales it down, the position cap bounds it and the
// confidence scales it once more. A zero stop distance sizes to zero:
// no stop means no measurable risk, means no position.
func Size(sig *types.TradingSignal, limits config.RiskLimits, portfolioValue float64) float64 {
	if portfolioValue <= 0 || sig.EntryPrice <= 0 {
		return 0
	}

	stopDistance := math.Abs(sig.EntryPrice-sig.StopLoss) / sig.EntryPrice
	if stopDistance == 0 {
		return 0
	}

	riskBudget := math.Min(
		limits.MaxPositionSize*portfolioValue,
		0.1*limits.MaxDailyLoss*portfolioValue,
	)

	f := kellyFraction(sig.Confidence)
	size := (riskBudget / stopDistance) * f / sig.EntryPrice

	maxSize := limits.MaxPositionSize * portfolioValue / sig.EntryPrice
	size = math.Min(size, maxSize)

	size *= sig.Confidence
	return math.Max(size, 0)
}

// kellyFraction is f = (p*b - (1-p)) / b clamped to [0, maxKellyFraction]
func kellyFraction(p float64) float64 {
	f := (p*kellyPayoffRatio - (1 - p)) / kellyPayoffRatio
	if f < 0 {
		return 0
	}
	if f > maxKellyFraction {
		return maxKellyFraction
	}
	return f
}
