package signal

import (
	"math"
	"time"

	"github.com/quantfold/trading-engine/internal/config"
	"github.com/quantfold/trading-engine/internal/errors"
	"github.com/quantfold/trading-engine/internal/indicators"
	"github.com/quantfold/trading-engine/pkg/types"
)

// mlSignal combines the ensemble scorers over the feature vector. The
// mean value decides direction (above 0.5 reads bullish), the mean
// confidence gates emission. Failing scorers drop out of the mean;
// the signal is skipped only when every scorer fails.
func (g *Generator) mlSignal(cfg config.GeneratorConfig, snap *types.MarketSnapshot) (*types.TradingSignal, error) {
	if len(g.scorers) == 0 {
		return nil, nil
	}

	features, err := BuildFeatures(snap, cfg.LookbackPeriod)
	if err != nil {
		return nil, err
	}

	var values, confidences []float64
	for _, scorer := range g.scorers {
		value, confidence, err := scorer.Score(features)
		if err != nil {
			g.log.Warning("scorer %s failed for %s: %v", scorer.Name(), snap.Symbol, err)
			continue
		}
		values = append(values, value)
		confidences = append(confidences, confidence)
	}
	if len(values) == 0 {
		return nil, errors.New(errors.ErrorCategoryScoringUnavailable, "signal", "ml", "all scorers failed")
	}

	avgValue := mean(values)
	avgConfidence := mean(confidences)
	if avgConfidence <= cfg.MinConfidence {
		return nil, nil
	}

	price := snap.LastClose()
	if price <= 0 {
		return nil, errors.NewDataInsufficient("signal", "ml", "no close price available")
	}

	sigType := types.SignalSell
	stopLoss := price * 1.02
	takeProfit := price * 0.95
	if avgValue > 0.5 {
		sigType = types.SignalBuy
		stopLoss = price * 0.98
		takeProfit = price * 1.05
	}

	return &types.TradingSignal{
		Symbol:       snap.Symbol,
		Strategy:     types.StrategyMLPrediction,
		Type:         sigType,
		Confidence:   clamp01(avgConfidence),
		Strength:     clamp01(math.Abs(avgValue-0.5) * 2),
		EntryPrice:   price,
		StopLoss:     stopLoss,
		TakeProfit:   takeProfit,
		PositionSize: positionSizeFromConfidence(cfg, avgConfidence),
		Timestamp:    signalTime(snap),
		Metadata: map[string]float64{
			"prediction":  avgValue,
			"model_count": float64(len(values)),
		},
	}, nil
}

// momentumSignal goes with the trend: neutral RSI, a MACD on the right
// side of zero and price stacked over the 20 and 50 SMAs.
func momentumSignal(cfg config.GeneratorConfig, snap *types.MarketSnapshot) (*types.TradingSignal, error) {
	rsi, err := indicators.NewRSI(14).Calculate(snap.Close)
	if err != nil {
		return nil, errors.NewDataInsufficient("signal", "momentum", err.Error())
	}
	macd, err := indicators.NewMACD(12, 26, 9).Calculate(snap.Close)
	if err != nil {
		return nil, errors.NewDataInsufficient("signal", "momentum", err.Error())
	}
	sma20, err := indicators.NewSMA(20).Calculate(snap.Close)
	if err != nil {
		return nil, errors.NewDataInsufficient("signal", "momentum", err.Error())
	}
	sma50, err := indicators.NewSMA(50).Calculate(snap.Close)
	if err != nil {
		return nil, errors.NewDataInsufficient("signal", "momentum", err.Error())
	}

	price := snap.LastClose()
	meta := map[string]float64{"rsi": rsi, "macd": macd, "sma_20": sma20, "sma_50": sma50}

	bullish := rsi > 30 && rsi < 70 && macd > 0 && price > sma20 && sma20 > sma50
	bearish := rsi > 30 && rsi < 70 && macd < 0 && price < sma20 && sma20 < sma50

	switch {
	case bullish:
		return &types.TradingSignal{
			Symbol:       snap.Symbol,
			Strategy:     types.StrategyMomentum,
			Type:         types.SignalBuy,
			Confidence:   math.Min(rsi/100, 0.8),
			Strength:     clamp01(math.Abs(macd) / 100),
			EntryPrice:   price,
			StopLoss:     price * 0.98,
			TakeProfit:   price * 1.05,
			PositionSize: cfg.MaxPositionSize * 0.5,
			Timestamp:    signalTime(snap),
			Metadata:     meta,
		}, nil
	case bearish:
		return &types.TradingSignal{
			Symbol:       snap.Symbol,
			Strategy:     types.StrategyMomentum,
			Type:         types.SignalSell,
			Confidence:   math.Min((100-rsi)/100, 0.8),
			Strength:     clamp01(math.Abs(macd) / 100),
			EntryPrice:   price,
			StopLoss:     price * 1.02,
			TakeProfit:   price * 0.95,
			PositionSize: cfg.MaxPositionSize * 0.5,
			Timestamp:    signalTime(snap),
			Metadata:     meta,
		}, nil
	}
	return nil, nil
}

// meanReversionSignal fades moves outside the Bollinger bands when RSI
// confirms the extreme; the target is the band midline.
func meanReversionSignal(cfg config.GeneratorConfig, snap *types.MarketSnapshot) (*types.TradingSignal, error) {
	bands, err := indicators.NewBollingerBands(20, 2.0).Calculate(snap.Close)
	if err != nil {
		return nil, errors.NewDataInsufficient("signal", "mean_reversion", err.Error())
	}
	rsi, err := indicators.NewRSI(14).Calculate(snap.Close)
	if err != nil {
		return nil, errors.NewDataInsufficient("signal", "mean_reversion", err.Error())
	}

	price := snap.LastClose()
	meta := map[string]float64{
		"bb_upper": bands.Upper, "bb_middle": bands.Middle, "bb_lower": bands.Lower, "rsi": rsi,
	}

	oversold := price <= bands.Lower && rsi < 30
	overbought := price >= bands.Upper && rsi > 70

	switch {
	case oversold:
		return &types.TradingSignal{
			Symbol:       snap.Symbol,
			Strategy:     types.StrategyMeanReversion,
			Type:         types.SignalBuy,
			Confidence:   0.7,
			Strength:     0.8,
			EntryPrice:   price,
			StopLoss:     bands.Lower * 0.99,
			TakeProfit:   bands.Middle,
			PositionSize: cfg.MaxPositionSize * 0.3,
			Timestamp:    signalTime(snap),
			Metadata:     meta,
		}, nil
	case overbought:
		return &types.TradingSignal{
			Symbol:       snap.Symbol,
			Strategy:     types.StrategyMeanReversion,
			Type:         types.SignalSell,
			Confidence:   0.7,
			Strength:     0.8,
			EntryPrice:   price,
			StopLoss:     bands.Upper * 1.01,
			TakeProfit:   bands.Middle,
			PositionSize: cfg.MaxPositionSize * 0.3,
			Timestamp:    signalTime(snap),
			Metadata:     meta,
		}, nil
	}
	return nil, nil
}

// breakoutSignal triggers on a 20-period high/low break confirmed by
// at least 1.5x the average volume.
func breakoutSignal(cfg config.GeneratorConfig, snap *types.MarketSnapshot) (*types.TradingSignal, error) {
	const period = 20
	if len(snap.High) < period || len(snap.Low) < period || len(snap.Volume) < period {
		return nil, errors.NewDataInsufficient("signal", "breakout", "need 20 periods of highs, lows and volume")
	}

	high20 := math.Inf(-1)
	for _, h := range snap.High[len(snap.High)-period:] {
		high20 = math.Max(high20, h)
	}
	low20 := math.Inf(1)
	for _, l := range snap.Low[len(snap.Low)-period:] {
		low20 = math.Min(low20, l)
	}
	avgVolume := mean(snap.Volume[len(snap.Volume)-period:])

	price := snap.LastClose()
	volume := snap.LastVolume()
	meta := map[string]float64{
		"high_20": high20, "low_20": low20, "volume": volume, "avg_volume": avgVolume,
	}

	volumeConfirmed := volume > avgVolume*1.5

	switch {
	case price > high20 && volumeConfirmed:
		return &types.TradingSignal{
			Symbol:       snap.Symbol,
			Strategy:     types.StrategyBreakout,
			Type:         types.SignalBuy,
			Confidence:   0.8,
			Strength:     0.9,
			EntryPrice:   price,
			StopLoss:     high20 * 0.98,
			TakeProfit:   price * 1.08,
			PositionSize: cfg.MaxPositionSize * 0.7,
			Timestamp:    signalTime(snap),
			Metadata:     meta,
		}, nil
	case price < low20 && volumeConfirmed:
		return &types.TradingSignal{
			Symbol:       snap.Symbol,
			Strategy:     types.StrategyBreakout,
			Type:         types.SignalSell,
			Confidence:   0.8,
			Strength:     0.9,
			EntryPrice:   price,
			StopLoss:     low20 * 1.02,
			TakeProfit:   price * 0.92,
			PositionSize: cfg.MaxPositionSize * 0.7,
			Timestamp:    signalTime(snap),
			Metadata:     meta,
		}, nil
	}
	return nil, nil
}

// arbitrageSignal is a single-venue spread heuristic: it fires when the
// quoted spread exceeds 0.1% of the ask. It is not cross-venue
// arbitrage; the confidence stays low accordingly.
func arbitrageSignal(cfg config.GeneratorConfig, snap *types.MarketSnapshot) (*types.TradingSignal, error) {
	if snap.Bid <= 0 || snap.Ask <= 0 {
		return nil, errors.NewDataInsufficient("signal", "arbitrage", "no quote available")
	}

	spread := snap.Ask - snap.Bid
	spreadPct := spread / snap.Ask * 100

	if spreadPct <= 0.1 {
		return nil, nil
	}

	return &types.TradingSignal{
		Symbol:       snap.Symbol,
		Strategy:     types.StrategyArbitrage,
		Type:         types.SignalBuy,
		Confidence:   0.6,
		Strength:     0.5,
		EntryPrice:   snap.Ask,
		StopLoss:     snap.Ask * 1.01,
		TakeProfit:   snap.Ask * 0.99,
		PositionSize: cfg.MaxPositionSize * 0.2,
		Timestamp:    signalTime(snap),
		Metadata: map[string]float64{
			"spread": spread, "spread_pct": spreadPct, "bid": snap.Bid, "ask": snap.Ask,
		},
	}, nil
}

// positionSizeFromConfidence scales half the position cap by confidence
func positionSizeFromConfidence(cfg config.GeneratorConfig, confidence float64) float64 {
	return math.Min(cfg.MaxPositionSize*0.5*confidence, cfg.MaxPositionSize)
}

func signalTime(snap *types.MarketSnapshot) time.Time {
	if !snap.Timestamp.IsZero() {
		return snap.Timestamp
	}
	return time.Now()
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
