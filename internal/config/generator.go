package config

import (
	"fmt"

	"github.com/quantfold/trading-engine/internal/errors"
	"github.com/quantfold/trading-engine/pkg/types"
)

// GeneratorConfig holds signal generation parameters. Values are
// treated as immutable: runtime changes go through WithUpdates, which
// returns a new validated value and never mutates the receiver.
type GeneratorConfig struct {
	MaxSignalsPerCycle int                            `json:"max_signals_per_cycle"`
	MinConfidence      float64                        `json:"min_confidence"`
	MaxPositionSize    float64                        `json:"max_position_size"`
	RiskPerTrade       float64                        `json:"risk_per_trade"`
	LookbackPeriod     int                            `json:"lookback_period"`
	FeatureWindow      int                            `json:"feature_window"`
	ModelEnsembleSize  int                            `json:"model_ensemble_size"`
	StrategyWeights    map[types.StrategyKind]float64 `json:"strategy_weights"`
}

// DefaultGeneratorConfig returns the default generation parameters
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MaxSignalsPerCycle: 10,
		MinConfidence:      0.6,
		MaxPositionSize:    0.1,
		RiskPerTrade:       0.02,
		LookbackPeriod:     100,
		FeatureWindow:      20,
		ModelEnsembleSize:  5,
		StrategyWeights: map[types.StrategyKind]float64{
			types.StrategyMLPrediction:  0.4,
			types.StrategyMomentum:      0.2,
			types.StrategyMeanReversion: 0.2,
			types.StrategyBreakout:      0.1,
			types.StrategyArbitrage:     0.1,
		},
	}
}

// Validate checks all generation parameters
func (c GeneratorConfig) Validate() error {
	if c.MaxSignalsPerCycle <= 0 {
		return errors.NewConfigRejected("generator", "validate",
			fmt.Sprintf("max_signals_per_cycle must be positive, got: %d", c.MaxSignalsPerCycle))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return errors.NewConfigRejected("generator", "validate",
			fmt.Sprintf("min_confidence must be between 0 and 1, got: %.4f", c.MinConfidence))
	}
	if c.MaxPositionSize <= 0 || c.MaxPositionSize > 1 {
		return errors.NewConfigRejected("generator", "validate",
			fmt.Sprintf("max_position_size must be within (0, 1], got: %.4f", c.MaxPositionSize))
	}
	if c.RiskPerTrade <= 0 || c.RiskPerTrade > 1 {
		return errors.NewConfigRejected("generator", "validate",
			fmt.Sprintf("risk_per_trade must be within (0, 1], got: %.4f", c.RiskPerTrade))
	}
	if c.LookbackPeriod < 50 {
		return errors.NewConfigRejected("generator", "validate",
			fmt.Sprintf("lookback_period must be at least 50, got: %d", c.LookbackPeriod))
	}
	if c.FeatureWindow <= 0 {
		return errors.NewConfigRejected("generator", "validate",
			fmt.Sprintf("feature_window must be positive, got: %d", c.FeatureWindow))
	}
	if c.ModelEnsembleSize <= 0 {
		return errors.NewConfigRejected("generator", "validate",
			fmt.Sprintf("model_ensemble_size must be positive, got: %d", c.ModelEnsembleSize))
	}
	for kind, weight := range c.StrategyWeights {
		if weight < 0 || weight > 1 {
			return errors.NewConfigRejected("generator", "validate",
				fmt.Sprintf("strategy weight for %s must be between 0 and 1, got: %.4f", kind, weight))
		}
	}
	return nil
}

// WithUpdates applies an allow-listed parameter update and returns the
// new validated config. Unknown keys are rejected and no partial
// update ever takes effect.
func (c GeneratorConfig) WithUpdates(updates map[string]float64) (GeneratorConfig, error) {
	next := c
	next.StrategyWeights = cloneWeights(c.StrategyWeights)

	for key, value := range updates {
		switch key {
		case "max_signals_per_cycle":
			next.MaxSignalsPerCycle = int(value)
		case "min_confidence":
			next.MinConfidence = value
		case "max_position_size":
			next.MaxPositionSize = value
		case "risk_per_trade":
			next.RiskPerTrade = value
		case "lookback_period":
			next.LookbackPeriod = int(value)
		case "feature_window":
			next.FeatureWindow = int(value)
		case "model_ensemble_size":
			next.ModelEnsembleSize = int(value)
		default:
			return c, errors.NewConfigRejected("generator", "update",
				fmt.Sprintf("unknown parameter: %s", key))
		}
	}

	if err := next.Validate(); err != nil {
		return c, err
	}
	return next, nil
}

// WithStrategyWeights replaces the strategy weights and returns the new
// validated config.
func (c GeneratorConfig) WithStrategyWeights(weights map[types.StrategyKind]float64) (GeneratorConfig, error) {
	next := c
	next.StrategyWeights = cloneWeights(weights)
	for kind := range weights {
		known := false
		for _, s := range types.AllStrategies {
			if kind == s {
				known = true
				break
			}
		}
		if !known {
			return c, errors.NewConfigRejected("generator", "update",
				fmt.Sprintf("unknown strategy: %s", kind))
		}
	}
	if err := next.Validate(); err != nil {
		return c, err
	}
	return next, nil
}

func cloneWeights(weights map[types.StrategyKind]float64) map[types.StrategyKind]float64 {
	out := make(map[types.StrategyKind]float64, len(weights))
	for k, v := range weights {
		out[k] = v
	}
	return out
}
