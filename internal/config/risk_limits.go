package config

import (
	"fmt"

	"github.com/quantfold/trading-engine/internal/errors"
)

// RiskLimits holds the portfolio risk limit configuration. A value is
// immutable for the session once constructed; runtime changes go
// through WithUpdates, which validates atomically and returns a new
// value.
type RiskLimits struct {
	MaxPositionSize   float64 `json:"max_position_size"`  // fraction of portfolio
	MaxDailyLoss      float64 `json:"max_daily_loss"`     // fraction of portfolio
	MaxDrawdown       float64 `json:"max_drawdown"`       // fraction of peak
	MaxCorrelation    float64 `json:"max_correlation"`    // pairwise position correlation
	MaxVolatility     float64 `json:"max_volatility"`     // projected portfolio volatility
	MaxLeverage       float64 `json:"max_leverage"`
	MaxPositions      int     `json:"max_positions"`
	EmergencyStopLoss float64 `json:"emergency_stop_loss"` // fraction of portfolio
}

// DefaultRiskLimits returns the default risk limit configuration
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxPositionSize:   0.1,
		MaxDailyLoss:      0.05,
		MaxDrawdown:       0.15,
		MaxCorrelation:    0.7,
		MaxVolatility:     0.3,
		MaxLeverage:       2.0,
		MaxPositions:      10,
		EmergencyStopLoss: 0.2,
	}
}

// Validate checks all risk limit parameters
func (l RiskLimits) Validate() error {
	if l.MaxPositionSize <= 0 || l.MaxPositionSize > 1 {
		return errors.NewConfigRejected("risk", "validate",
			fmt.Sprintf("max_position_size must be within (0, 1], got: %.4f", l.MaxPositionSize))
	}
	if l.MaxDailyLoss <= 0 || l.MaxDailyLoss > 1 {
		return errors.NewConfigRejected("risk", "validate",
			fmt.Sprintf("max_daily_loss must be within (0, 1], got: %.4f", l.MaxDailyLoss))
	}
	if l.MaxDrawdown <= 0 || l.MaxDrawdown > 1 {
		return errors.NewConfigRejected("risk", "validate",
			fmt.Sprintf("max_drawdown must be within (0, 1], got: %.4f", l.MaxDrawdown))
	}
	if l.MaxCorrelation <= 0 || l.MaxCorrelation > 1 {
		return errors.NewConfigRejected("risk", "validate",
			fmt.Sprintf("max_correlation must be within (0, 1], got: %.4f", l.MaxCorrelation))
	}
	if l.MaxVolatility <= 0 {
		return errors.NewConfigRejected("risk", "validate",
			fmt.Sprintf("max_volatility must be positive, got: %.4f", l.MaxVolatility))
	}
	if l.MaxLeverage < 1 {
		return errors.NewConfigRejected("risk", "validate",
			fmt.Sprintf("max_leverage must be at least 1, got: %.4f", l.MaxLeverage))
	}
	if l.MaxPositions <= 0 {
		return errors.NewConfigRejected("risk", "validate",
			fmt.Sprintf("max_positions must be positive, got: %d", l.MaxPositions))
	}
	if l.EmergencyStopLoss <= 0 || l.EmergencyStopLoss > 1 {
		return errors.NewConfigRejected("risk", "validate",
			fmt.Sprintf("emergency_stop_loss must be within (0, 1], got: %.4f", l.EmergencyStopLoss))
	}
	return nil
}

// WithUpdates applies an allow-listed update and returns the new
// validated limits. Unknown keys are rejected; the receiver is never
// modified, so a failed update leaves the prior limits in force.
func (l RiskLimits) WithUpdates(updates map[string]float64) (RiskLimits, error) {
	next := l

	for key, value := range updates {
		switch key {
		case "max_position_size":
			next.MaxPositionSize = value
		case "max_daily_loss":
			next.MaxDailyLoss = value
		case "max_drawdown":
			next.MaxDrawdown = value
		case "max_correlation":
			next.MaxCorrelation = value
		case "max_volatility":
			next.MaxVolatility = value
		case "max_leverage":
			next.MaxLeverage = value
		case "max_positions":
			next.MaxPositions = int(value)
		case "emergency_stop_loss":
			next.EmergencyStopLoss = value
		default:
			return l, errors.NewConfigRejected("risk", "update",
				fmt.Sprintf("unknown parameter: %s", key))
		}
	}

	if err := next.Validate(); err != nil {
		return l, err
	}
	return next, nil
}
