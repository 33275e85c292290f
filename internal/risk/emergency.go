package risk

import (
	"fmt"
	"strings"

	"github.com/quantfold/trading-engine/internal/config"
	"github.com/quantfold/trading-engine/internal/errors"
	"github.com/quantfold/trading-engine/internal/logger"
	"github.com/quantfold/trading-engine/internal/portfolio"
	"github.com/quantfold/trading-engine/pkg/types"
)

// PriceSource provides current prices for forced liquidation
type PriceSource interface {
	CurrentPrice(symbol string) (float64, error)
}

// EmergencyController watches total PnL and runs the emergency stop
// cascade: latch the flag, liquidate every open position, raise a
// critical alert. Exactly one caller wins the latch. A liquidation
// that partially fails is retried on the next evaluation because the
// latch stays set while positions remain open.
type EmergencyController struct {
	log     *logger.Logger
	ledger  *portfolio.Ledger
	prices  PriceSource
	metrics Metrics
}

// NewEmergencyController creates the controller over the ledger
func NewEmergencyController(ledger *portfolio.Ledger, prices PriceSource, metrics Metrics, log *logger.Logger) *EmergencyController {
	return &EmergencyController{
		log:     log,
		ledger:  ledger,
		prices:  prices,
		metrics: metrics,
	}
}

// Evaluate checks the emergency condition and drives the cascade. The
// trigger is total PnL at or below the configured fraction of the
// starting portfolio value; once the latch is set, every evaluation
// keeps liquidating until the book is flat.
func (c *EmergencyController) Evaluate(limits config.RiskLimits) error {
	state := c.ledger.Snapshot()
	threshold := -limits.EmergencyStopLoss * c.ledger.InitialValue()

	if state.TotalPnL <= threshold && c.ledger.TriggerEmergencyStop() {
		c.ledger.RecordRiskEvent(types.EventEmergencyStop, "")
		c.log.Critical("EMERGENCY STOP: total PnL %.2f breached threshold %.2f, liquidating %d position(s)",
			state.TotalPnL, threshold, state.PositionCount)
		if c.metrics != nil {
			go func() {
				c.metrics.RecordRiskEvent(types.EventEmergencyStop)
				c.metrics.SendAlert("critical", fmt.Sprintf(
					"emergency stop triggered: total PnL %.2f", state.TotalPnL))
			}()
		}
	}

	if c.ledger.EmergencyStopped() && state.PositionCount > 0 {
		return c.liquidate(state)
	}
	return nil
}

// liquidate force-closes every open position at the current market
// price. Symbols that fail to close stay on the book and are reported
// so the caller retries.
func (c *EmergencyController) liquidate(state portfolio.State) error {
	var failed []string
	for symbol := range state.Positions {
		price, err := c.prices.CurrentPrice(symbol)
		if err != nil {
			c.log.Error("emergency close of %s: no price available: %v", symbol, err)
			failed = append(failed, symbol)
			continue
		}
		if _, err := c.ledger.ClosePosition(symbol, price); err != nil {
			c.log.Error("emergency close of %s failed: %v", symbol, err)
			failed = append(failed, symbol)
		}
	}

	if len(failed) > 0 {
		return errors.New(errors.ErrorCategoryEmergencyStop, "risk", "liquidate",
			fmt.Sprintf("positions still open after emergency close: %s", strings.Join(failed, ", ")))
	}
	c.log.Critical("emergency liquidation complete, book is flat")
	return nil
}
