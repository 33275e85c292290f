package risk

import (
	"fmt"
	"sync"

	"github.com/quantfold/trading-engine/internal/config"
	"github.com/quantfold/trading-engine/internal/errors"
	"github.com/quantfold/trading-engine/internal/logger"
	"github.com/quantfold/trading-engine/internal/portfolio"
	"github.com/quantfold/trading-engine/pkg/types"
)

// Metrics is the slice of the monitoring layer the risk package
// notifies. Calls are fire-and-forget: a slow or failing metrics sink
// never blocks or fails a risk decision.
type Metrics interface {
	RecordRiskEvent(kind types.RiskEventKind)
	SendAlert(level, message string)
}

// Enforcer admits or rejects sized signals against the risk limits.
// Checks run in a fixed order and the first failing one is the
// rejection reason; the whole sequence evaluates against one
// consistent ledger state, and an admitted position opens before that
// state can change.
type Enforcer struct {
	log     *logger.Logger
	ledger  *portfolio.Ledger
	corr    CorrelationEstimator
	vol     VolatilityEstimator
	metrics Metrics

	mu     sync.RWMutex
	limits config.RiskLimits
}

// NewEnforcer creates a risk enforcer over the ledger
func NewEnforcer(limits config.RiskLimits, ledger *portfolio.Ledger, corr CorrelationEstimator, vol VolatilityEstimator, metrics Metrics, log *logger.Logger) (*Enforcer, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Enforcer{
		log:     log,
		ledger:  ledger,
		corr:    corr,
		vol:     vol,
		metrics: metrics,
		limits:  limits,
	}, nil
}

// Limits returns the current risk limits
func (e *Enforcer) Limits() config.RiskLimits {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.limits
}

// ApplyUpdate applies an allow-listed limits update atomically.
// Unknown keys or invalid values leave the prior limits in force.
func (e *Enforcer) ApplyUpdate(updates map[string]float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := e.limits.WithUpdates(updates)
	if err != nil {
		return err
	}
	e.limits = next
	e.log.Info("risk limits updated: %d parameter(s) changed", len(updates))
	return nil
}

// Admit runs the ordered limit checks for a sized signal and, when
// every check passes, opens the position. The returned error names the
// first limit the signal broke.
func (e *Enforcer) Admit(sig types.TradingSignal, size float64) (types.Position, error) {
	limits := e.Limits()

	var rejection types.RiskEventKind
	pos, err := e.ledger.OpenIfAdmitted(sig, size, func(state portfolio.State) error {
		kind, reason := e.firstBrokenLimit(sig, size, limits, state)
		if reason == "" {
			return nil
		}
		rejection = kind
		return errors.NewRiskLimit("risk", "admit", reason)
	})

	if err != nil && rejection != "" {
		e.ledger.RecordRiskEvent(rejection, sig.Symbol)
		e.notify(rejection, sig.Symbol)
	}
	return pos, err
}

// Recheck re-runs the portfolio-level limits against current state,
// recording events for any that are breached. The risk monitor calls
// this on every tick; it never closes positions itself.
func (e *Enforcer) Recheck() []types.RiskEventKind {
	limits := e.Limits()
	state := e.ledger.Snapshot()

	var breached []types.RiskEventKind
	if state.DailyPnL <= -limits.MaxDailyLoss*state.PortfolioValue {
		breached = append(breached, types.EventDailyLossLimitExceeded)
	}
	if state.Drawdown >= limits.MaxDrawdown {
		breached = append(breached, types.EventDrawdownLimitExceeded)
	}

	for _, kind := range breached {
		e.ledger.RecordRiskEvent(kind, "")
		e.notify(kind, "")
	}
	return breached
}

// firstBrokenLimit evaluates the checks in their fixed order and
// returns the first breach, or an empty reason when all pass. A breach
// with an empty kind rejects the signal without recording a risk event.
func (e *Enforcer) firstBrokenLimit(sig types.TradingSignal, size float64, limits config.RiskLimits, state portfolio.State) (types.RiskEventKind, string) {
	// 1. emergency stop
	if state.EmergencyActive {
		return types.EventEmergencyStop, "emergency stop active"
	}

	// 2. daily loss
	if state.DailyPnL <= -limits.MaxDailyLoss*state.PortfolioValue {
		return types.EventDailyLossLimitExceeded, fmt.Sprintf(
			"daily loss limit reached: %.2f against limit %.2f",
			state.DailyPnL, -limits.MaxDailyLoss*state.PortfolioValue)
	}

	// 3. drawdown
	if state.Drawdown >= limits.MaxDrawdown {
		return types.EventDrawdownLimitExceeded, fmt.Sprintf(
			"drawdown %.4f exceeds limit %.4f", state.Drawdown, limits.MaxDrawdown)
	}

	// 4. position count
	if state.PositionCount >= limits.MaxPositions {
		return types.EventPositionLimitExceeded, fmt.Sprintf(
			"position count %d at limit %d", state.PositionCount, limits.MaxPositions)
	}

	// 5. position size: rejects without a risk event, the size cap is
	// an ordinary admission bound rather than a portfolio incident
	if size*sig.EntryPrice > limits.MaxPositionSize*state.PortfolioValue {
		return "", fmt.Sprintf(
			"position value %.2f exceeds limit %.2f",
			size*sig.EntryPrice, limits.MaxPositionSize*state.PortfolioValue)
	}

	// 6. correlation against every open position
	if e.corr != nil {
		for symbol := range state.Positions {
			if c := e.corr.CorrelationOf(sig.Symbol, symbol); c > limits.MaxCorrelation {
				return types.EventCorrelationLimitExceeded, fmt.Sprintf(
					"correlation %.4f with open position %s exceeds limit %.4f",
					c, symbol, limits.MaxCorrelation)
			}
		}
	}

	// 7. projected volatility
	if e.vol != nil {
		if v := e.vol.VolatilityOf(sig.Symbol); v > limits.MaxVolatility {
			return types.EventVolatilityLimitExceeded, fmt.Sprintf(
				"volatility %.4f exceeds limit %.4f", v, limits.MaxVolatility)
		}
	}

	return "", ""
}

func (e *Enforcer) notify(kind types.RiskEventKind, symbol string) {
	if e.metrics == nil {
		return
	}
	go func() {
		e.metrics.RecordRiskEvent(kind)
		if symbol != "" {
			e.metrics.SendAlert("warning", fmt.Sprintf("signal for %s rejected: %s", symbol, kind))
		}
	}()
}
