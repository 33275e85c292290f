package engine

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/quantfold/trading-engine/internal/config"
	"github.com/quantfold/trading-engine/internal/errors"
	"github.com/quantfold/trading-engine/internal/exchange"
	"github.com/quantfold/trading-engine/internal/logger"
	"github.com/quantfold/trading-engine/internal/portfolio"
	"github.com/quantfold/trading-engine/internal/risk"
	"github.com/quantfold/trading-engine/internal/signal"
	"github.com/quantfold/trading-engine/internal/supervisor"
	"github.com/quantfold/trading-engine/pkg/types"
)

// Metrics is the monitoring surface the engine notifies. All calls are
// fire-and-forget.
type Metrics interface {
	RecordSignals(signals []types.TradingSignal)
	RecordAdmission()
	RecordRejection(reason string)
	UpdatePortfolio(value, drawdown float64, positions int, emergency bool)
}

// Reporter renders cycle results and portfolio state for an operator.
// Nil disables reporting.
type Reporter interface {
	PrintCycleSummary(signals []types.TradingSignal)
	PrintPortfolioStatus(state portfolio.State)
}

// Health receives engine liveness updates for the health endpoint. Nil
// disables health reporting.
type Health interface {
	MarkCycle(lastPrice float64)
	SetEmergency(active bool)
}

// Engine wires the full trading pipeline: market snapshot, signal
// generation, filtering and ranking, position sizing, risk admission,
// ledger update. Periodic work is scheduled through the supervisor.
type Engine struct {
	log       *logger.Logger
	cfg       *config.Config
	market    exchange.MarketData
	broker    exchange.Broker
	gen       *signal.Generator
	ledger    *portfolio.Ledger
	enforcer  *risk.Enforcer
	emergency *risk.EmergencyController
	estimator *risk.RollingEstimator
	metrics   Metrics
	reporter  Reporter
	health    Health
	sup       *supervisor.Supervisor
}

// Deps bundles the collaborators the engine needs
type Deps struct {
	Config    *config.Config
	Market    exchange.MarketData
	Broker    exchange.Broker
	Generator *signal.Generator
	Ledger    *portfolio.Ledger
	Enforcer  *risk.Enforcer
	Emergency *risk.EmergencyController
	Estimator *risk.RollingEstimator
	Metrics   Metrics
	Reporter  Reporter
	Health    Health
	Logger    *logger.Logger
}

// New creates the engine and registers its periodic tasks
func New(deps Deps) *Engine {
	e := &Engine{
		log:       deps.Logger,
		cfg:       deps.Config,
		market:    deps.Market,
		broker:    deps.Broker,
		gen:       deps.Generator,
		ledger:    deps.Ledger,
		enforcer:  deps.Enforcer,
		emergency: deps.Emergency,
		estimator: deps.Estimator,
		metrics:   deps.Metrics,
		reporter:  deps.Reporter,
		health:    deps.Health,
		sup:       supervisor.New(deps.Logger),
	}

	e.sup.Register("signal-cycle", e.cfg.Trading.CycleInterval, true, e.RunCycle)
	e.sup.Register("risk-monitor", e.cfg.Trading.MonitorInterval, false, e.riskMonitorTick)
	e.sup.Register("weight-recompute", e.cfg.Trading.WeightInterval, false, e.weightRecomputeTick)

	return e
}

// Start seeds the ledger from the broker and launches the periodic tasks
func (e *Engine) Start(ctx context.Context) error {
	if err := e.ledger.SeedFromBroker(e.broker); err != nil {
		e.log.Warning("broker position seed failed, starting with an empty book: %v", err)
	}
	e.sup.Start(ctx)
	e.log.Status("engine started: %d symbol(s), cycle %s, monitor %s",
		len(e.cfg.Trading.Symbols), e.cfg.Trading.CycleInterval, e.cfg.Trading.MonitorInterval)
	return nil
}

// Stop drains all periodic tasks
func (e *Engine) Stop() {
	e.sup.Stop()
	e.log.Status("engine stopped")
}

// RunCycle runs one full signal cycle over every configured symbol.
// Per-symbol failures degrade to a skipped symbol, never a failed
// cycle.
func (e *Engine) RunCycle(ctx context.Context) error {
	if e.ledger.EmergencyStopped() {
		e.log.Warning("signal cycle skipped: emergency stop active")
		return nil
	}

	cfg := e.gen.Config()
	var candidates []types.TradingSignal
	var lastClose float64

	for _, symbol := range e.cfg.Trading.Symbols {
		snap, err := e.market.Latest(ctx, symbol, e.cfg.Trading.HistoryWindow)
		if err != nil {
			e.log.Warning("no market snapshot for %s: %v", symbol, err)
			continue
		}
		e.estimator.ObserveSeries(symbol, snap.Close)
		lastClose = snap.LastClose()
		candidates = append(candidates, e.gen.Generate(snap)...)
	}

	if e.metrics != nil {
		e.metrics.RecordSignals(candidates)
	}

	admissible := signal.Truncate(signal.Rank(signal.Filter(candidates, cfg)), cfg.MaxSignalsPerCycle)

	admitted := 0
	state := e.ledger.Snapshot()
	for _, sig := range admissible {
		// re-read the latch between admissions: the risk monitor can
		// trip it mid-cycle
		if e.ledger.EmergencyStopped() {
			break
		}

		size := risk.Size(&sig, e.enforcer.Limits(), state.PortfolioValue)
		if size <= 0 {
			continue
		}

		if _, err := e.enforcer.Admit(sig, size); err != nil {
			e.log.Info("signal %s %s rejected: %v", sig.Symbol, sig.Type, err)
			if e.metrics != nil {
				e.metrics.RecordRejection(rejectionReason(err))
			}
			continue
		}

		admitted++
		state = e.ledger.Snapshot()
		if e.metrics != nil {
			e.metrics.RecordAdmission()
		}
	}

	e.log.Info("cycle complete: %d generated, %d admissible, %d admitted",
		len(candidates), len(admissible), admitted)

	if e.health != nil {
		e.health.MarkCycle(lastClose)
	}
	if e.reporter != nil {
		if len(admissible) > 0 {
			e.reporter.PrintCycleSummary(admissible)
		}
		e.reporter.PrintPortfolioStatus(e.ledger.Snapshot())
	}
	return nil
}

// riskMonitorTick refreshes prices, recomputes PnL and drawdown,
// re-runs the portfolio limit checks and evaluates the emergency
// condition.
func (e *Engine) riskMonitorTick(ctx context.Context) error {
	prices := make(map[string]float64)
	for _, symbol := range e.ledger.OpenSymbols() {
		price, err := e.broker.CurrentPrice(symbol)
		if err != nil {
			e.log.Warning("no price for %s on monitor tick: %v", symbol, err)
			continue
		}
		prices[symbol] = price
		e.estimator.Observe(symbol, price)
	}
	e.ledger.RefreshPrices(prices)

	e.enforcer.Recheck()
	err := e.emergency.Evaluate(e.enforcer.Limits())

	state := e.ledger.Snapshot()
	if e.health != nil {
		e.health.SetEmergency(state.EmergencyActive)
	}
	if e.metrics != nil {
		e.metrics.UpdatePortfolio(state.PortfolioValue, state.Drawdown,
			state.PositionCount, state.EmergencyActive)
	}
	return err
}

// weightRecomputeTick adapts strategy weights from accumulated
// performance and installs them as a new validated config.
func (e *Engine) weightRecomputeTick(ctx context.Context) error {
	cfg := e.gen.Config()
	next := signal.RecomputeWeights(cfg.StrategyWeights, e.gen.Performance().Snapshot())

	updated, err := cfg.WithStrategyWeights(next)
	if err != nil {
		return err
	}
	if err := e.gen.SetConfig(updated); err != nil {
		return err
	}
	e.log.Info("strategy weights recomputed")
	return nil
}

// Status is a point-in-time engine summary for the status API
type Status struct {
	Timestamp       time.Time                      `json:"timestamp"`
	Symbols         []string                       `json:"symbols"`
	ModelsLoaded    int                            `json:"models_loaded"`
	StrategyWeights map[types.StrategyKind]float64 `json:"strategy_weights"`
	PortfolioValue  float64                        `json:"portfolio_value"`
	DailyPnL        float64                        `json:"daily_pnl"`
	TotalPnL        float64                        `json:"total_pnl"`
	Drawdown        float64                        `json:"drawdown"`
	OpenPositions   int                            `json:"open_positions"`
	EmergencyActive bool                           `json:"emergency_active"`
	RiskLimits      config.RiskLimits              `json:"risk_limits"`
	RiskMetrics     risk.RiskMetrics               `json:"risk_metrics"`
}

// Status returns the current engine summary
func (e *Engine) Status() Status {
	state := e.ledger.Snapshot()
	cfg := e.gen.Config()

	return Status{
		Timestamp:       time.Now(),
		Symbols:         e.cfg.Trading.Symbols,
		ModelsLoaded:    e.gen.ModelsLoaded(),
		StrategyWeights: cfg.StrategyWeights,
		PortfolioValue:  state.PortfolioValue,
		DailyPnL:        state.DailyPnL,
		TotalPnL:        state.TotalPnL,
		Drawdown:        state.Drawdown,
		OpenPositions:   state.PositionCount,
		EmergencyActive: state.EmergencyActive,
		RiskLimits:      e.enforcer.Limits(),
		RiskMetrics:     e.enforcer.Metrics(),
	}
}

// Ledger exposes the portfolio ledger for the API layer
func (e *Engine) Ledger() *portfolio.Ledger {
	return e.ledger
}

// Enforcer exposes the risk enforcer for the API layer
func (e *Engine) Enforcer() *risk.Enforcer {
	return e.enforcer
}

// Generator exposes the signal generator for reporting
func (e *Engine) Generator() *signal.Generator {
	return e.gen
}

func rejectionReason(err error) string {
	var tradingErr *errors.TradingError
	if stderrors.As(err, &tradingErr) {
		return string(tradingErr.Category)
	}
	return string(errors.ErrorCategoryRiskLimit)
}
