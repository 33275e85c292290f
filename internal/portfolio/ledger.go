package portfolio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quantfold/trading-engine/internal/errors"
	"github.com/quantfold/trading-engine/internal/logger"
	"github.com/quantfold/trading-engine/pkg/types"
)

// BrokerPositions is the slice of a broker the ledger needs at startup
// to reconcile state left over from a previous run.
type BrokerPositions interface {
	PositionsSnapshot() ([]types.Position, error)
}

// Ledger owns all portfolio state: open positions, realized and daily
// PnL, portfolio value, the monotone peak used for drawdown, the
// append-only risk event log and the emergency stop latch. Every state
// transition happens under one mutex so concurrent readers always see
// a consistent portfolio.
type Ledger struct {
	mu  sync.RWMutex
	log *logger.Logger

	positions      map[string]*types.Position
	initialValue   float64
	portfolioValue float64
	peakValue      float64
	dailyPnL       float64
	totalPnL       float64
	currentDay     time.Time

	events []types.RiskEvent

	// emergencyStop is a one-way latch. It is atomic so hot paths can
	// poll it without taking the ledger lock.
	emergencyStop atomic.Bool
}

// State is a point-in-time copy of the ledger, safe to use without
// holding any lock.
type State struct {
	Positions       map[string]types.Position
	PositionCount   int
	PortfolioValue  float64
	PeakValue       float64
	DailyPnL        float64
	TotalPnL        float64
	Drawdown        float64
	EmergencyActive bool
	Timestamp       time.Time
}

// NewLedger creates a ledger with the given starting portfolio value
func NewLedger(initialValue float64, log *logger.Logger) (*Ledger, error) {
	if initialValue <= 0 {
		return nil, errors.NewConfigRejected("portfolio", "new",
			fmt.Sprintf("initial portfolio value must be positive, got: %.2f", initialValue))
	}
	return &Ledger{
		log:            log,
		positions:      make(map[string]*types.Position),
		initialValue:   initialValue,
		portfolioValue: initialValue,
		peakValue:      initialValue,
		currentDay:     truncateDay(time.Now()),
	}, nil
}

// SeedFromBroker reconciles positions left open by a previous run.
// Seeded positions carry no realized PnL; their unrealized PnL folds
// into the portfolio value on the next price refresh.
func (l *Ledger) SeedFromBroker(broker BrokerPositions) error {
	positions, err := broker.PositionsSnapshot()
	if err != nil {
		return errors.Wrap(err, errors.ErrorCategoryDataInsufficient, "portfolio", "seed")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, pos := range positions {
		p := pos
		l.positions[p.Symbol] = &p
		l.log.Info("seeded position from broker: %s %s size=%.6f entry=%.2f",
			p.Symbol, p.Side, p.Size, p.EntryPrice)
	}
	return nil
}

// OpenPosition records a new position from an admitted signal. It
// refuses to open while the emergency stop is latched and refuses to
// stack a second position on the same symbol.
func (l *Ledger) OpenPosition(sig types.TradingSignal, size float64) (types.Position, error) {
	if l.emergencyStop.Load() {
		return types.Position{}, errors.NewEmergencyStop("portfolio", "open",
			"emergency stop active, no new positions")
	}
	if size <= 0 {
		return types.Position{}, errors.NewRiskLimit("portfolio", "open",
			fmt.Sprintf("position size must be positive, got: %.6f", size))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.openLocked(sig, size)
}

// OpenIfAdmitted runs the admit check against the current state and,
// when it passes, opens the position before the lock is released. The
// check and the open are one atomic transition: no other state change
// can interleave between them.
func (l *Ledger) OpenIfAdmitted(sig types.TradingSignal, size float64, admit func(State) error) (types.Position, error) {
	if l.emergencyStop.Load() {
		return types.Position{}, errors.NewEmergencyStop("portfolio", "open",
			"emergency stop active, no new positions")
	}
	if size <= 0 {
		return types.Position{}, errors.NewRiskLimit("portfolio", "open",
			fmt.Sprintf("position size must be positive, got: %.6f", size))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := admit(l.snapshotLocked()); err != nil {
		return types.Position{}, err
	}
	return l.openLocked(sig, size)
}

func (l *Ledger) openLocked(sig types.TradingSignal, size float64) (types.Position, error) {
	if _, exists := l.positions[sig.Symbol]; exists {
		return types.Position{}, errors.NewRiskLimit("portfolio", "open",
			fmt.Sprintf("position already open for %s", sig.Symbol))
	}

	side := types.SideLong
	if sig.Type == types.SignalSell {
		side = types.SideShort
	}

	pos := &types.Position{
		Symbol:       sig.Symbol,
		Side:         side,
		Size:         size,
		EntryPrice:   sig.EntryPrice,
		CurrentPrice: sig.EntryPrice,
		StopLoss:     sig.StopLoss,
		TakeProfit:   sig.TakeProfit,
		Timestamp:    time.Now(),
	}
	l.positions[sig.Symbol] = pos

	l.log.Trade("opened %s %s size=%.6f entry=%.2f stop=%.2f target=%.2f",
		pos.Side, pos.Symbol, pos.Size, pos.EntryPrice, pos.StopLoss, pos.TakeProfit)
	return *pos, nil
}

// ClosePosition realizes the PnL of an open position at the given exit
// price and removes it from the book.
func (l *Ledger) ClosePosition(symbol string, exitPrice float64) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, exists := l.positions[symbol]
	if !exists {
		return 0, errors.NewRiskLimit("portfolio", "close",
			fmt.Sprintf("no open position for %s", symbol))
	}

	realized := positionPnL(pos, exitPrice)
	delete(l.positions, symbol)

	l.rollDayLocked()
	l.dailyPnL += realized
	l.totalPnL += realized
	l.recomputeValueLocked()

	l.log.Trade("closed %s %s at %.2f, realized PnL %.2f (daily %.2f, total %.2f)",
		pos.Side, symbol, exitPrice, realized, l.dailyPnL, l.totalPnL)
	return realized, nil
}

// RefreshPrices updates current prices and unrealized PnL for every
// open position with a quote in the map, then recomputes portfolio
// value and the monotone peak.
func (l *Ledger) RefreshPrices(prices map[string]float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for symbol, pos := range l.positions {
		price, ok := prices[symbol]
		if !ok || price <= 0 {
			continue
		}
		pos.CurrentPrice = price
		pos.UnrealizedPnL = positionPnL(pos, price)
	}
	l.rollDayLocked()
	l.recomputeValueLocked()
}

// RecordRiskEvent appends to the ledger's risk event log
func (l *Ledger) RecordRiskEvent(kind types.RiskEventKind, symbol string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev := types.RiskEvent{
		Kind:           kind,
		Symbol:         symbol,
		PortfolioValue: l.portfolioValue,
		DailyPnL:       l.dailyPnL,
		TotalPnL:       l.totalPnL,
		Timestamp:      time.Now(),
	}
	l.events = append(l.events, ev)
	l.log.Warning("risk event %s for %s (value=%.2f daily=%.2f total=%.2f)",
		kind, symbol, ev.PortfolioValue, ev.DailyPnL, ev.TotalPnL)
}

// RiskEvents returns a copy of the most recent n risk events (all when n <= 0)
func (l *Ledger) RiskEvents(n int) []types.RiskEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := 0
	if n > 0 && len(l.events) > n {
		start = len(l.events) - n
	}
	out := make([]types.RiskEvent, len(l.events)-start)
	copy(out, l.events[start:])
	return out
}

// TriggerEmergencyStop latches the emergency flag. It reports whether
// this call performed the transition, so exactly one caller runs the
// cascade.
func (l *Ledger) TriggerEmergencyStop() bool {
	return l.emergencyStop.CompareAndSwap(false, true)
}

// EmergencyStopped reports whether the emergency latch is set
func (l *Ledger) EmergencyStopped() bool {
	return l.emergencyStop.Load()
}

// ResetEmergencyStop clears the latch. This is a deliberate operator
// action, never called by the engine itself.
func (l *Ledger) ResetEmergencyStop() {
	if l.emergencyStop.CompareAndSwap(true, false) {
		l.log.Critical("emergency stop latch cleared by operator")
	}
}

// Snapshot returns a consistent copy of the entire portfolio state
func (l *Ledger) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() State {
	positions := make(map[string]types.Position, len(l.positions))
	for symbol, pos := range l.positions {
		positions[symbol] = *pos
	}

	return State{
		Positions:       positions,
		PositionCount:   len(positions),
		PortfolioValue:  l.portfolioValue,
		PeakValue:       l.peakValue,
		DailyPnL:        l.dailyPnL,
		TotalPnL:        l.totalPnL,
		Drawdown:        drawdown(l.peakValue, l.portfolioValue),
		EmergencyActive: l.emergencyStop.Load(),
		Timestamp:       time.Now(),
	}
}

// Position returns a copy of one open position
func (l *Ledger) Position(symbol string) (types.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pos, ok := l.positions[symbol]
	if !ok {
		return types.Position{}, false
	}
	return *pos, true
}

// OpenSymbols returns the symbols with open positions
func (l *Ledger) OpenSymbols() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	symbols := make([]string, 0, len(l.positions))
	for symbol := range l.positions {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// InitialValue returns the starting portfolio value
func (l *Ledger) InitialValue() float64 {
	return l.initialValue
}

// recomputeValueLocked folds realized and unrealized PnL into the
// portfolio value and advances the monotone peak. Callers must hold
// the write lock.
func (l *Ledger) recomputeValueLocked() {
	unrealized := 0.0
	for _, pos := range l.positions {
		unrealized += pos.UnrealizedPnL
	}
	l.portfolioValue = l.initialValue + l.totalPnL + unrealized
	if l.portfolioValue > l.peakValue {
		l.peakValue = l.portfolioValue
	}
}

// rollDayLocked resets the daily PnL when the calendar day changes.
// Callers must hold the write lock.
func (l *Ledger) rollDayLocked() {
	today := truncateDay(time.Now())
	if today.After(l.currentDay) {
		l.log.Info("daily PnL reset: %.2f carried into total", l.dailyPnL)
		l.dailyPnL = 0
		l.currentDay = today
	}
}

func positionPnL(pos *types.Position, price float64) float64 {
	if pos.Side == types.SideShort {
		return (pos.EntryPrice - price) * pos.Size
	}
	return (price - pos.EntryPrice) * pos.Size
}

func drawdown(peak, value float64) float64 {
	if peak <= 0 || value >= peak {
		return 0
	}
	return (peak - value) / peak
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
