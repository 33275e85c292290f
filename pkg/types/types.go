package types

import "time"

// SignalType represents the direction of a trading signal
type SignalType int

const (
	SignalHold SignalType = iota
	SignalBuy
	SignalSell
	SignalClose
)

func (s SignalType) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	case SignalClose:
		return "CLOSE"
	case SignalHold:
		return "HOLD"
	default:
		return "UNKNOWN"
	}
}

// StrategyKind identifies which strategy produced a signal
type StrategyKind string

const (
	StrategyMLPrediction  StrategyKind = "ML_PREDICTION"
	StrategyMomentum      StrategyKind = "MOMENTUM"
	StrategyMeanReversion StrategyKind = "MEAN_REVERSION"
	StrategyBreakout      StrategyKind = "BREAKOUT"
	StrategyArbitrage     StrategyKind = "ARBITRAGE"
)

// AllStrategies lists every strategy kind in a fixed order
var AllStrategies = []StrategyKind{
	StrategyMLPrediction,
	StrategyMomentum,
	StrategyMeanReversion,
	StrategyBreakout,
	StrategyArbitrage,
}

// TradingSignal is a candidate trade produced by one strategy for one symbol.
// A signal is created fresh each generation cycle and is not mutated after
// ranking, except for the expected value the ranker attaches to Metadata.
type TradingSignal struct {
	Symbol       string
	Strategy     StrategyKind
	Type         SignalType
	Confidence   float64 // [0, 1]
	Strength     float64 // [0, 1]
	EntryPrice   float64
	StopLoss     float64
	TakeProfit   float64
	PositionSize float64
	Timestamp    time.Time
	Metadata     map[string]float64
}

// MetaExpectedValue is the metadata key the ranker writes
const MetaExpectedValue = "expected_value"

// PositionSide is the direction of an open position
type PositionSide string

const (
	SideLong  PositionSide = "long"
	SideShort PositionSide = "short"
)

// Position is an open position owned exclusively by the portfolio ledger.
// UnrealizedPnL is derived and recomputed on every price update.
type Position struct {
	Symbol        string
	Side          PositionSide
	Size          float64
	EntryPrice    float64
	CurrentPrice  float64
	StopLoss      float64
	TakeProfit    float64
	UnrealizedPnL float64
	Timestamp     time.Time
}

// RiskEventKind enumerates the risk events the enforcer can emit
type RiskEventKind string

const (
	EventPositionLimitExceeded    RiskEventKind = "POSITION_LIMIT_EXCEEDED"
	EventDailyLossLimitExceeded   RiskEventKind = "DAILY_LOSS_LIMIT_EXCEEDED"
	EventDrawdownLimitExceeded    RiskEventKind = "DRAWDOWN_LIMIT_EXCEEDED"
	EventCorrelationLimitExceeded RiskEventKind = "CORRELATION_LIMIT_EXCEEDED"
	EventVolatilityLimitExceeded  RiskEventKind = "VOLATILITY_LIMIT_EXCEEDED"
	EventEmergencyStop            RiskEventKind = "EMERGENCY_STOP"
)

// RiskEvent records a limit breach together with the portfolio state at
// the moment it fired. The ledger keeps these in an append-only log.
type RiskEvent struct {
	Kind           RiskEventKind
	Symbol         string
	PortfolioValue float64
	DailyPnL       float64
	TotalPnL       float64
	Timestamp      time.Time
}

// MarketSnapshot is one observation batch for a symbol: the rolling
// OHLCV window plus the current top-of-book quote.
type MarketSnapshot struct {
	Symbol    string
	Open      []float64
	High      []float64
	Low       []float64
	Close     []float64
	Volume    []float64
	Bid       float64
	Ask       float64
	Timestamp time.Time
}

// LastClose returns the most recent close price, or 0 when the window is empty
func (m *MarketSnapshot) LastClose() float64 {
	if len(m.Close) == 0 {
		return 0
	}
	return m.Close[len(m.Close)-1]
}

// LastVolume returns the most recent volume, or 0 when the window is empty
func (m *MarketSnapshot) LastVolume() float64 {
	if len(m.Volume) == 0 {
		return 0
	}
	return m.Volume[len(m.Volume)-1]
}
