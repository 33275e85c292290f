package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quantfold/trading-engine/internal/logger"
	"github.com/quantfold/trading-engine/pkg/types"
)

var (
	// Signal pipeline metrics
	signalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_engine_signals_generated_total",
			Help: "Total number of signals generated",
		},
		[]string{"strategy", "type"},
	)

	signalsAdmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trading_engine_signals_admitted_total",
			Help: "Total number of signals admitted by the risk enforcer",
		},
	)

	signalsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_engine_signals_rejected_total",
			Help: "Total number of signals rejected, by reason",
		},
		[]string{"reason"},
	)

	signalConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trading_engine_signal_confidence",
			Help:    "Distribution of signal confidence",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"strategy"},
	)

	// Portfolio metrics
	portfolioValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_engine_portfolio_value",
			Help: "Current portfolio value",
		},
	)

	portfolioDrawdown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_engine_portfolio_drawdown",
			Help: "Current drawdown from peak value",
		},
	)

	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_engine_open_positions",
			Help: "Number of open positions",
		},
	)

	// Risk metrics
	riskEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_engine_risk_events_total",
			Help: "Total number of risk events, by kind",
		},
		[]string{"kind"},
	)

	emergencyStopActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_engine_emergency_stop_active",
			Help: "Whether the emergency stop latch is set (0 or 1)",
		},
	)
)

func init() {
	prometheus.MustRegister(signalsGenerated)
	prometheus.MustRegister(signalsAdmitted)
	prometheus.MustRegister(signalsRejected)
	prometheus.MustRegister(signalConfidence)
	prometheus.MustRegister(portfolioValue)
	prometheus.MustRegister(portfolioDrawdown)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(riskEventsTotal)
	prometheus.MustRegister(emergencyStopActive)
}

// MetricsHandler serves the Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Collector is the metrics collaborator handed to the engine and the
// risk layer. Calls only touch in-process Prometheus collectors, so
// they are cheap and never fail.
type Collector struct {
	log *logger.Logger
}

// NewCollector creates the metrics collaborator
func NewCollector(log *logger.Logger) *Collector {
	return &Collector{log: log}
}

// RecordSignals counts a cycle's generated signals
func (c *Collector) RecordSignals(signals []types.TradingSignal) {
	for _, sig := range signals {
		signalsGenerated.WithLabelValues(string(sig.Strategy), sig.Type.String()).Inc()
		signalConfidence.WithLabelValues(string(sig.Strategy)).Observe(sig.Confidence)
	}
}

// RecordAdmission counts an admitted signal
func (c *Collector) RecordAdmission() {
	signalsAdmitted.Inc()
}

// RecordRejection counts a rejected signal by reason
func (c *Collector) RecordRejection(reason string) {
	signalsRejected.WithLabelValues(reason).Inc()
}

// RecordRiskEvent counts a risk event and flips the emergency gauge
// when the event is the emergency stop.
func (c *Collector) RecordRiskEvent(kind types.RiskEventKind) {
	riskEventsTotal.WithLabelValues(string(kind)).Inc()
	if kind == types.EventEmergencyStop {
		emergencyStopActive.Set(1)
	}
}

// UpdatePortfolio refreshes the portfolio gauges
func (c *Collector) UpdatePortfolio(value, drawdown float64, positions int, emergency bool) {
	portfolioValue.Set(value)
	portfolioDrawdown.Set(drawdown)
	openPositions.Set(float64(positions))
	if emergency {
		emergencyStopActive.Set(1)
	} else {
		emergencyStopActive.Set(0)
	}
}

// SendAlert logs an operator alert. Delivery beyond the log stream is
// out of scope; the log line carries the same severity tag an external
// pager would key on.
func (c *Collector) SendAlert(level, message string) {
	switch level {
	case "critical":
		c.log.Critical("ALERT: %s", message)
	default:
		c.log.Warning("ALERT: %s", message)
	}
}
