package signal

import (
	"sync"

	"github.com/quantfold/trading-engine/internal/config"
	"github.com/quantfold/trading-engine/internal/errors"
	"github.com/quantfold/trading-engine/internal/logger"
	"github.com/quantfold/trading-engine/internal/ml"
	"github.com/quantfold/trading-engine/pkg/types"
)

// strategyFunc computes one candidate signal for a symbol, or nil when
// the strategy has nothing to say.
type strategyFunc func(cfg config.GeneratorConfig, snap *types.MarketSnapshot) (*types.TradingSignal, error)

// Generator produces candidate trading signals by running every
// configured strategy against a market snapshot. Strategies run in
// isolation: one failing degrades to "no signal from that strategy"
// and never aborts the cycle.
type Generator struct {
	log     *logger.Logger
	scorers []ml.Scorer
	history *History
	perf    *PerformanceTracker

	mu  sync.RWMutex
	cfg config.GeneratorConfig
}

// NewGenerator creates a signal generator. The model registry is
// consulted once at construction; an empty or failing registry
// disables the ML strategy but leaves the others running.
func NewGenerator(cfg config.GeneratorConfig, registry ml.ModelRegistry, log *logger.Logger) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Generator{
		log:     log,
		history: NewHistory(1000),
		perf:    NewPerformanceTracker(),
		cfg:     cfg,
	}

	if registry != nil {
		scorers, err := registry.LoadEnsemble()
		if err != nil {
			log.Warning("model ensemble unavailable, ML strategy disabled: %v", err)
		} else {
			if len(scorers) > cfg.ModelEnsembleSize {
				scorers = scorers[:cfg.ModelEnsembleSize]
			}
			g.scorers = scorers
		}
	}

	return g, nil
}

// Config returns the current generation parameters
func (g *Generator) Config() config.GeneratorConfig {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg
}

// SetConfig swaps in a new validated config
func (g *Generator) SetConfig(cfg config.GeneratorConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.mu.Lock()
	g.cfg = cfg
	g.mu.Unlock()
	return nil
}

// UpdateParameters applies an allow-listed parameter update atomically
func (g *Generator) UpdateParameters(updates map[string]float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	next, err := g.cfg.WithUpdates(updates)
	if err != nil {
		return err
	}
	g.cfg = next
	return nil
}

// Generate runs every weighted strategy for the symbol and returns the
// candidate signals. Each strategy call is isolated; failures are
// logged and skipped.
func (g *Generator) Generate(snap *types.MarketSnapshot) []types.TradingSignal {
	cfg := g.Config()

	strategies := []struct {
		kind types.StrategyKind
		fn   strategyFunc
	}{
		{types.StrategyMLPrediction, g.mlSignal},
		{types.StrategyMomentum, momentumSignal},
		{types.StrategyMeanReversion, meanReversionSignal},
		{types.StrategyBreakout, breakoutSignal},
		{types.StrategyArbitrage, arbitrageSignal},
	}

	var signals []types.TradingSignal
	for _, s := range strategies {
		if weight, ok := cfg.StrategyWeights[s.kind]; !ok || weight <= 0 {
			continue
		}

		sig, err := s.fn(cfg, snap)
		if err != nil {
			if tradingErr, ok := err.(*errors.TradingError); ok &&
				tradingErr.Category == errors.ErrorCategoryDataInsufficient {
				continue
			}
			g.log.Warning("strategy %s failed for %s: %v", s.kind, snap.Symbol, err)
			continue
		}
		if sig == nil {
			continue
		}
		signals = append(signals, *sig)
		g.perf.RecordGenerated(s.kind)
	}

	g.history.Record(signals)
	return signals
}

// History returns the generator's bounded signal log
func (g *Generator) History() *History {
	return g.history
}

// Performance returns the per-strategy performance tracker
func (g *Generator) Performance() *PerformanceTracker {
	return g.perf
}

// ModelsLoaded returns the number of scorers in the ensemble
func (g *Generator) ModelsLoaded() int {
	return len(g.scorers)
}
