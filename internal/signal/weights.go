package signal

import (
	"sync"

	"github.com/quantfold/trading-engine/pkg/types"
)

// StrategyPerformance accumulates outcome statistics for one strategy
type StrategyPerformance struct {
	TotalSignals      int
	SuccessfulSignals int
	TotalReturn       float64
}

// PerformanceTracker aggregates per-strategy outcomes. The slow
// weight-recompute task reads it to adapt strategy weights.
type PerformanceTracker struct {
	mu    sync.RWMutex
	stats map[types.StrategyKind]*StrategyPerformance
}

// NewPerformanceTracker creates a tracker with every strategy zeroed
func NewPerformanceTracker() *PerformanceTracker {
	stats := make(map[types.StrategyKind]*StrategyPerformance, len(types.AllStrategies))
	for _, kind := range types.AllStrategies {
		stats[kind] = &StrategyPerformance{}
	}
	return &PerformanceTracker{stats: stats}
}

// RecordGenerated counts a generated signal for the strategy
func (p *PerformanceTracker) RecordGenerated(kind types.StrategyKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.stats[kind]; ok {
		s.TotalSignals++
	}
}

// RecordOutcome folds a closed trade's return into the strategy stats
func (p *PerformanceTracker) RecordOutcome(kind types.StrategyKind, ret float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stats[kind]
	if !ok {
		return
	}
	if ret > 0 {
		s.SuccessfulSignals++
	}
	s.TotalReturn += ret
}

// Snapshot returns a copy of the current statistics
func (p *PerformanceTracker) Snapshot() map[types.StrategyKind]StrategyPerformance {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[types.StrategyKind]StrategyPerformance, len(p.stats))
	for kind, s := range p.stats {
		out[kind] = *s
	}
	return out
}

// RecomputeWeights derives fresh strategy weights from accumulated
// performance: success rate times average return, clamped to
// [0.1, 0.8], then normalized so the weights sum to 1. Strategies
// without outcomes keep their current weight going into normalization.
func RecomputeWeights(current map[types.StrategyKind]float64, stats map[types.StrategyKind]StrategyPerformance) map[types.StrategyKind]float64 {
	next := make(map[types.StrategyKind]float64, len(current))
	for kind, weight := range current {
		next[kind] = weight
	}

	for kind, s := range stats {
		if _, ok := next[kind]; !ok {
			continue
		}
		if s.TotalSignals == 0 {
			continue
		}
		successRate := float64(s.SuccessfulSignals) / float64(s.TotalSignals)
		avgReturn := s.TotalReturn / float64(s.TotalSignals)

		weight := successRate * avgReturn
		if weight < 0.1 {
			weight = 0.1
		}
		if weight > 0.8 {
			weight = 0.8
		}
		next[kind] = weight
	}

	total := 0.0
	for _, weight := range next {
		total += weight
	}
	if total <= 0 {
		return next
	}
	for kind := range next {
		next[kind] /= total
	}
	return next
}
