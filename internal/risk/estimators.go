package risk

import (
	"math"
	"sync"
)

// CorrelationEstimator estimates the return correlation between two
// symbols. Implementations must be safe for concurrent use.
type CorrelationEstimator interface {
	CorrelationOf(a, b string) float64
}

// VolatilityEstimator estimates the current volatility of a symbol.
// Implementations must be safe for concurrent use.
type VolatilityEstimator interface {
	VolatilityOf(symbol string) float64
}

// RollingEstimator is the default correlation and volatility
// estimator. It keeps a bounded window of observed closes per symbol
// and works on simple period-over-period returns: correlation is the
// Pearson coefficient over the overlapping return window, volatility
// is the standard deviation of returns. Symbols without enough history
// estimate to zero, which admits the trade; the limits are there to
// stop measurably risky positions, not unmeasured ones.
type RollingEstimator struct {
	mu     sync.RWMutex
	window int
	closes map[string][]float64
}

// NewRollingEstimator creates an estimator over the given window of closes
func NewRollingEstimator(window int) *RollingEstimator {
	if window < 2 {
		window = 2
	}
	return &RollingEstimator{
		window: window,
		closes: make(map[string][]float64),
	}
}

// Observe records the latest close for a symbol
func (e *RollingEstimator) Observe(symbol string, close float64) {
	if close <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	series := append(e.closes[symbol], close)
	if len(series) > e.window {
		series = series[len(series)-e.window:]
	}
	e.closes[symbol] = series
}

// ObserveSeries replaces a symbol's window with the given closes
func (e *RollingEstimator) ObserveSeries(symbol string, closes []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := 0
	if len(closes) > e.window {
		start = len(closes) - e.window
	}
	series := make([]float64, len(closes)-start)
	copy(series, closes[start:])
	e.closes[symbol] = series
}

// CorrelationOf returns the Pearson correlation of the two symbols'
// returns, or 0 when either side lacks history.
func (e *RollingEstimator) CorrelationOf(a, b string) float64 {
	if a == b {
		return 1
	}

	e.mu.RLock()
	ra := returns(e.closes[a])
	rb := returns(e.closes[b])
	e.mu.RUnlock()

	n := len(ra)
	if len(rb) < n {
		n = len(rb)
	}
	if n < 2 {
		return 0
	}
	ra = ra[len(ra)-n:]
	rb = rb[len(rb)-n:]

	meanA := meanOf(ra)
	meanB := meanOf(rb)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := ra[i] - meanA
		db := rb[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// VolatilityOf returns the standard deviation of the symbol's returns,
// or 0 when there is not enough history to measure.
func (e *RollingEstimator) VolatilityOf(symbol string) float64 {
	e.mu.RLock()
	r := returns(e.closes[symbol])
	e.mu.RUnlock()

	if len(r) < 2 {
		return 0
	}
	avg := meanOf(r)
	variance := 0.0
	for _, v := range r {
		d := v - avg
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(r)))
}

func returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
