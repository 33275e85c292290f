package signal

import (
	"sync"

	"github.com/quantfold/trading-engine/pkg/types"
)

// History is the generator's bounded in-memory signal log. Old entries
// rotate out once the cap is reached.
type History struct {
	mu      sync.RWMutex
	entries []types.TradingSignal
	max     int
}

// NewHistory creates a signal history holding at most max entries
func NewHistory(max int) *History {
	return &History{
		entries: make([]types.TradingSignal, 0, max),
		max:     max,
	}
}

// Record appends signals, rotating out the oldest past the cap
func (h *History) Record(signals []types.TradingSignal) {
	if len(signals) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, signals...)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Recent returns a copy of the most recent n signals (all when n <= 0)
func (h *History) Recent(n int) []types.TradingSignal {
	h.mu.RLock()
	defer h.mu.RUnlock()

	start := 0
	if n > 0 && len(h.entries) > n {
		start = len(h.entries) - n
	}
	out := make([]types.TradingSignal, len(h.entries)-start)
	copy(out, h.entries[start:])
	return out
}

// Len returns the number of stored signals
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
