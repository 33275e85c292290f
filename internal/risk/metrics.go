package risk

// RiskMetrics is a reporting-only snapshot of portfolio risk exposure.
// Nothing in the admission path reads these values.
type RiskMetrics struct {
	TotalExposure float64 `json:"total_exposure"`
	Volatility    float64 `json:"volatility"`
	VaR95         float64 `json:"var_95"`
	CVaR95        float64 `json:"cvar_95"`
}

const (
	// one-tailed 95% normal quantile
	quantile95 = 1.645
	// assumed portfolio volatility until per-symbol estimates exist
	fallbackVolatility = 0.15
	// expected-shortfall multiplier over the 95% VaR
	cvarTailFactor = 1.2
)

// Metrics computes the reporting snapshot from the current ledger state
// and the volatility estimator. Volatility is the mean of the estimates
// for open symbols, falling back to an assumed constant when no
// estimate is available.
func (e *Enforcer) Metrics() RiskMetrics {
	state := e.ledger.Snapshot()

	exposure := 0.0
	for _, pos := range state.Positions {
		exposure += pos.Size * pos.CurrentPrice
	}

	vol := fallbackVolatility
	if e.vol != nil {
		sum, n := 0.0, 0
		for symbol := range state.Positions {
			if v := e.vol.VolatilityOf(symbol); v > 0 {
				sum += v
				n++
			}
		}
		if n > 0 {
			vol = sum / float64(n)
		}
	}

	var95 := -quantile95 * vol * state.PortfolioValue
	return RiskMetrics{
		TotalExposure: exposure,
		Volatility:    vol,
		VaR95:         var95,
		CVaR95:        var95 * cvarTailFactor,
	}
}
