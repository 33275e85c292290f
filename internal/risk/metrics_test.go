package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEmptyBookUsesFallbackVolatility(t *testing.T) {
	e := newTestEnforcer(t, newTestLedger(t), nil, &fixedVolatility{0.05})

	m := e.Metrics()
	assert.Zero(t, m.TotalExposure)
	assert.InDelta(t, 0.15, m.Volatility, 1e-9)
	assert.InDelta(t, -1.645*0.15*100000, m.VaR95, 1e-6)
	assert.InDelta(t, m.VaR95*1.2, m.CVaR95, 1e-6)
}

func TestMetricsUsesEstimatedVolatilityAndExposure(t *testing.T) {
	ledger := newTestLedger(t)
	e := newTestEnforcer(t, ledger, nil, &fixedVolatility{0.05})

	_, err := e.Admit(admissibleSignal("BTCUSDT"), 0.05)
	require.NoError(t, err)

	m := e.Metrics()
	assert.InDelta(t, 0.05*50000, m.TotalExposure, 1e-6)
	assert.InDelta(t, 0.05, m.Volatility, 1e-9)
	assert.InDelta(t, -1.645*0.05*100000, m.VaR95, 1e-6)
	assert.InDelta(t, m.VaR95*1.2, m.CVaR95, 1e-6)
}

func TestMetricsNeverGatesAdmission(t *testing.T) {
	ledger := newTestLedger(t)
	e := newTestEnforcer(t, ledger, nil, &fixedVolatility{0.05})

	before := e.Metrics()
	require.Negative(t, before.VaR95)

	// a deeply negative VaR is informational only
	_, err := e.Admit(admissibleSignal("BTCUSDT"), 0.05)
	assert.NoError(t, err)
}
