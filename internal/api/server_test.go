package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/trading-engine/internal/config"
	"github.com/quantfold/trading-engine/internal/engine"
	"github.com/quantfold/trading-engine/internal/logger"
	"github.com/quantfold/trading-engine/internal/monitoring"
	"github.com/quantfold/trading-engine/internal/portfolio"
	"github.com/quantfold/trading-engine/internal/risk"
	"github.com/quantfold/trading-engine/internal/signal"
)

func newTestServer(t *testing.T) (*Server, *engine.Engine) {
	t.Helper()
	log := logger.New("test")

	cfg := config.Load()
	cfg.Trading.Symbols = []string{"BTCUSDT"}

	gen, err := signal.NewGenerator(config.DefaultGeneratorConfig(), nil, log)
	require.NoError(t, err)

	ledger, err := portfolio.NewLedger(100000, log)
	require.NoError(t, err)

	estimator := risk.NewRollingEstimator(100)
	enforcer, err := risk.NewEnforcer(config.DefaultRiskLimits(), ledger, estimator, estimator, nil, log)
	require.NoError(t, err)

	eng := engine.New(engine.Deps{
		Config:    cfg,
		Generator: gen,
		Ledger:    ledger,
		Enforcer:  enforcer,
		Emergency: risk.NewEmergencyController(ledger, nil, nil, log),
		Estimator: estimator,
		Logger:    log,
	})

	return NewServer(0, eng, monitoring.NewHealthChecker(), log), eng
}

func TestStatusEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status engine.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, 100000.0, status.PortfolioValue)
	assert.False(t, status.EmergencyActive)
	assert.Negative(t, status.RiskMetrics.VaR95)
	assert.InDelta(t, status.RiskMetrics.VaR95*1.2, status.RiskMetrics.CVaR95, 1e-6)
}

func TestPositionsEndpointEmptyBook(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/positions")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var positions map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&positions))
	assert.Empty(t, positions)
}

func TestUpdateLimitsEndpoint(t *testing.T) {
	s, eng := newTestServer(t)
	ts := httptest.NewServer(s.srv.Handler)
	defer ts.Close()

	body, _ := json.Marshal(map[string]float64{"max_drawdown": 0.2})
	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/api/v1/limits", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 0.2, eng.Enforcer().Limits().MaxDrawdown, 1e-9)
}

func TestUpdateLimitsRejectsUnknownKey(t *testing.T) {
	s, eng := newTestServer(t)
	ts := httptest.NewServer(s.srv.Handler)
	defer ts.Close()

	body, _ := json.Marshal(map[string]float64{"max_drawdown": 0.2, "nope": 1})
	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/api/v1/limits", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.InDelta(t, 0.15, eng.Enforcer().Limits().MaxDrawdown, 1e-9, "rejected update must not apply")
}

func TestEmergencyResetEndpoint(t *testing.T) {
	s, eng := newTestServer(t)
	ts := httptest.NewServer(s.srv.Handler)
	defer ts.Close()

	eng.Ledger().TriggerEmergencyStop()
	require.True(t, eng.Ledger().EmergencyStopped())

	resp, err := http.Post(ts.URL+"/api/v1/emergency/reset", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, eng.Ledger().EmergencyStopped())
}

func TestRiskEventsEndpoint(t *testing.T) {
	s, eng := newTestServer(t)
	ts := httptest.NewServer(s.srv.Handler)
	defer ts.Close()

	eng.Ledger().RecordRiskEvent("DRAWDOWN_LIMIT_EXCEEDED", "BTCUSDT")

	resp, err := http.Get(ts.URL + "/api/v1/risk/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.Len(t, events, 1)
}
