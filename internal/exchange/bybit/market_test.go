package bybit

import (
	"testing"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/trading-engine/pkg/types"
)

func serverResponse(result interface{}) *bybit_api.ServerResponse {
	return &bybit_api.ServerResponse{RetCode: 0, RetMsg: "OK", Result: result}
}

func TestParseKlineResponseReversesToOldestFirst(t *testing.T) {
	// Bybit returns newest first
	resp := serverResponse(map[string]interface{}{
		"symbol":   "BTCUSDT",
		"category": "linear",
		"list": [][]string{
			{"1700003600000", "50200", "50400", "50100", "50300", "12.5", "628750"},
			{"1700000000000", "50000", "50250", "49900", "50200", "10.0", "502000"},
		},
	})

	candles, err := parseKlineResponse(resp)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.True(t, candles[0].Timestamp.Before(candles[1].Timestamp), "candles must be oldest first")
	assert.Equal(t, 50200.0, candles[0].Close)
	assert.Equal(t, 50300.0, candles[1].Close)
	assert.Equal(t, 12.5, candles[1].Volume)
}

func TestParseKlineResponseSkipsIncompleteRows(t *testing.T) {
	resp := serverResponse(map[string]interface{}{
		"list": [][]string{
			{"1700000000000", "50000"},
			{"1700003600000", "50200", "50400", "50100", "50300", "12.5", "628750"},
		},
	})

	candles, err := parseKlineResponse(resp)
	require.NoError(t, err)
	assert.Len(t, candles, 1)
}

func TestParseKlineResponseAPIError(t *testing.T) {
	resp := &bybit_api.ServerResponse{RetCode: 10001, RetMsg: "params error"}

	_, err := parseKlineResponse(resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "params error")
}

func TestParseKlineResponseInvalidType(t *testing.T) {
	_, err := parseKlineResponse("not a response")
	assert.Error(t, err)
}

func TestParseTickerResponse(t *testing.T) {
	resp := serverResponse(map[string]interface{}{
		"category": "linear",
		"list": []map[string]interface{}{
			{
				"symbol":    "BTCUSDT",
				"lastPrice": "50250.5",
				"bid1Price": "50250.0",
				"ask1Price": "50251.0",
				"volume24h": "1234.5",
			},
		},
	})

	ticker, err := parseTickerResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", ticker.Symbol)
	assert.Equal(t, 50250.5, ticker.Price)
	assert.Equal(t, 50250.0, ticker.Bid)
	assert.Equal(t, 50251.0, ticker.Ask)
}

func TestParseTickerResponseEmptyList(t *testing.T) {
	resp := serverResponse(map[string]interface{}{
		"category": "linear",
		"list":     []map[string]interface{}{},
	})

	_, err := parseTickerResponse(resp)
	assert.Error(t, err)
}

func TestParsePositionsResponse(t *testing.T) {
	resp := serverResponse(map[string]interface{}{
		"category": "linear",
		"list": []map[string]interface{}{
			{
				"symbol":        "BTCUSDT",
				"side":          "Buy",
				"size":          "0.5",
				"avgPrice":      "48000",
				"markPrice":     "50000",
				"unrealisedPnl": "1000",
				"updatedTime":   "1700000000000",
			},
			{
				"symbol":   "ETHUSDT",
				"side":     "Sell",
				"size":     "2",
				"avgPrice": "3100",
			},
			{
				// flat entries come back with size 0 and must be dropped
				"symbol": "SOLUSDT",
				"side":   "None",
				"size":   "0",
			},
		},
	})

	positions, err := parsePositionsResponse(resp)
	require.NoError(t, err)
	require.Len(t, positions, 2)

	assert.Equal(t, types.SideLong, positions[0].Side)
	assert.Equal(t, 0.5, positions[0].Size)
	assert.Equal(t, 1000.0, positions[0].UnrealizedPnL)
	assert.Equal(t, types.SideShort, positions[1].Side)
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 0.0, parseFloat64(""))
	assert.Equal(t, 50000.5, parseFloat64("50000.5"))
	assert.Equal(t, int64(0), parseInt64(""))
	assert.Equal(t, int64(1700000000000), parseInt64("1700000000000"))
	assert.True(t, parseTimestamp("").IsZero())
}
