package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/quantfold/trading-engine/pkg/types"
)

// KlineInterval represents the time interval for kline data
type KlineInterval string

const (
	Interval1m  KlineInterval = "1"
	Interval5m  KlineInterval = "5"
	Interval15m KlineInterval = "15"
	Interval1h  KlineInterval = "60"
	Interval4h  KlineInterval = "240"
	Interval1d  KlineInterval = "D"
)

// GetKlines fetches candles for a symbol, oldest first
func (c *Client) GetKlines(ctx context.Context, symbol string, interval KlineInterval, limit int) ([]types.OHLCV, error) {
	if limit <= 0 {
		limit = 200
	}
	if limit > 1000 {
		limit = 1000
	}

	params := map[string]interface{}{
		"category": c.category,
		"symbol":   symbol,
		"interval": string(interval),
		"limit":    limit,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}
	return parseKlineResponse(result)
}

// GetTicker fetches the current top-of-book quote for a symbol
func (c *Client) GetTicker(ctx context.Context, symbol string) (*types.Ticker, error) {
	params := map[string]interface{}{
		"category": c.category,
		"symbol":   symbol,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker: %w", err)
	}
	return parseTickerResponse(result)
}

// GetLatestPrice returns the last traded price for a symbol
func (c *Client) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	ticker, err := c.GetTicker(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return ticker.Price, nil
}

func parseKlineResponse(response interface{}) ([]types.OHLCV, error) {
	result, err := unwrapResult(response)
	if err != nil {
		return nil, err
	}

	var klineResult struct {
		Symbol   string     `json:"symbol"`
		Category string     `json:"category"`
		List     [][]string `json:"list"`
	}
	if err := json.Unmarshal(result, &klineResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kline result: %w", err)
	}

	// Bybit returns newest first: [startTime, open, high, low, close, volume, turnover]
	candles := make([]types.OHLCV, 0, len(klineResult.List))
	for i := len(klineResult.List) - 1; i >= 0; i-- {
		item := klineResult.List[i]
		if len(item) < 7 {
			continue
		}
		candles = append(candles, types.OHLCV{
			Timestamp: time.UnixMilli(parseInt64(item[0])),
			Open:      parseFloat64(item[1]),
			High:      parseFloat64(item[2]),
			Low:       parseFloat64(item[3]),
			Close:     parseFloat64(item[4]),
			Volume:    parseFloat64(item[5]),
		})
	}
	return candles, nil
}

func parseTickerResponse(response interface{}) (*types.Ticker, error) {
	result, err := unwrapResult(response)
	if err != nil {
		return nil, err
	}

	var tickerResult struct {
		Category string `json:"category"`
		List     []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
			Bid1Price string `json:"bid1Price"`
			Ask1Price string `json:"ask1Price"`
			Volume24h string `json:"volume24h"`
		} `json:"list"`
	}
	if err := json.Unmarshal(result, &tickerResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticker result: %w", err)
	}
	if len(tickerResult.List) == 0 {
		return nil, fmt.Errorf("no ticker data found")
	}

	t := tickerResult.List[0]
	return &types.Ticker{
		Symbol:    t.Symbol,
		Price:     parseFloat64(t.LastPrice),
		Bid:       parseFloat64(t.Bid1Price),
		Ask:       parseFloat64(t.Ask1Price),
		Volume:    parseFloat64(t.Volume24h),
		Timestamp: time.Now(),
	}, nil
}

// unwrapResult validates a ServerResponse and re-marshals its result
// for typed decoding.
func unwrapResult(response interface{}) ([]byte, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("invalid response type")
	}
	if serverResp.RetCode != 0 {
		return nil, fmt.Errorf("API error: %s (code: %d)", serverResp.RetMsg, serverResp.RetCode)
	}
	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return resultBytes, nil
}

func parseFloat64(s string) float64 {
	if s == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	i, _ := strconv.ParseInt(s, 10, 64)
	return i
}

// parseTimestamp converts a milliseconds timestamp to time.Time
func parseTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	return time.UnixMilli(parseInt64(ts))
}
