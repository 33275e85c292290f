package bybit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quantfold/trading-engine/pkg/types"
)

// GetPositions retrieves the account's open positions. An empty symbol
// returns every position in the configured category.
func (c *Client) GetPositions(ctx context.Context, symbol string) ([]types.Position, error) {
	params := map[string]interface{}{
		"category":   c.category,
		"settleCoin": "USDT",
	}
	if symbol != "" {
		params["symbol"] = symbol
		delete(params, "settleCoin")
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetPositionList(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	return parsePositionsResponse(result)
}

func parsePositionsResponse(response interface{}) ([]types.Position, error) {
	result, err := unwrapResult(response)
	if err != nil {
		return nil, err
	}

	var positionResult struct {
		Category string `json:"category"`
		List     []struct {
			Symbol        string `json:"symbol"`
			Side          string `json:"side"` // "Buy" / "Sell"
			Size          string `json:"size"`
			AvgPrice      string `json:"avgPrice"`
			MarkPrice     string `json:"markPrice"`
			StopLoss      string `json:"stopLoss"`
			TakeProfit    string `json:"takeProfit"`
			UnrealisedPnl string `json:"unrealisedPnl"`
			UpdatedTime   string `json:"updatedTime"`
		} `json:"list"`
	}
	if err := json.Unmarshal(result, &positionResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal position result: %w", err)
	}

	var positions []types.Position
	for _, item := range positionResult.List {
		size := parseFloat64(item.Size)
		if size == 0 {
			continue
		}
		side := types.SideLong
		if item.Side == "Sell" {
			side = types.SideShort
		}
		positions = append(positions, types.Position{
			Symbol:        item.Symbol,
			Side:          side,
			Size:          size,
			EntryPrice:    parseFloat64(item.AvgPrice),
			CurrentPrice:  parseFloat64(item.MarkPrice),
			StopLoss:      parseFloat64(item.StopLoss),
			TakeProfit:    parseFloat64(item.TakeProfit),
			UnrealizedPnL: parseFloat64(item.UnrealisedPnl),
			Timestamp:     parseTimestamp(item.UpdatedTime),
		})
	}
	return positions, nil
}
