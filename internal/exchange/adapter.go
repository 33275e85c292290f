package exchange

import (
	"context"

	"github.com/quantfold/trading-engine/internal/exchange/bybit"
	"github.com/quantfold/trading-engine/pkg/types"
)

// MarketData is the market data surface the engine consumes
type MarketData interface {
	// Latest returns the current snapshot for a symbol: the rolling
	// candle window plus the live top-of-book quote.
	Latest(ctx context.Context, symbol string, window int) (*types.MarketSnapshot, error)
	// TrainingWindow returns a longer candle history for feature work
	TrainingWindow(ctx context.Context, symbol string, bars int) ([]types.OHLCV, error)
}

// Broker is the account surface the engine consumes. Order routing is
// handled outside the engine; only prices and position state cross
// this boundary.
type Broker interface {
	CurrentPrice(symbol string) (float64, error)
	PositionsSnapshot() ([]types.Position, error)
}

// BybitAdapter implements MarketData and Broker over the Bybit client
type BybitAdapter struct {
	client   *bybit.Client
	interval bybit.KlineInterval
}

// NewBybitAdapter creates the adapter with the candle interval used
// for snapshots.
func NewBybitAdapter(client *bybit.Client, interval bybit.KlineInterval) *BybitAdapter {
	if interval == "" {
		interval = bybit.Interval1h
	}
	return &BybitAdapter{client: client, interval: interval}
}

// Latest fetches the candle window and the current quote for a symbol
func (a *BybitAdapter) Latest(ctx context.Context, symbol string, window int) (*types.MarketSnapshot, error) {
	candles, err := a.client.GetKlines(ctx, symbol, a.interval, window)
	if err != nil {
		return nil, err
	}
	ticker, err := a.client.GetTicker(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return types.SnapshotFromOHLCV(symbol, candles, ticker.Bid, ticker.Ask), nil
}

// TrainingWindow fetches a longer candle history for a symbol
func (a *BybitAdapter) TrainingWindow(ctx context.Context, symbol string, bars int) ([]types.OHLCV, error) {
	return a.client.GetKlines(ctx, symbol, a.interval, bars)
}

// CurrentPrice returns the last traded price for a symbol
func (a *BybitAdapter) CurrentPrice(symbol string) (float64, error) {
	return a.client.GetLatestPrice(context.Background(), symbol)
}

// PositionsSnapshot returns the open positions on the account
func (a *BybitAdapter) PositionsSnapshot() ([]types.Position, error) {
	return a.client.GetPositions(context.Background(), "")
}
