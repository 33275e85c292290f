package types

import "time"

// OHLCV is a single candlestick
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// Ticker is a top-of-book quote for one symbol
type Ticker struct {
	Symbol    string
	Price     float64
	Bid       float64
	Ask       float64
	Volume    float64
	Timestamp time.Time
}

// SnapshotFromOHLCV builds a market snapshot from a candle window and
// the current top-of-book quote.
func SnapshotFromOHLCV(symbol string, candles []OHLCV, bid, ask float64) *MarketSnapshot {
	snap := &MarketSnapshot{
		Symbol:    symbol,
		Open:      make([]float64, len(candles)),
		High:      make([]float64, len(candles)),
		Low:       make([]float64, len(candles)),
		Close:     make([]float64, len(candles)),
		Volume:    make([]float64, len(candles)),
		Bid:       bid,
		Ask:       ask,
		Timestamp: time.Now(),
	}
	for i, c := range candles {
		snap.Open[i] = c.Open
		snap.High[i] = c.High
		snap.Low[i] = c.Low
		snap.Close[i] = c.Close
		snap.Volume[i] = c.Volume
	}
	if len(candles) > 0 {
		snap.Timestamp = candles[len(candles)-1].Timestamp
	}
	return snap
}
