package domain

import "time"

// MarketCandle represents a single decoded OHLCV record from a history batch.
// Values are immutable once constructed.
type MarketCandle struct {
	Timestamp  int64   // Bucket open time in Unix seconds
	Open       float64 // Opening price
	High       float64 // Highest price
	Low        float64 // Lowest price
	Close      float64 // Closing price
	Volume     float64 // Traded base volume
	Turnover   float64 // Traded quote volume
	TradeCount int64   // Number of trades in the bucket
}

// Time returns the candle's open time as a time.Time.
func (c MarketCandle) Time() time.Time {
	return time.Unix(c.Timestamp, 0)
}
