package domain

import "github.com/shopspring/decimal"

// Candle is the OHLC summary of one 5 minute bucket.
// Prices serialize as decimal strings.
type Candle struct {
	Timestamp int64           `json:"timeStamp"` // bucket start (unix seconds)
	High      decimal.Decimal `json:"highPrice"`
	Low       decimal.Decimal `json:"lowPrice"`
	Current   decimal.Decimal `json:"currentPrice"`
	Open      decimal.Decimal `json:"openPrice"`
	Close     decimal.Decimal `json:"close_price"`
}

// NewCandle opens a candle with every price set to price.
func NewCandle(bucket int64, price decimal.Decimal) Candle {
	return Candle{
		Timestamp: bucket,
		High:      price,
		Low:       price,
		Current:   price,
		Open:      price,
		Close:     price,
	}
}

// Update folds price into the candle. Open is left untouched.
func (c *Candle) Update(price decimal.Decimal) {
	if price.GreaterThan(c.High) {
		c.High = price
	}
	if price.LessThan(c.Low) {
		c.Low = price
	}
	c.Current = price
	c.Close = price
}

// CandleSeries lists candles for a coin type, newest first.
// Stored in the candle_series table, keyed by coin_type.
type CandleSeries struct {
	CoinType string   `json:"coin_type"`
	Candles  []Candle `json:"charts"`
}

// Latest returns the newest candle, or nil for an empty series.
func (s *CandleSeries) Latest() *Candle {
	if len(s.Candles) == 0 {
		return nil
	}
	return &s.Candles[0]
}

// Apply updates the newest candle when it covers bucket, otherwise prepends a new one.
func (s *CandleSeries) Apply(bucket int64, price decimal.Decimal) {
	if latest := s.Latest(); latest != nil && latest.Timestamp == bucket {
		latest.Update(price)
		return
	}
	s.Candles = append(s.Candles, Candle{})
	copy(s.Candles[1:], s.Candles)
	s.Candles[0] = NewCandle(bucket, price)
}
