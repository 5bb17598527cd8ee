package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCandle_Update(t *testing.T) {
	c := NewCandle(300, d("1.0"))

	c.Update(d("1.5"))
	c.Update(d("0.8"))
	c.Update(d("1.2"))

	assert.True(t, c.Open.Equal(d("1.0")))
	assert.True(t, c.High.Equal(d("1.5")))
	assert.True(t, c.Low.Equal(d("0.8")))
	assert.True(t, c.Current.Equal(d("1.2")))
	assert.True(t, c.Close.Equal(d("1.2")))
}

func TestCandle_InvariantsHold(t *testing.T) {
	prices := []string{"3", "1", "4", "1", "5", "9", "2", "6"}
	c := NewCandle(0, d(prices[0]))
	for _, p := range prices[1:] {
		c.Update(d(p))

		assert.True(t, c.High.GreaterThanOrEqual(c.Current))
		assert.True(t, c.Current.GreaterThanOrEqual(c.Low))
		assert.True(t, c.High.GreaterThanOrEqual(c.Open))
		assert.True(t, c.High.GreaterThanOrEqual(c.Close))
		assert.True(t, c.Low.LessThanOrEqual(c.Open))
		assert.True(t, c.Low.LessThanOrEqual(c.Close))
	}
}

func TestCandleSeries_Apply(t *testing.T) {
	var s CandleSeries

	s.Apply(300, d("1"))
	require.Len(t, s.Candles, 1)

	// same bucket updates in place
	s.Apply(300, d("2"))
	require.Len(t, s.Candles, 1)
	assert.True(t, s.Candles[0].High.Equal(d("2")))
	assert.True(t, s.Candles[0].Open.Equal(d("1")))

	// new bucket goes to the front
	s.Apply(600, d("3"))
	require.Len(t, s.Candles, 2)
	assert.Equal(t, int64(600), s.Candles[0].Timestamp)
	assert.Equal(t, int64(300), s.Candles[1].Timestamp)
	assert.True(t, s.Candles[0].Open.Equal(d("3")))
}

func TestCandle_JSONEncodesPricesAsStrings(t *testing.T) {
	c := NewCandle(1700000100, d("0.123"))

	b, err := json.Marshal(c)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "0.123", m["highPrice"])
	assert.Equal(t, "0.123", m["close_price"])
	assert.Equal(t, float64(1700000100), m["timeStamp"])
}

func TestTradeLedger_Prepend(t *testing.T) {
	var l TradeLedger
	l.Prepend(Trade{TxDigest: "s1"})
	l.Prepend(Trade{TxDigest: "s2"})
	l.Prepend(Trade{TxDigest: "s3"})

	require.Len(t, l.Trades, 3)
	assert.Equal(t, "s3", l.Trades[0].TxDigest)
	assert.Equal(t, "s2", l.Trades[1].TxDigest)
	assert.Equal(t, "s1", l.Trades[2].TxDigest)
}
