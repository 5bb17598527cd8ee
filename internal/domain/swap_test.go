package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSwapPayload() *SwapPayload {
	return &SwapPayload{
		Account:       "0xabc",
		PoolID:        "0xpool",
		MemeInAmount:  "0",
		MemeOutAmount: "100",
		SuiInAmount:   "11",
		SuiOutAmount:  "0",
		ReserveMeme:   "900",
		ReserveSui:    "111",
	}
}

func TestNewSwapRecord_ComputesPrice(t *testing.T) {
	r, err := NewSwapRecord(testSwapPayload(), "0xA::m::M", 42, "digest1", 1700000000000)
	require.NoError(t, err)

	assert.Equal(t, uint64(900), r.ReserveMeme)
	assert.Equal(t, uint64(111), r.ReserveSui)
	assert.Equal(t, uint64(42), r.AccountBalance)
	assert.Equal(t, "0xA::m::M", r.CoinType)

	expected := decimal.NewFromInt(111).DivRound(decimal.NewFromInt(900), PricePrecision)
	assert.True(t, r.Price.Equal(expected), "price %s", r.Price)
	assert.Equal(t, "0.12"+strings.Repeat("3", 26), r.Price.String())
}

func TestPrice_SmallValuesKeepPrecision(t *testing.T) {
	const memeReserve = uint64(10_000_000_000_000_000_000)

	a, err := Price(12494, memeReserve)
	require.NoError(t, err)
	b, err := Price(12497, memeReserve)
	require.NoError(t, err)

	assert.True(t, a.Equal(decimal.RequireFromString("0.0000000000000012494")), "price %s", a)
	assert.True(t, b.Equal(decimal.RequireFromString("0.0000000000000012497")), "price %s", b)

	tiny, err := Price(5, memeReserve)
	require.NoError(t, err)
	assert.True(t, tiny.Equal(decimal.RequireFromString("0.0000000000000000005")), "price %s", tiny)
}

func TestNewSwapRecord_ZeroReserve(t *testing.T) {
	p := testSwapPayload()
	p.ReserveMeme = "0"

	_, err := NewSwapRecord(p, "0xA::m::M", 0, "d", 1)
	assert.ErrorIs(t, err, ErrZeroReserve)
}

func TestNewSwapRecord_InvalidAmount(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *SwapPayload)
	}{
		{"negative", func(p *SwapPayload) { p.SuiInAmount = "-1" }},
		{"fraction", func(p *SwapPayload) { p.MemeOutAmount = "1.5" }},
		{"empty", func(p *SwapPayload) { p.ReserveSui = "" }},
		{"overflow", func(p *SwapPayload) { p.MemeInAmount = "18446744073709551616" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testSwapPayload()
			tt.mutate(p)
			_, err := NewSwapRecord(p, "c", 0, "d", 1)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidAmount))
		})
	}
}

func TestClassifyTrade(t *testing.T) {
	tests := []struct {
		name      string
		record    SwapRecord
		direction TradeDirection
		amount    uint64
	}{
		{"buy", SwapRecord{SuiIn: 11, MemeOut: 100}, TradeBuy, 11},
		{"sell", SwapRecord{MemeIn: 100, SuiOut: 9}, TradeSell, 9},
		{"sell with zero sui out", SwapRecord{MemeIn: 100}, TradeSell, 0},
		{"all zero is a buy", SwapRecord{}, TradeBuy, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, amount := ClassifyTrade(&tt.record)
			assert.Equal(t, tt.direction, dir)
			assert.Equal(t, tt.amount, amount)
		})
	}
}

func TestDecodeSwapPayload(t *testing.T) {
	raw := json.RawMessage(`{"account":"0x1","pool_id":"0xp","meme_in_amount":"0","meme_out_amount":"5","sui_in_amount":"7","sui_out_amount":"0","reserve_meme":"10","reserve_sui":"20"}`)

	p, err := DecodeSwapPayload(raw)
	require.NoError(t, err)
	assert.Equal(t, "0xp", p.PoolID)
	assert.Equal(t, "7", p.SuiInAmount)

	_, err = DecodeSwapPayload(json.RawMessage(`{"account":"0x1"}`))
	assert.Error(t, err)

	_, err = DecodeSwapPayload(json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestRawEvent_Kind(t *testing.T) {
	tests := []struct {
		typ  string
		kind EventKind
	}{
		{"0x5::amm_swap::SwapEvent", EventKindSwap},
		{"0x5::amm_swap::CreatePoolEvent", EventKindCreatePool},
		{"0x5::amm_swap::SwapEvent<0x2::sui::SUI>", EventKindSwap},
		{"0x5::amm_swap::LiquidityEvent", EventKindUnknown},
		{"", EventKindUnknown},
	}

	for _, tt := range tests {
		ev := RawEvent{Type: tt.typ}
		assert.Equal(t, tt.kind, ev.Kind(), tt.typ)
	}
}
