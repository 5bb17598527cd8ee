package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	// ErrZeroReserve is returned when a price is requested for a pool with no meme reserve.
	ErrZeroReserve = errors.New("meme reserve is zero")
	// ErrInvalidAmount is returned when an amount string is not an unsigned integer.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrMissingTimestamp is returned for an event without a positive timestampMs.
	ErrMissingTimestamp = errors.New("missing event timestamp")
)

// PricePrecision is the number of decimal places kept when dividing reserves.
// It matches the scale of the archive's price column.
const PricePrecision int32 = 28

// SwapPayload is the parsedJson body of a SwapEvent. Amounts are u64 rendered as strings.
type SwapPayload struct {
	Account       string `json:"account"`
	PoolID        string `json:"pool_id"`
	MemeInAmount  string `json:"meme_in_amount"`
	MemeOutAmount string `json:"meme_out_amount"`
	SuiInAmount   string `json:"sui_in_amount"`
	SuiOutAmount  string `json:"sui_out_amount"`
	ReserveMeme   string `json:"reserve_meme"`
	ReserveSui    string `json:"reserve_sui"`
}

// DecodeSwapPayload decodes a SwapEvent body.
func DecodeSwapPayload(raw json.RawMessage) (*SwapPayload, error) {
	var p SwapPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode swap payload: %w", err)
	}
	if p.PoolID == "" {
		return nil, fmt.Errorf("decode swap payload: missing pool_id")
	}
	return &p, nil
}

// SwapRecord is a swap enriched with its coin type, balance, and price.
type SwapRecord struct {
	Account        string          `json:"account"`
	PoolID         string          `json:"pool_id"`
	MemeIn         uint64          `json:"meme_in"`
	MemeOut        uint64          `json:"meme_out"`
	SuiIn          uint64          `json:"sui_in"`
	SuiOut         uint64          `json:"sui_out"`
	ReserveMeme    uint64          `json:"reserve_meme"`
	ReserveSui     uint64          `json:"reserve_sui"`
	CoinType       string          `json:"coin_type"`
	AccountBalance uint64          `json:"account_balance"` // account's meme balance after the trade
	TxDigest       string          `json:"tx_digest"`
	TimestampMs    int64           `json:"timestamp_ms"`
	Price          decimal.Decimal `json:"price"` // reserve_sui / reserve_meme
}

// NewSwapRecord parses the payload amounts and computes the price.
// Fails with ErrInvalidAmount or ErrZeroReserve.
func NewSwapRecord(p *SwapPayload, coinType string, balance uint64, digest string, timestampMs int64) (*SwapRecord, error) {
	r := &SwapRecord{
		Account:        p.Account,
		PoolID:         p.PoolID,
		CoinType:       coinType,
		AccountBalance: balance,
		TxDigest:       digest,
		TimestampMs:    timestampMs,
	}

	fields := []struct {
		name string
		src  string
		dst  *uint64
	}{
		{"meme_in_amount", p.MemeInAmount, &r.MemeIn},
		{"meme_out_amount", p.MemeOutAmount, &r.MemeOut},
		{"sui_in_amount", p.SuiInAmount, &r.SuiIn},
		{"sui_out_amount", p.SuiOutAmount, &r.SuiOut},
		{"reserve_meme", p.ReserveMeme, &r.ReserveMeme},
		{"reserve_sui", p.ReserveSui, &r.ReserveSui},
	}
	for _, f := range fields {
		v, err := ParseAmount(f.src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}

	price, err := Price(r.ReserveSui, r.ReserveMeme)
	if err != nil {
		return nil, err
	}
	r.Price = price

	return r, nil
}

// ParseAmount parses a base-10 u64 amount.
func ParseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}

// Price returns reserveSui / reserveMeme.
func Price(reserveSui, reserveMeme uint64) (decimal.Decimal, error) {
	if reserveMeme == 0 {
		return decimal.Zero, ErrZeroReserve
	}
	sui := decimal.NewFromUint64(reserveSui)
	meme := decimal.NewFromUint64(reserveMeme)
	return sui.DivRound(meme, PricePrecision), nil
}

// TradeDirection is buy or sell from the account's point of view.
type TradeDirection string

const (
	TradeBuy  TradeDirection = "buy"
	TradeSell TradeDirection = "sell"
)

// ClassifyTrade derives direction and moved SUI amount from flow amounts.
// A swap is a buy when no SUI left the pool and no meme entered it.
func ClassifyTrade(r *SwapRecord) (TradeDirection, uint64) {
	if r.SuiOut == 0 && r.MemeIn == 0 {
		return TradeBuy, r.SuiIn
	}
	return TradeSell, r.SuiOut
}

// Trade derives the ledger entry for this swap.
func (r *SwapRecord) Trade() Trade {
	dir, amount := ClassifyTrade(r)
	return Trade{
		Account:     r.Account,
		Direction:   dir,
		SuiAmount:   amount,
		TimestampMs: r.TimestampMs,
		TxDigest:    r.TxDigest,
	}
}
