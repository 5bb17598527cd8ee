package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

func TestPoolStateStore_CreateGetUpdate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPoolStateStore(pool)

	p := &domain.PoolState{
		CoinType:    "0xA::m::M",
		PoolID:      "0xpool",
		ReserveMeme: 1000,
		ReserveSui:  100,
		TimestampMs: 1700000000000,
	}
	require.NoError(t, store.Create(ctx, p))

	// Second create with the same key should fail
	err := store.Create(ctx, p)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	retrieved, err := store.Get(ctx, "0xA::m::M")
	require.NoError(t, err)
	assert.Equal(t, *p, *retrieved)

	retrieved.ReserveMeme = 900
	retrieved.ReserveSui = 111
	require.NoError(t, store.Update(ctx, retrieved))

	updated, err := store.Get(ctx, "0xA::m::M")
	require.NoError(t, err)
	assert.Equal(t, uint64(900), updated.ReserveMeme)
	assert.Equal(t, uint64(111), updated.ReserveSui)
}

func TestPoolStateStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPoolStateStore(pool)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.Update(ctx, &domain.PoolState{CoinType: "missing"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeLedgerStore_RoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeLedgerStore(pool)

	ledger := &domain.TradeLedger{
		CoinType: "0xA::m::M",
		Trades: []domain.Trade{
			{Account: "0xb", Direction: domain.TradeSell, SuiAmount: 5, TimestampMs: 2, TxDigest: "d2"},
			{Account: "0xa", Direction: domain.TradeBuy, SuiAmount: 11, TimestampMs: 1, TxDigest: "d1"},
		},
	}
	require.NoError(t, store.Create(ctx, ledger))

	retrieved, err := store.Get(ctx, "0xA::m::M")
	require.NoError(t, err)
	assert.Equal(t, ledger.Trades, retrieved.Trades)
}

func TestCandleSeriesStore_RoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCandleSeriesStore(pool)

	price := decimal.RequireFromString("0.123333333333333333")
	series := &domain.CandleSeries{
		CoinType: "0xA::m::M",
		Candles:  []domain.Candle{domain.NewCandle(1700000100, price)},
	}
	require.NoError(t, store.Create(ctx, series))

	retrieved, err := store.Get(ctx, "0xA::m::M")
	require.NoError(t, err)
	require.Len(t, retrieved.Candles, 1)
	assert.True(t, retrieved.Candles[0].High.Equal(price), "high %s", retrieved.Candles[0].High)
	assert.Equal(t, int64(1700000100), retrieved.Candles[0].Timestamp)
}

func TestTokenInfoStore_RoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenInfoStore(pool)

	info := &domain.TokenInfo{
		CoinType:     "0xA::m::M",
		Name:         "Meme",
		Symbol:       "M",
		Decimals:     6,
		IconURL:      ptr("https://example.com/m.png"),
		TotalSupply:  1_000_000_000,
		CreateTimeMs: 1700000000000,
		CreateDigest: "d0",
	}
	require.NoError(t, store.Create(ctx, info))

	retrieved, err := store.Get(ctx, "0xA::m::M")
	require.NoError(t, err)
	assert.Equal(t, info.Symbol, retrieved.Symbol)
	require.NotNil(t, retrieved.IconURL)
	assert.Equal(t, *info.IconURL, *retrieved.IconURL)
	assert.Nil(t, retrieved.RecentTradeMs)

	retrieved.RecentTradeMs = ptr(int64(1700000300000))
	require.NoError(t, store.Update(ctx, retrieved))

	updated, err := store.Get(ctx, "0xA::m::M")
	require.NoError(t, err)
	require.NotNil(t, updated.RecentTradeMs)
	assert.Equal(t, int64(1700000300000), *updated.RecentTradeMs)
}
