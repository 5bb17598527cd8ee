package clickhouse

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sui-amm-indexer/internal/domain"
)

func record(digest string, ts int64, reserveMeme, reserveSui uint64) *domain.SwapRecord {
	price, _ := domain.Price(reserveSui, reserveMeme)
	return &domain.SwapRecord{
		Account:     "0xacc",
		PoolID:      "0xpool",
		CoinType:    "0xA::m::M",
		SuiIn:       11,
		ReserveMeme: reserveMeme,
		ReserveSui:  reserveSui,
		TxDigest:    digest,
		TimestampMs: ts,
		Price:       price,
	}
}

func TestSwapStore_InsertAndList(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBatch(ctx, nil))

	records := []*domain.SwapRecord{
		record("d1", 1700000000000, 900, 111),
		record("d2", 1700000060000, 800, 125),
	}
	require.NoError(t, store.InsertBatch(ctx, records))

	got, err := store.ListByCoinType(ctx, "0xA::m::M", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d2", got[0].TxDigest)
	assert.Equal(t, "d1", got[1].TxDigest)
	assert.Equal(t, uint64(900), got[1].ReserveMeme)
	assert.True(t, got[1].Price.Equal(records[0].Price), "price %s", got[1].Price)

	limited, err := store.ListByCoinType(ctx, "0xA::m::M", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "d2", limited[0].TxDigest)
}

func TestSwapStore_CandlesFromArchive(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapStore(conn)
	ctx := context.Background()

	// 2023-11-14 22:13:20 UTC and +40s fall into the 22:15 bucket,
	// 22:15:01 falls into 22:20.
	require.NoError(t, store.InsertBatch(ctx, []*domain.SwapRecord{
		record("a", 1700000000000, 1000, 100),
		record("b", 1700000040000, 500, 100),
		record("c", 1700000101000, 400, 100),
	}))

	candles, err := store.CandlesFromArchive(ctx, "0xA::m::M", 0, 1800000000000)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, int64(1700000400), candles[0].Timestamp)
	assert.True(t, candles[0].Open.Equal(decimal.RequireFromString("0.25")))

	first := candles[1]
	assert.Equal(t, int64(1700000100), first.Timestamp)
	assert.True(t, first.Open.Equal(decimal.RequireFromString("0.1")), "open %s", first.Open)
	assert.True(t, first.High.Equal(decimal.RequireFromString("0.2")), "high %s", first.High)
	assert.True(t, first.Low.Equal(decimal.RequireFromString("0.1")), "low %s", first.Low)
	assert.True(t, first.Close.Equal(decimal.RequireFromString("0.2")), "close %s", first.Close)
}
