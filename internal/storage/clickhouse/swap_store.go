package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/observability"
)

// SwapStore reads and writes the swaps archive table.
type SwapStore struct {
	conn *Conn
}

// NewSwapStore creates a new SwapStore.
func NewSwapStore(conn *Conn) *SwapStore {
	return &SwapStore{conn: conn}
}

const insertSwaps = `
	INSERT INTO swaps (
		tx_digest, coin_type, pool_id, account, trade_type,
		meme_in, meme_out, sui_in, sui_out,
		reserve_meme, reserve_sui, account_balance,
		price, timestamp_ms
	)
`

// InsertBatch writes records in a single batch.
func (s *SwapStore) InsertBatch(ctx context.Context, records []*domain.SwapRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	defer func(start time.Time) {
		observability.RecordDBQuery("clickhouse", "swaps_insert", time.Since(start).Seconds(), err)
	}(time.Now())

	batch, err := s.conn.PrepareBatch(ctx, insertSwaps)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		direction, _ := domain.ClassifyTrade(r)
		err = batch.Append(
			r.TxDigest, r.CoinType, r.PoolID, r.Account, string(direction),
			r.MemeIn, r.MemeOut, r.SuiIn, r.SuiOut,
			r.ReserveMeme, r.ReserveSui, r.AccountBalance,
			r.Price, r.TimestampMs,
		)
		if err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// ListByCoinType returns the newest swaps for coinType, newest first.
// A non-positive limit returns every row.
func (s *SwapStore) ListByCoinType(ctx context.Context, coinType string, limit int) ([]*domain.SwapRecord, error) {
	query := `
		SELECT tx_digest, coin_type, pool_id, account,
			meme_in, meme_out, sui_in, sui_out,
			reserve_meme, reserve_sui, account_balance,
			price, timestamp_ms
		FROM swaps
		WHERE coin_type = ?
		ORDER BY timestamp_ms DESC, tx_digest DESC
	`
	args := []interface{}{coinType}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, uint64(limit))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query swaps by coin type: %w", err)
	}
	defer rows.Close()

	return scanSwaps(rows)
}

// CandlesFromArchive rebuilds five-minute OHLC candles for coinType from the
// archive, newest first. Buckets are labelled with their end, so a swap at
// exactly hh:05:00 belongs to hh:05 and one at hh:05:01 to hh:10. Day rollover
// carries into the next date.
func (s *SwapStore) CandlesFromArchive(ctx context.Context, coinType string, fromMs, toMs int64) ([]domain.Candle, error) {
	query := `
		SELECT
			toUnixTimestamp(toStartOfFiveMinutes(toDateTime(intDiv(timestamp_ms, 1000) - 1, 'UTC')) + 300) AS bucket,
			argMin(price, (timestamp_ms, tx_digest)) AS open,
			max(price) AS high,
			min(price) AS low,
			argMax(price, (timestamp_ms, tx_digest)) AS close
		FROM swaps
		WHERE coin_type = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		GROUP BY bucket
		ORDER BY bucket DESC
	`

	rows, err := s.conn.Query(ctx, query, coinType, fromMs, toMs)
	if err != nil {
		return nil, fmt.Errorf("query archive candles: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

func scanSwaps(rows chRows) ([]*domain.SwapRecord, error) {
	var records []*domain.SwapRecord

	for rows.Next() {
		var r domain.SwapRecord
		err := rows.Scan(
			&r.TxDigest, &r.CoinType, &r.PoolID, &r.Account,
			&r.MemeIn, &r.MemeOut, &r.SuiIn, &r.SuiOut,
			&r.ReserveMeme, &r.ReserveSui, &r.AccountBalance,
			&r.Price, &r.TimestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap row: %w", err)
		}
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap rows: %w", err)
	}
	return records, nil
}

func scanCandles(rows chRows) ([]domain.Candle, error) {
	var candles []domain.Candle

	for rows.Next() {
		var bucket uint32
		var open, high, low, closePrice decimal.Decimal
		if err := rows.Scan(&bucket, &open, &high, &low, &closePrice); err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}
		candles = append(candles, domain.Candle{
			Timestamp: int64(bucket),
			Open:      open,
			High:      high,
			Low:       low,
			Current:   closePrice,
			Close:     closePrice,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}
	return candles, nil
}
