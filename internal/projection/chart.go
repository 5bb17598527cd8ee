package projection

import (
	"context"
	"errors"
	"fmt"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

// ChartAggregator folds swap prices into 5 minute OHLC candles.
type ChartAggregator struct {
	store  storage.CandleSeriesStore
	bucket func(tsMs int64) int64
	locks  keyLocks
}

// NewChartAggregator creates an aggregator writing to store. carryDay selects
// BucketStartCarry instead of BucketStart.
func NewChartAggregator(store storage.CandleSeriesStore, carryDay bool) *ChartAggregator {
	bucket := BucketStart
	if carryDay {
		bucket = BucketStartCarry
	}
	return &ChartAggregator{store: store, bucket: bucket}
}

// Apply folds the swap's price into its bucket and returns the touched candle.
func (a *ChartAggregator) Apply(ctx context.Context, rec *domain.SwapRecord) (domain.Candle, error) {
	bucket := a.bucket(rec.TimestampMs)

	unlock := a.locks.lock(rec.CoinType)
	defer unlock()

	series, err := a.store.Get(ctx, rec.CoinType)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		candle := domain.NewCandle(bucket, rec.Price)
		series = &domain.CandleSeries{CoinType: rec.CoinType, Candles: []domain.Candle{candle}}
		if err := a.store.Create(ctx, series); err != nil {
			return candle, fmt.Errorf("create candle series: %w", err)
		}
		return candle, nil
	case err != nil:
		return domain.Candle{}, fmt.Errorf("get candle series: %w", err)
	}

	series.Apply(bucket, rec.Price)
	if err := a.store.Update(ctx, series); err != nil {
		return domain.Candle{}, fmt.Errorf("update candle series: %w", err)
	}
	return *series.Latest(), nil
}
