package verification

import (
	"context"
	"errors"
	"fmt"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

// ErrSeriesNotFound is returned when the projection has no candles for a coin type.
var ErrSeriesNotFound = errors.New("candle series not found")

// ArchiveSource rebuilds candles from archived swaps.
type ArchiveSource interface {
	CandlesFromArchive(ctx context.Context, coinType string, fromMs, toMs int64) ([]domain.Candle, error)
}

// CandleVerifier compares the stored candle series with the archive.
type CandleVerifier struct {
	candles storage.CandleSeriesStore
	archive ArchiveSource
}

// NewCandleVerifier creates a CandleVerifier.
func NewCandleVerifier(candles storage.CandleSeriesStore, archive ArchiveSource) *CandleVerifier {
	return &CandleVerifier{candles: candles, archive: archive}
}

// Verify compares buckets fromBucket..toBucket (inclusive, unix seconds).
// A bucket labelled B holds swaps from B-299s up to the end of second B, so
// the archive is queried over exactly that window.
func (v *CandleVerifier) Verify(ctx context.Context, coinType string, fromBucket, toBucket int64) (*VerificationResult, error) {
	if toBucket < fromBucket {
		return nil, fmt.Errorf("invalid bucket range %d..%d", fromBucket, toBucket)
	}

	series, err := v.candles.Get(ctx, coinType)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSeriesNotFound, coinType)
		}
		return nil, fmt.Errorf("get candle series: %w", err)
	}

	var live []domain.Candle
	for _, c := range series.Candles {
		if c.Timestamp >= fromBucket && c.Timestamp <= toBucket {
			live = append(live, c)
		}
	}

	fromMs := (fromBucket - 299) * 1000
	toMs := toBucket*1000 + 999
	archived, err := v.archive.CandlesFromArchive(ctx, coinType, fromMs, toMs)
	if err != nil {
		return nil, fmt.Errorf("rebuild candles from archive: %w", err)
	}

	res := CompareCandles(live, archived)
	res.CoinType = coinType
	return res, nil
}
