package postgres

import (
	"context"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

// CandleSeriesStore implements storage.CandleSeriesStore using the candle_series table.
type CandleSeriesStore struct {
	docs *documentStore[domain.CandleSeries]
}

// NewCandleSeriesStore creates a new CandleSeriesStore.
func NewCandleSeriesStore(pool *Pool) *CandleSeriesStore {
	return &CandleSeriesStore{
		docs: newDocumentStore(pool, "candle_series", func(cs *domain.CandleSeries) string { return cs.CoinType }),
	}
}

// Compile-time interface check.
var _ storage.CandleSeriesStore = (*CandleSeriesStore)(nil)

// Create adds a new document. Returns ErrDuplicateKey if coin_type exists.
func (s *CandleSeriesStore) Create(ctx context.Context, cs *domain.CandleSeries) error {
	return s.docs.create(ctx, cs)
}

// Get retrieves a document by coin type. Returns ErrNotFound if not exists.
func (s *CandleSeriesStore) Get(ctx context.Context, coinType string) (*domain.CandleSeries, error) {
	return s.docs.get(ctx, coinType)
}

// Update replaces the whole document. Returns ErrNotFound if not exists.
func (s *CandleSeriesStore) Update(ctx context.Context, cs *domain.CandleSeries) error {
	return s.docs.update(ctx, cs)
}
