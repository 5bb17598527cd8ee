package memory

import (
	"context"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

// CandleSeriesStore is an in-memory implementation of storage.CandleSeriesStore.
type CandleSeriesStore struct {
	docs *documentStore[domain.CandleSeries]
}

// NewCandleSeriesStore creates a new in-memory candle series store.
func NewCandleSeriesStore() *CandleSeriesStore {
	return &CandleSeriesStore{
		docs: newDocumentStore(func(cs *domain.CandleSeries) string { return cs.CoinType }),
	}
}

// Create adds a new document. Returns ErrDuplicateKey if coin_type exists.
func (s *CandleSeriesStore) Create(_ context.Context, cs *domain.CandleSeries) error {
	return s.docs.create(cs)
}

// Get retrieves a document by coin type. Returns ErrNotFound if not exists.
func (s *CandleSeriesStore) Get(_ context.Context, coinType string) (*domain.CandleSeries, error) {
	return s.docs.get(coinType)
}

// Update replaces the whole document. Returns ErrNotFound if not exists.
func (s *CandleSeriesStore) Update(_ context.Context, cs *domain.CandleSeries) error {
	return s.docs.update(cs)
}

// Len returns the number of stored documents.
func (s *CandleSeriesStore) Len() int {
	return s.docs.count()
}

var _ storage.CandleSeriesStore = (*CandleSeriesStore)(nil)
