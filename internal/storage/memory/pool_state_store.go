package memory

import (
	"context"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

// PoolStateStore is an in-memory implementation of storage.PoolStateStore.
type PoolStateStore struct {
	docs *documentStore[domain.PoolState]
}

// NewPoolStateStore creates a new in-memory pool state store.
func NewPoolStateStore() *PoolStateStore {
	return &PoolStateStore{
		docs: newDocumentStore(func(p *domain.PoolState) string { return p.CoinType }),
	}
}

// Create adds a new document. Returns ErrDuplicateKey if coin_type exists.
func (s *PoolStateStore) Create(_ context.Context, p *domain.PoolState) error {
	return s.docs.create(p)
}

// Get retrieves a document by coin type. Returns ErrNotFound if not exists.
func (s *PoolStateStore) Get(_ context.Context, coinType string) (*domain.PoolState, error) {
	return s.docs.get(coinType)
}

// Update replaces the whole document. Returns ErrNotFound if not exists.
func (s *PoolStateStore) Update(_ context.Context, p *domain.PoolState) error {
	return s.docs.update(p)
}

// Len returns the number of stored documents.
func (s *PoolStateStore) Len() int {
	return s.docs.count()
}

var _ storage.PoolStateStore = (*PoolStateStore)(nil)
