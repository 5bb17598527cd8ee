package postgres

import (
	"context"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

// PoolStateStore implements storage.PoolStateStore using the pool_state table.
type PoolStateStore struct {
	docs *documentStore[domain.PoolState]
}

// NewPoolStateStore creates a new PoolStateStore.
func NewPoolStateStore(pool *Pool) *PoolStateStore {
	return &PoolStateStore{
		docs: newDocumentStore(pool, "pool_state", func(p *domain.PoolState) string { return p.CoinType }),
	}
}

// Compile-time interface check.
var _ storage.PoolStateStore = (*PoolStateStore)(nil)

// Create adds a new document. Returns ErrDuplicateKey if coin_type exists.
func (s *PoolStateStore) Create(ctx context.Context, p *domain.PoolState) error {
	return s.docs.create(ctx, p)
}

// Get retrieves a document by coin type. Returns ErrNotFound if not exists.
func (s *PoolStateStore) Get(ctx context.Context, coinType string) (*domain.PoolState, error) {
	return s.docs.get(ctx, coinType)
}

// Update replaces the whole document. Returns ErrNotFound if not exists.
func (s *PoolStateStore) Update(ctx context.Context, p *domain.PoolState) error {
	return s.docs.update(ctx, p)
}
