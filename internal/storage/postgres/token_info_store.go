package postgres

import (
	"context"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

// TokenInfoStore implements storage.TokenInfoStore using the token_info table.
type TokenInfoStore struct {
	docs *documentStore[domain.TokenInfo]
}

// NewTokenInfoStore creates a new TokenInfoStore.
func NewTokenInfoStore(pool *Pool) *TokenInfoStore {
	return &TokenInfoStore{
		docs: newDocumentStore(pool, "token_info", func(t *domain.TokenInfo) string { return t.CoinType }),
	}
}

// Compile-time interface check.
var _ storage.TokenInfoStore = (*TokenInfoStore)(nil)

// Create adds a new document. Returns ErrDuplicateKey if coin_type exists.
func (s *TokenInfoStore) Create(ctx context.Context, t *domain.TokenInfo) error {
	return s.docs.create(ctx, t)
}

// Get retrieves a document by coin type. Returns ErrNotFound if not exists.
func (s *TokenInfoStore) Get(ctx context.Context, coinType string) (*domain.TokenInfo, error) {
	return s.docs.get(ctx, coinType)
}

// Update replaces the whole document. Returns ErrNotFound if not exists.
func (s *TokenInfoStore) Update(ctx context.Context, t *domain.TokenInfo) error {
	return s.docs.update(ctx, t)
}
