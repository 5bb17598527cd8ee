package memory

import (
	"context"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

// TokenInfoStore is an in-memory implementation of storage.TokenInfoStore.
type TokenInfoStore struct {
	docs *documentStore[domain.TokenInfo]
}

// NewTokenInfoStore creates a new in-memory token info store.
func NewTokenInfoStore() *TokenInfoStore {
	return &TokenInfoStore{
		docs: newDocumentStore(func(t *domain.TokenInfo) string { return t.CoinType }),
	}
}

// Create adds a new document. Returns ErrDuplicateKey if coin_type exists.
func (s *TokenInfoStore) Create(_ context.Context, t *domain.TokenInfo) error {
	return s.docs.create(t)
}

// Get retrieves a document by coin type. Returns ErrNotFound if not exists.
func (s *TokenInfoStore) Get(_ context.Context, coinType string) (*domain.TokenInfo, error) {
	return s.docs.get(coinType)
}

// Update replaces the whole document. Returns ErrNotFound if not exists.
func (s *TokenInfoStore) Update(_ context.Context, t *domain.TokenInfo) error {
	return s.docs.update(t)
}

// Len returns the number of stored documents.
func (s *TokenInfoStore) Len() int {
	return s.docs.count()
}

var _ storage.TokenInfoStore = (*TokenInfoStore)(nil)
