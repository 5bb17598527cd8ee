package memory

import (
	"context"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

// TradeLedgerStore is an in-memory implementation of storage.TradeLedgerStore.
type TradeLedgerStore struct {
	docs *documentStore[domain.TradeLedger]
}

// NewTradeLedgerStore creates a new in-memory trade ledger store.
func NewTradeLedgerStore() *TradeLedgerStore {
	return &TradeLedgerStore{
		docs: newDocumentStore(func(l *domain.TradeLedger) string { return l.CoinType }),
	}
}

// Create adds a new document. Returns ErrDuplicateKey if coin_type exists.
func (s *TradeLedgerStore) Create(_ context.Context, l *domain.TradeLedger) error {
	return s.docs.create(l)
}

// Get retrieves a document by coin type. Returns ErrNotFound if not exists.
func (s *TradeLedgerStore) Get(_ context.Context, coinType string) (*domain.TradeLedger, error) {
	return s.docs.get(coinType)
}

// Update replaces the whole document. Returns ErrNotFound if not exists.
func (s *TradeLedgerStore) Update(_ context.Context, l *domain.TradeLedger) error {
	return s.docs.update(l)
}

// Len returns the number of stored documents.
func (s *TradeLedgerStore) Len() int {
	return s.docs.count()
}

var _ storage.TradeLedgerStore = (*TradeLedgerStore)(nil)
