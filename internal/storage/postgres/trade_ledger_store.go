package postgres

import (
	"context"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

// TradeLedgerStore implements storage.TradeLedgerStore using the trade_ledger table.
type TradeLedgerStore struct {
	docs *documentStore[domain.TradeLedger]
}

// NewTradeLedgerStore creates a new TradeLedgerStore.
func NewTradeLedgerStore(pool *Pool) *TradeLedgerStore {
	return &TradeLedgerStore{
		docs: newDocumentStore(pool, "trade_ledger", func(l *domain.TradeLedger) string { return l.CoinType }),
	}
}

// Compile-time interface check.
var _ storage.TradeLedgerStore = (*TradeLedgerStore)(nil)

// Create adds a new document. Returns ErrDuplicateKey if coin_type exists.
func (s *TradeLedgerStore) Create(ctx context.Context, l *domain.TradeLedger) error {
	return s.docs.create(ctx, l)
}

// Get retrieves a document by coin type. Returns ErrNotFound if not exists.
func (s *TradeLedgerStore) Get(ctx context.Context, coinType string) (*domain.TradeLedger, error) {
	return s.docs.get(ctx, coinType)
}

// Update replaces the whole document. Returns ErrNotFound if not exists.
func (s *TradeLedgerStore) Update(ctx context.Context, l *domain.TradeLedger) error {
	return s.docs.update(ctx, l)
}
