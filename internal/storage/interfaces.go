package storage

import (
	"context"

	"sui-amm-indexer/internal/domain"
)

// PoolStateStore provides access to pool_state documents keyed by coin type.
type PoolStateStore interface {
	// Create adds a new document. Returns ErrDuplicateKey if coin_type exists.
	Create(ctx context.Context, p *domain.PoolState) error

	// Get retrieves a document by coin type. Returns ErrNotFound if not exists.
	Get(ctx context.Context, coinType string) (*domain.PoolState, error)

	// Update replaces the whole document. Returns ErrNotFound if not exists.
	Update(ctx context.Context, p *domain.PoolState) error
}

// TradeLedgerStore provides access to trade_ledger documents keyed by coin type.
type TradeLedgerStore interface {
	// Create adds a new document. Returns ErrDuplicateKey if coin_type exists.
	Create(ctx context.Context, l *domain.TradeLedger) error

	// Get retrieves a document by coin type. Returns ErrNotFound if not exists.
	Get(ctx context.Context, coinType string) (*domain.TradeLedger, error)

	// Update replaces the whole document. Returns ErrNotFound if not exists.
	Update(ctx context.Context, l *domain.TradeLedger) error
}

// CandleSeriesStore provides access to candle_series documents keyed by coin type.
type CandleSeriesStore interface {
	// Create adds a new document. Returns ErrDuplicateKey if coin_type exists.
	Create(ctx context.Context, s *domain.CandleSeries) error

	// Get retrieves a document by coin type. Returns ErrNotFound if not exists.
	Get(ctx context.Context, coinType string) (*domain.CandleSeries, error)

	// Update replaces the whole document. Returns ErrNotFound if not exists.
	Update(ctx context.Context, s *domain.CandleSeries) error
}

// TokenInfoStore provides access to token_info documents keyed by coin type.
type TokenInfoStore interface {
	// Create adds a new document. Returns ErrDuplicateKey if coin_type exists.
	Create(ctx context.Context, t *domain.TokenInfo) error

	// Get retrieves a document by coin type. Returns ErrNotFound if not exists.
	Get(ctx context.Context, coinType string) (*domain.TokenInfo, error)

	// Update replaces the whole document. Returns ErrNotFound if not exists.
	Update(ctx context.Context, t *domain.TokenInfo) error
}

// SwapArchive receives resolved swaps for append-only storage.
// Enqueue must not block the caller on the archive backend.
type SwapArchive interface {
	Enqueue(r *domain.SwapRecord) error
}

// Stores groups the document stores the projections write to.
type Stores struct {
	Pools   PoolStateStore
	Trades  TradeLedgerStore
	Candles CandleSeriesStore
	Tokens  TokenInfoStore
}
