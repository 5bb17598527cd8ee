package memory

import "sui-amm-indexer/internal/storage"

// NewStores returns a fresh set of in-memory document stores.
func NewStores() storage.Stores {
	return storage.Stores{
		Pools:   NewPoolStateStore(),
		Trades:  NewTradeLedgerStore(),
		Candles: NewCandleSeriesStore(),
		Tokens:  NewTokenInfoStore(),
	}
}
