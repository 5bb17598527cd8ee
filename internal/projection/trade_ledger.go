package projection

import (
	"context"
	"errors"
	"fmt"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

// TradeLedgerProjector prepends trades to the per-asset ledger.
type TradeLedgerProjector struct {
	store storage.TradeLedgerStore
	locks keyLocks
}

// NewTradeLedgerProjector creates a projector writing to store.
func NewTradeLedgerProjector(store storage.TradeLedgerStore) *TradeLedgerProjector {
	return &TradeLedgerProjector{store: store}
}

// Append puts the swap's trade at the head of its ledger.
func (p *TradeLedgerProjector) Append(ctx context.Context, rec *domain.SwapRecord) (domain.Trade, error) {
	trade := rec.Trade()

	unlock := p.locks.lock(rec.CoinType)
	defer unlock()

	ledger, err := p.store.Get(ctx, rec.CoinType)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		ledger = &domain.TradeLedger{CoinType: rec.CoinType, Trades: []domain.Trade{trade}}
		if err := p.store.Create(ctx, ledger); err != nil {
			return trade, fmt.Errorf("create trade ledger: %w", err)
		}
		return trade, nil
	case err != nil:
		return trade, fmt.Errorf("get trade ledger: %w", err)
	}

	ledger.Prepend(trade)
	if err := p.store.Update(ctx, ledger); err != nil {
		return trade, fmt.Errorf("update trade ledger: %w", err)
	}
	return trade, nil
}
