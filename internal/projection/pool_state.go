package projection

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

// PoolStateProjector keeps the latest reserves per coin type.
type PoolStateProjector struct {
	store  storage.PoolStateStore
	logger *zap.Logger
	locks  keyLocks
}

// NewPoolStateProjector creates a projector writing to store.
func NewPoolStateProjector(store storage.PoolStateStore, logger *zap.Logger) *PoolStateProjector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolStateProjector{store: store, logger: logger.Named("pool_state")}
}

// Create records a new pool. A pool already stored for the coin type is
// overwritten as a whole.
func (p *PoolStateProjector) Create(ctx context.Context, rec *domain.PoolCreatedRecord) (*domain.PoolState, error) {
	state := &domain.PoolState{
		CoinType:    rec.CoinType,
		PoolID:      rec.PoolID,
		ReserveMeme: rec.ReserveMeme,
		ReserveSui:  rec.ReserveSui,
		TimestampMs: rec.TimestampMs,
	}

	unlock := p.locks.lock(rec.CoinType)
	defer unlock()

	err := p.store.Create(ctx, state)
	if errors.Is(err, storage.ErrDuplicateKey) {
		p.logger.Info("pool state exists, overwriting",
			zap.String("coin_type", rec.CoinType),
			zap.String("pool_id", rec.PoolID),
		)
		err = p.store.Update(ctx, state)
	}
	if err != nil {
		return nil, fmt.Errorf("store pool state: %w", err)
	}
	return state, nil
}

// ApplySwap overwrites reserves and timestamp with the swap's values,
// creating the document when the pool was never seen.
func (p *PoolStateProjector) ApplySwap(ctx context.Context, rec *domain.SwapRecord) (*domain.PoolState, error) {
	unlock := p.locks.lock(rec.CoinType)
	defer unlock()

	state, err := p.store.Get(ctx, rec.CoinType)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		state = &domain.PoolState{
			CoinType:    rec.CoinType,
			PoolID:      rec.PoolID,
			ReserveMeme: rec.ReserveMeme,
			ReserveSui:  rec.ReserveSui,
			TimestampMs: rec.TimestampMs,
		}
		if err := p.store.Create(ctx, state); err != nil {
			return nil, fmt.Errorf("create pool state: %w", err)
		}
		return state, nil
	case err != nil:
		return nil, fmt.Errorf("get pool state: %w", err)
	}

	state.ReserveMeme = rec.ReserveMeme
	state.ReserveSui = rec.ReserveSui
	state.TimestampMs = rec.TimestampMs
	if err := p.store.Update(ctx, state); err != nil {
		return nil, fmt.Errorf("update pool state: %w", err)
	}
	return state, nil
}
