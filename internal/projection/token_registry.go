package projection

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

// TokenRegistry records coin metadata once per coin type and tracks the
// time of its latest trade.
type TokenRegistry struct {
	store  storage.TokenInfoStore
	logger *zap.Logger
	locks  keyLocks
}

// NewTokenRegistry creates a registry writing to store.
func NewTokenRegistry(store storage.TokenInfoStore, logger *zap.Logger) *TokenRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenRegistry{store: store, logger: logger.Named("token_registry")}
}

// Register stores token info for a new pool. An existing row is kept and
// returned with created set to false.
func (r *TokenRegistry) Register(ctx context.Context, rec *domain.PoolCreatedRecord, meta *domain.CoinMetadata, totalSupply uint64) (info *domain.TokenInfo, created bool, err error) {
	info = &domain.TokenInfo{
		CoinType:     rec.CoinType,
		Name:         meta.Name,
		Symbol:       meta.Symbol,
		Decimals:     meta.Decimals,
		IconURL:      meta.IconURL,
		Description:  meta.Description,
		TotalSupply:  totalSupply,
		CreateTimeMs: rec.TimestampMs,
		CreateDigest: rec.TxDigest,
	}

	unlock := r.locks.lock(rec.CoinType)
	defer unlock()

	err = r.store.Create(ctx, info)
	if errors.Is(err, storage.ErrDuplicateKey) {
		r.logger.Info("token already registered",
			zap.String("coin_type", rec.CoinType),
			zap.String("tx_digest", rec.TxDigest),
		)
		existing, err := r.store.Get(ctx, rec.CoinType)
		if err != nil {
			return nil, false, fmt.Errorf("get token info: %w", err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("create token info: %w", err)
	}
	return info, true, nil
}

// TouchRecentTrade sets the latest trade time. Unknown coin types are
// skipped with a notice.
func (r *TokenRegistry) TouchRecentTrade(ctx context.Context, coinType string, tsMs int64) error {
	unlock := r.locks.lock(coinType)
	defer unlock()

	info, err := r.store.Get(ctx, coinType)
	if errors.Is(err, storage.ErrNotFound) {
		r.logger.Info("trade for unregistered token", zap.String("coin_type", coinType))
		return nil
	}
	if err != nil {
		return fmt.Errorf("get token info: %w", err)
	}

	info.RecentTradeMs = &tsMs
	if err := r.store.Update(ctx, info); err != nil {
		return fmt.Errorf("update token info: %w", err)
	}
	return nil
}
