package ingestion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/projection"
	"sui-amm-indexer/internal/publish"
	"sui-amm-indexer/internal/storage"
	"sui-amm-indexer/internal/sui"
)

// CoinTypeResolver maps a pool object id to the coin type it trades.
type CoinTypeResolver interface {
	Resolve(ctx context.Context, poolID string) (string, error)
}

// Projectors groups the read-model writers fed by the handlers.
type Projectors struct {
	Pools  *projection.PoolStateProjector
	Trades *projection.TradeLedgerProjector
	Charts *projection.ChartAggregator
	Tokens *projection.TokenRegistry
}

// NewProjectors builds every projector over stores.
func NewProjectors(stores storage.Stores, carryDay bool, logger *zap.Logger) Projectors {
	return Projectors{
		Pools:  projection.NewPoolStateProjector(stores.Pools, logger),
		Trades: projection.NewTradeLedgerProjector(stores.Trades),
		Charts: projection.NewChartAggregator(stores.Candles, carryDay),
		Tokens: projection.NewTokenRegistry(stores.Tokens, logger),
	}
}

// PoolCreationHandler turns CreatePoolEvents into pool state and token info.
type PoolCreationHandler struct {
	resolver   CoinTypeResolver
	chain      sui.ChainState
	projectors Projectors
	publisher  publish.Publisher
	logger     *zap.Logger
}

// NewPoolCreationHandler creates the pool-creation pipeline. publisher may be nil.
func NewPoolCreationHandler(resolver CoinTypeResolver, chain sui.ChainState, projectors Projectors, publisher publish.Publisher, logger *zap.Logger) *PoolCreationHandler {
	if publisher == nil {
		publisher = publish.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolCreationHandler{
		resolver:   resolver,
		chain:      chain,
		projectors: projectors,
		publisher:  publisher,
		logger:     logger.Named("pool_creation"),
	}
}

// Handle runs one CreatePoolEvent through the pipeline.
func (h *PoolCreationHandler) Handle(ctx context.Context, ev domain.RawEvent) error {
	payload, err := domain.DecodeCreatePoolPayload(ev.ParsedJSON)
	if err != nil {
		return inStage(classParse, err)
	}
	if err := checkTimestamp(ev); err != nil {
		return err
	}

	coinType, err := h.resolver.Resolve(ctx, payload.PoolID)
	if err != nil {
		return inStage(classChain, fmt.Errorf("resolve coin type: %w", err))
	}

	meta, err := h.chain.GetCoinMetadata(ctx, coinType)
	if err != nil {
		return inStage(classChain, fmt.Errorf("coin metadata %s: %w", coinType, err))
	}
	supply, err := h.chain.GetTotalSupply(ctx, coinType)
	if err != nil {
		return inStage(classChain, fmt.Errorf("total supply %s: %w", coinType, err))
	}

	rec, err := domain.NewPoolCreatedRecord(payload, coinType, ev.ID.TxDigest, ev.TimestampMs)
	if err != nil {
		return inStage(classParse, err)
	}

	state, err := h.projectors.Pools.Create(ctx, rec)
	if err != nil {
		return inStage(classStore, err)
	}
	token, created, err := h.projectors.Tokens.Register(ctx, rec, meta, supply)
	if err != nil {
		return inStage(classStore, err)
	}

	h.logger.Info("pool created",
		zap.String("coin_type", coinType),
		zap.String("pool_id", rec.PoolID),
		zap.String("symbol", token.Symbol),
		zap.Bool("new_token", created),
		zap.String("tx_digest", rec.TxDigest),
	)

	if err := h.publisher.PoolCreated(state); err != nil {
		h.logger.Warn("publish pool created failed", zap.String("coin_type", coinType), zap.Error(err))
	}
	return nil
}

// SwapHandler turns SwapEvents into pool, trade, candle and token updates.
type SwapHandler struct {
	resolver   CoinTypeResolver
	chain      sui.ChainState
	projectors Projectors
	archive    storage.SwapArchive
	publisher  publish.Publisher
	logger     *zap.Logger
}

// NewSwapHandler creates the swap pipeline. archive and publisher may be nil.
func NewSwapHandler(resolver CoinTypeResolver, chain sui.ChainState, projectors Projectors, archive storage.SwapArchive, publisher publish.Publisher, logger *zap.Logger) *SwapHandler {
	if publisher == nil {
		publisher = publish.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapHandler{
		resolver:   resolver,
		chain:      chain,
		projectors: projectors,
		archive:    archive,
		publisher:  publisher,
		logger:     logger.Named("swap"),
	}
}

// Handle runs one SwapEvent through the pipeline. The projection steps run
// in order and the first failure aborts the rest.
func (h *SwapHandler) Handle(ctx context.Context, ev domain.RawEvent) error {
	payload, err := domain.DecodeSwapPayload(ev.ParsedJSON)
	if err != nil {
		return inStage(classParse, err)
	}
	if err := checkTimestamp(ev); err != nil {
		return err
	}

	coinType, err := h.resolver.Resolve(ctx, payload.PoolID)
	if err != nil {
		return inStage(classChain, fmt.Errorf("resolve coin type: %w", err))
	}

	balance, err := h.chain.GetBalance(ctx, payload.Account, coinType)
	if err != nil {
		return inStage(classChain, fmt.Errorf("balance %s: %w", payload.Account, err))
	}

	rec, err := domain.NewSwapRecord(payload, coinType, balance, ev.ID.TxDigest, ev.TimestampMs)
	if err != nil {
		return inStage(classParse, err)
	}

	if _, err := h.projectors.Pools.ApplySwap(ctx, rec); err != nil {
		return inStage(classStore, err)
	}
	trade, err := h.projectors.Trades.Append(ctx, rec)
	if err != nil {
		return inStage(classStore, err)
	}
	candle, err := h.projectors.Charts.Apply(ctx, rec)
	if err != nil {
		return inStage(classStore, err)
	}
	if err := h.projectors.Tokens.TouchRecentTrade(ctx, coinType, rec.TimestampMs); err != nil {
		return inStage(classStore, err)
	}

	if h.archive != nil {
		if err := h.archive.Enqueue(rec); err != nil {
			h.logger.Debug("archive enqueue failed", zap.String("tx_digest", rec.TxDigest), zap.Error(err))
		}
	}

	if err := h.publisher.Trade(coinType, trade); err != nil {
		h.logger.Warn("publish trade failed", zap.String("coin_type", coinType), zap.Error(err))
	}
	if err := h.publisher.Candle(coinType, candle); err != nil {
		h.logger.Warn("publish candle failed", zap.String("coin_type", coinType), zap.Error(err))
	}
	return nil
}

// checkTimestamp rejects events that would be stored with a 1970 date.
func checkTimestamp(ev domain.RawEvent) error {
	if ev.TimestampMs <= 0 {
		return inStage(classParse, fmt.Errorf("%w: %d", domain.ErrMissingTimestamp, ev.TimestampMs))
	}
	return nil
}
