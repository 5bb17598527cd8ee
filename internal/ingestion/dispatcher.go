package ingestion

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"sui-amm-indexer/internal/dedupe"
	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/idhash"
	"sui-amm-indexer/internal/observability"
)

// DefaultWorkerBuffer is the per-worker queue length when Workers > 1.
const DefaultWorkerBuffer = 1024

// EventHandler processes one decoded event kind.
type EventHandler interface {
	Handle(ctx context.Context, ev domain.RawEvent) error
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	PoolCreation EventHandler
	Swap         EventHandler
	// Resolver picks the worker for an event when Workers > 1.
	Resolver CoinTypeResolver
	// Deduper skips events whose id was already seen. Optional.
	Deduper dedupe.Deduper
	// StoreTimeout bounds each handler call. Zero means no timeout.
	StoreTimeout time.Duration
	// Workers > 1 processes different coin types in parallel.
	Workers      int
	WorkerBuffer int
	Logger       *zap.Logger
}

// Dispatcher routes bus events to the handler for their kind.
type Dispatcher struct {
	poolCreation EventHandler
	swap         EventHandler
	resolver     CoinTypeResolver
	deduper      dedupe.Deduper
	storeTimeout time.Duration
	workers      int
	workerBuffer int
	logger       *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.WorkerBuffer <= 0 {
		opts.WorkerBuffer = DefaultWorkerBuffer
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Dispatcher{
		poolCreation: opts.PoolCreation,
		swap:         opts.Swap,
		resolver:     opts.Resolver,
		deduper:      opts.Deduper,
		storeTimeout: opts.StoreTimeout,
		workers:      opts.Workers,
		workerBuffer: opts.WorkerBuffer,
		logger:       opts.Logger.Named("dispatcher"),
	}
}

// Run drains events until ctx is cancelled or the channel closes.
func (d *Dispatcher) Run(ctx context.Context, events <-chan domain.RawEvent) error {
	d.logger.Info("dispatcher started", zap.Int("workers", d.workers))
	defer d.logger.Info("dispatcher stopped")

	if d.workers <= 1 {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				_ = d.Dispatch(ctx, ev)
			}
		}
	}

	queues := make([]chan domain.RawEvent, d.workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan domain.RawEvent, d.workerBuffer)
		wg.Add(1)
		go func(q <-chan domain.RawEvent) {
			defer wg.Done()
			for ev := range q {
				if ctx.Err() != nil {
					continue
				}
				_ = d.Dispatch(ctx, ev)
			}
		}(queues[i])
	}
	defer func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			worker, err := d.shard(ctx, ev)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				d.dropUnroutable(ev, err)
				continue
			}
			select {
			case queues[worker] <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Dispatch processes a single event. Handler errors are logged and counted
// before being returned.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.RawEvent) error {
	kind := ev.Kind()

	var handler EventHandler
	switch kind {
	case domain.EventKindCreatePool:
		handler = d.poolCreation
	case domain.EventKindSwap:
		handler = d.swap
	case domain.EventKindUnknown:
		d.logger.Warn("unknown event kind",
			zap.String("type", ev.Type),
			zap.String("tx_digest", ev.ID.TxDigest),
		)
		observability.RecordEventDropped("unknown_kind")
		return nil
	}
	if handler == nil {
		observability.RecordEventDropped("no_handler")
		return nil
	}

	if d.duplicate(ctx, ev) {
		return nil
	}

	hctx := ctx
	if d.storeTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, d.storeTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := handler.Handle(hctx, ev); err != nil {
		class := classify(err)
		d.logger.Error("event processing failed",
			zap.String("kind", kind.String()),
			zap.String("tx_digest", ev.ID.TxDigest),
			zap.String("event_seq", ev.ID.EventSeq),
			zap.String("error_type", class),
			zap.Error(err),
		)
		observability.RecordEventError(kind.String(), class)
		return err
	}
	observability.RecordEventDispatched(kind.String(), time.Since(start).Seconds())
	return nil
}

func (d *Dispatcher) duplicate(ctx context.Context, ev domain.RawEvent) bool {
	if d.deduper == nil {
		return false
	}
	seen, err := d.deduper.Seen(ctx, idhash.ComputeEventID(ev.ID.TxDigest, ev.ID.EventSeq))
	if err != nil {
		d.logger.Warn("dedupe check failed", zap.String("tx_digest", ev.ID.TxDigest), zap.Error(err))
		return false
	}
	if seen {
		d.logger.Debug("duplicate event skipped",
			zap.String("tx_digest", ev.ID.TxDigest),
			zap.String("event_seq", ev.ID.EventSeq),
		)
		observability.RecordEventDropped("duplicate")
	}
	return seen
}

// shard picks a worker by coin type so that events for one asset stay in
// order. Events whose pool does not resolve are not routed.
func (d *Dispatcher) shard(ctx context.Context, ev domain.RawEvent) (int, error) {
	key := routingPoolID(ev)
	if key != "" && d.resolver != nil {
		coinType, err := d.resolver.Resolve(ctx, key)
		if err != nil {
			return 0, inStage(classResolve, fmt.Errorf("resolve coin type: %w", err))
		}
		key = coinType
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(d.workers)), nil
}

// dropUnroutable logs and counts an event whose worker could not be chosen.
func (d *Dispatcher) dropUnroutable(ev domain.RawEvent, err error) {
	kind := ev.Kind()
	class := classify(err)
	d.logger.Error("event processing failed",
		zap.String("kind", kind.String()),
		zap.String("tx_digest", ev.ID.TxDigest),
		zap.String("event_seq", ev.ID.EventSeq),
		zap.String("error_type", class),
		zap.Error(err),
	)
	observability.RecordEventError(kind.String(), class)
}

func routingPoolID(ev domain.RawEvent) string {
	switch ev.Kind() {
	case domain.EventKindCreatePool:
		if p, err := domain.DecodeCreatePoolPayload(ev.ParsedJSON); err == nil {
			return p.PoolID
		}
	case domain.EventKindSwap:
		if p, err := domain.DecodeSwapPayload(ev.ParsedJSON); err == nil {
			return p.PoolID
		}
	}
	return ""
}
