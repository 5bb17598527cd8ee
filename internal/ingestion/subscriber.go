// Package ingestion subscribes to AMM events and routes them to the projections.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"sui-amm-indexer/internal/bus"
	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/observability"
	"sui-amm-indexer/internal/sui"
)

// Default reconnect policy bounds.
const (
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 30 * time.Second
)

var errStreamEnded = errors.New("event stream ended")

// EventPublisher accepts events from the subscriber.
type EventPublisher interface {
	Publish(ev domain.RawEvent) (int, error)
}

// SubscriberOptions configures a Subscriber.
type SubscriberOptions struct {
	Source    sui.EventSource
	Bus       EventPublisher
	PackageID string
	// Policy paces resubscription. Nil selects capped exponential backoff.
	Policy backoff.BackOff
	// MaxBackoff is used when Policy returns backoff.Stop.
	MaxBackoff time.Duration
	Logger     *zap.Logger
}

// Subscriber keeps one live event subscription open and forwards every
// event to the bus. It resubscribes forever.
type Subscriber struct {
	source     sui.EventSource
	bus        EventPublisher
	filter     sui.EventFilter
	policy     backoff.BackOff
	maxBackoff time.Duration
	logger     *zap.Logger
}

// NewSubscriber creates a Subscriber.
func NewSubscriber(opts SubscriberOptions) *Subscriber {
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}
	if opts.Policy == nil {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = DefaultInitialBackoff
		eb.MaxInterval = opts.MaxBackoff
		eb.MaxElapsedTime = 0
		eb.Reset()
		opts.Policy = eb
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Subscriber{
		source:     opts.Source,
		bus:        opts.Bus,
		filter:     sui.EventFilter{Package: opts.PackageID},
		policy:     opts.Policy,
		maxBackoff: opts.MaxBackoff,
		logger:     opts.Logger.Named("subscriber"),
	}
}

// Run subscribes until ctx is cancelled. It only returns ctx.Err().
func (s *Subscriber) Run(ctx context.Context) error {
	s.logger.Info("subscriber started", zap.String("package", s.filter.Package))

	for {
		delivered, err := s.session(ctx)
		if ctx.Err() != nil {
			s.logger.Info("subscriber stopped")
			return ctx.Err()
		}

		if delivered > 0 {
			s.policy.Reset()
		}
		wait := s.policy.NextBackOff()
		if wait == backoff.Stop {
			wait = s.maxBackoff
		}

		s.logger.Warn("subscription ended, resubscribing",
			zap.Error(err),
			zap.Int("delivered", delivered),
			zap.Duration("backoff", wait),
		)
		observability.RecordResubscription()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("subscriber stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session runs one subscription to completion and reports how many events
// it forwarded and why it ended.
func (s *Subscriber) session(ctx context.Context) (int, error) {
	stream, err := s.source.SubscribeEvents(ctx, s.filter)
	if err != nil {
		return 0, fmt.Errorf("subscribe: %w", err)
	}
	defer stream.Close()

	s.logger.Info("subscribed", zap.String("package", s.filter.Package))

	delivered := 0
	for {
		select {
		case <-ctx.Done():
			return delivered, ctx.Err()
		case ev, ok := <-stream.Events():
			if !ok {
				if err := stream.Err(); err != nil {
					return delivered, err
				}
				return delivered, errStreamEnded
			}
			delivered++
			s.forward(ev)
		}
	}
}

func (s *Subscriber) forward(ev domain.RawEvent) {
	received := float64(ev.TimestampMs) / 1000
	if ev.TimestampMs == 0 {
		received = float64(time.Now().UnixMilli()) / 1000
	}
	observability.RecordEventReceived(received)

	if _, err := s.bus.Publish(ev); err != nil {
		if errors.Is(err, bus.ErrNoConsumers) {
			observability.RecordEventDropped("no_consumers")
		}
		s.logger.Warn("publish to bus failed",
			zap.String("tx_digest", ev.ID.TxDigest),
			zap.String("event_seq", ev.ID.EventSeq),
			zap.Error(err),
		)
	}
}
