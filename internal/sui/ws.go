package sui

import (
	"context"

	"sui-amm-indexer/internal/domain"
)

// EventSource opens event subscriptions. A subscription lives until its
// connection drops; reconnecting is the caller's job.
type EventSource interface {
	SubscribeEvents(ctx context.Context, filter EventFilter) (EventStream, error)
}

// EventStream is a single live subscription.
type EventStream interface {
	// Events yields events in delivery order. Closed when the stream ends.
	Events() <-chan domain.RawEvent

	// Err reports why the stream ended. Nil while open or after Close.
	Err() error

	// Close ends the subscription.
	Close() error
}

// EventFilter selects events for suix_subscribeEvent.
type EventFilter struct {
	// Package restricts events to those emitted by this package id.
	Package string
}

// params renders the filter in the JSON-RPC shape.
func (f EventFilter) params() map[string]string {
	return map[string]string{"Package": f.Package}
}
