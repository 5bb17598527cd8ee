// Package bus fans raw events out to independent in-process consumers.
package bus

import (
	"errors"
	"sync"
	"sync/atomic"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/observability"
)

// DefaultCapacity is the per-consumer buffer size.
const DefaultCapacity = 100000

var (
	// ErrNoConsumers is returned by Publish when nobody is subscribed.
	ErrNoConsumers = errors.New("bus has no consumers")
	// ErrClosed is returned by Publish and Subscribe after Close.
	ErrClosed = errors.New("bus closed")
)

// Bus is a bounded broadcast channel. Every consumer sees every event
// published after it subscribed, in publish order. A consumer whose buffer
// is full loses its oldest buffered event; the producer never blocks.
type Bus struct {
	capacity int

	mu        sync.RWMutex
	consumers map[*Consumer]struct{}
	closed    bool
}

// New creates a bus whose consumers buffer up to capacity events each.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		capacity:  capacity,
		consumers: make(map[*Consumer]struct{}),
	}
}

// Subscribe registers a consumer. name labels its drop metric.
func (b *Bus) Subscribe(name string) (*Consumer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	c := &Consumer{
		name: name,
		ch:   make(chan domain.RawEvent, b.capacity),
		bus:  b,
	}
	b.consumers[c] = struct{}{}
	observability.SetBusConsumers(len(b.consumers))
	return c, nil
}

// Publish offers ev to every consumer and returns how many received it.
func (b *Bus) Publish(ev domain.RawEvent) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, ErrClosed
	}
	if len(b.consumers) == 0 {
		return 0, ErrNoConsumers
	}

	for c := range b.consumers {
		c.offer(ev)
	}
	return len(b.consumers), nil
}

// Consumers returns the number of registered consumers.
func (b *Bus) Consumers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.consumers)
}

// Close closes every consumer channel. Further publishes fail with ErrClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for c := range b.consumers {
		close(c.ch)
		delete(b.consumers, c)
	}
	observability.SetBusConsumers(0)
}

func (b *Bus) remove(c *Consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.consumers[c]; !ok {
		return
	}
	delete(b.consumers, c)
	close(c.ch)
	observability.SetBusConsumers(len(b.consumers))
}

// Consumer is one subscriber's view of the bus.
type Consumer struct {
	name    string
	ch      chan domain.RawEvent
	bus     *Bus
	dropped atomic.Uint64
}

// Events returns the consumer's channel. It is closed by Close or Bus.Close.
func (c *Consumer) Events() <-chan domain.RawEvent {
	return c.ch
}

// Name returns the consumer label.
func (c *Consumer) Name() string {
	return c.name
}

// Dropped returns how many events this consumer lost to overflow.
func (c *Consumer) Dropped() uint64 {
	return c.dropped.Load()
}

// Len returns the number of buffered events.
func (c *Consumer) Len() int {
	return len(c.ch)
}

// Close unregisters the consumer.
func (c *Consumer) Close() {
	c.bus.remove(c)
}

// offer enqueues ev, evicting the oldest buffered events until it fits.
// Caller holds the bus read lock, so ch cannot be closed underneath.
func (c *Consumer) offer(ev domain.RawEvent) {
	for {
		select {
		case c.ch <- ev:
			return
		default:
		}

		select {
		case <-c.ch:
			c.dropped.Add(1)
			observability.RecordBusDrop(c.name)
		default:
		}
	}
}
