package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sui-amm-indexer/internal/bus"
	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/observability"
	"sui-amm-indexer/internal/sui/stub"
)

func subEvent(digest string) domain.RawEvent {
	return domain.RawEvent{
		ID:   domain.EventID{TxDigest: digest, EventSeq: "0"},
		Type: "0xamm::amm_swap::SwapEvent",
	}
}

// countingBackOff returns a fixed short interval and records Reset calls.
type countingBackOff struct {
	mu     sync.Mutex
	resets int
	next   time.Duration
}

func (b *countingBackOff) NextBackOff() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.next
}

func (b *countingBackOff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resets++
}

func (b *countingBackOff) Resets() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resets
}

func collect(t *testing.T, c *bus.Consumer, n int) []string {
	t.Helper()
	var out []string
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case e := <-c.Events():
			out = append(out, e.ID.TxDigest)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}

func TestSubscriber_ResubscribesAfterDrop(t *testing.T) {
	source := stub.NewEventSource(
		stub.Session{Events: []domain.RawEvent{subEvent("a"), subEvent("b")}, Err: errors.New("connection reset")},
		stub.Session{FailSubscribe: true},
		stub.Session{Events: []domain.RawEvent{subEvent("c")}},
	)
	b := bus.New(16)
	c, err := b.Subscribe("test")
	require.NoError(t, err)

	policy := &countingBackOff{next: time.Millisecond}
	s := NewSubscriber(SubscriberOptions{
		Source:    source,
		Bus:       b,
		PackageID: "0xamm",
		Policy:    policy,
	})

	before := testutil.ToFloat64(observability.DefaultMetrics.Resubscriptions)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Equal(t, []string{"a", "b", "c"}, collect(t, c, 3))

	require.Eventually(t, func() bool { return source.Subscriptions() >= 4 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}

	assert.GreaterOrEqual(t, testutil.ToFloat64(observability.DefaultMetrics.Resubscriptions)-before, 3.0)
	assert.Equal(t, 2, policy.Resets())
	for _, f := range source.Filters() {
		assert.Equal(t, "0xamm", f.Package)
	}
}

func TestSubscriber_StopPolicyKeepsRetrying(t *testing.T) {
	source := stub.NewEventSource(
		stub.Session{FailSubscribe: true},
		stub.Session{FailSubscribe: true},
		stub.Session{Events: []domain.RawEvent{subEvent("a")}},
	)
	b := bus.New(4)
	c, err := b.Subscribe("test")
	require.NoError(t, err)

	s := NewSubscriber(SubscriberOptions{
		Source:     source,
		Bus:        b,
		Policy:     &backoff.StopBackOff{},
		MaxBackoff: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	assert.Equal(t, []string{"a"}, collect(t, c, 1))
}

func TestSubscriber_NoConsumersDoesNotStop(t *testing.T) {
	source := stub.NewEventSource(stub.Session{Events: []domain.RawEvent{subEvent("a"), subEvent("b")}})
	b := bus.New(4)
	before := testutil.ToFloat64(observability.DefaultMetrics.EventsDropped.WithLabelValues("no_consumers"))

	s := NewSubscriber(SubscriberOptions{Source: source, Bus: b, Policy: &backoff.ZeroBackOff{}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(observability.DefaultMetrics.EventsDropped.WithLabelValues("no_consumers"))-before == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestSubscriber_CancelDuringBackoff(t *testing.T) {
	source := stub.NewEventSource(stub.Session{FailSubscribe: true})
	s := NewSubscriber(SubscriberOptions{
		Source: source,
		Bus:    bus.New(1),
		Policy: backoff.NewConstantBackOff(time.Hour),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return source.Subscriptions() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop during backoff")
	}
}

func TestNewSubscriber_DefaultPolicy(t *testing.T) {
	s := NewSubscriber(SubscriberOptions{Source: stub.NewEventSource(), Bus: bus.New(1)})

	eb, ok := s.policy.(*backoff.ExponentialBackOff)
	require.True(t, ok)
	assert.Equal(t, DefaultInitialBackoff, eb.InitialInterval)
	assert.Equal(t, DefaultMaxBackoff, eb.MaxInterval)
	assert.Zero(t, eb.MaxElapsedTime)
}
