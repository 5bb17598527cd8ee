package stub

import (
	"context"
	"errors"
	"sync"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/sui"
)

// ErrSubscribe is a canned subscribe failure.
var ErrSubscribe = errors.New("stub subscribe failure")

// Session scripts one subscription: deliver Events, then end with Err.
// FailSubscribe makes the SubscribeEvents call itself fail.
type Session struct {
	Events        []domain.RawEvent
	Err           error
	FailSubscribe bool
}

// EventSource implements sui.EventSource by replaying scripted sessions.
// Once sessions run out, subscriptions stay open and silent until ctx ends.
type EventSource struct {
	mu       sync.Mutex
	sessions []Session
	filters  []sui.EventFilter
}

// Compile-time interface check.
var _ sui.EventSource = (*EventSource)(nil)

// NewEventSource creates a source that replays sessions in order.
func NewEventSource(sessions ...Session) *EventSource {
	return &EventSource{sessions: sessions}
}

// Subscriptions returns the number of SubscribeEvents calls so far.
func (s *EventSource) Subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filters)
}

// Filters returns every filter passed to SubscribeEvents.
func (s *EventSource) Filters() []sui.EventFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sui.EventFilter, len(s.filters))
	copy(out, s.filters)
	return out
}

// SubscribeEvents pops the next session.
func (s *EventSource) SubscribeEvents(ctx context.Context, filter sui.EventFilter) (sui.EventStream, error) {
	s.mu.Lock()
	s.filters = append(s.filters, filter)
	var sess *Session
	if len(s.sessions) > 0 {
		sess = &s.sessions[0]
		s.sessions = s.sessions[1:]
	}
	s.mu.Unlock()

	if sess != nil && sess.FailSubscribe {
		return nil, ErrSubscribe
	}

	st := &stream{
		events: make(chan domain.RawEvent),
		done:   make(chan struct{}),
	}
	go st.run(ctx, sess)
	return st, nil
}

type stream struct {
	events chan domain.RawEvent
	done   chan struct{}
	once   sync.Once

	mu  sync.Mutex
	err error
}

func (s *stream) run(ctx context.Context, sess *Session) {
	defer close(s.events)

	if sess == nil {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		return
	}

	for _, ev := range sess.Events {
		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}

	s.mu.Lock()
	s.err = sess.Err
	s.mu.Unlock()
}

func (s *stream) Events() <-chan domain.RawEvent { return s.events }

func (s *stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stream) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
