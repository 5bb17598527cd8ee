package dedupe

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryDeduper is a single-process TTL set.
type MemoryDeduper struct {
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	items   map[string]time.Time // id -> expiry
	stopCh  chan struct{}
	stopped bool
}

var _ Deduper = (*MemoryDeduper)(nil)

// NewMemoryDeduper keeps ids for ttl. A janitor removes expired ids every
// janitorEvery; zero disables it.
func NewMemoryDeduper(ttl, janitorEvery time.Duration, logger *zap.Logger) *MemoryDeduper {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &MemoryDeduper{
		logger: logger.Named("dedupe"),
		ttl:    ttl,
		now:    time.Now,
		items:  make(map[string]time.Time, 1024),
		stopCh: make(chan struct{}),
	}

	if janitorEvery > 0 {
		go m.janitor(janitorEvery)
	}

	return m
}

// Seen records id and reports whether it was already present.
func (m *MemoryDeduper) Seen(_ context.Context, id string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if exp, ok := m.items[id]; ok && exp.After(now) {
		return true, nil
	}
	m.items[id] = now.Add(m.ttl)
	return false, nil
}

// Len returns the number of tracked ids, expired ones included until swept.
func (m *MemoryDeduper) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *MemoryDeduper) sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, exp := range m.items {
		if !exp.After(now) {
			delete(m.items, id)
			removed++
		}
	}
	return removed
}

func (m *MemoryDeduper) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-t.C:
			if n := m.sweep(); n > 0 {
				m.logger.Debug("expired ids removed", zap.Int("count", n))
			}
		}
	}
}

// Close stops the janitor.
func (m *MemoryDeduper) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.stopped {
		close(m.stopCh)
		m.stopped = true
	}
}
