package clickhouse

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/observability"
	"sui-amm-indexer/internal/storage"
)

var (
	// ErrWriterClosed is returned by Enqueue after Close.
	ErrWriterClosed = errors.New("swap archive writer closed")
	// ErrWriterFull is returned by Enqueue when the buffer is full.
	ErrWriterFull = errors.New("swap archive writer buffer full")
)

// BatchInserter writes a batch of swaps. SwapStore implements it.
type BatchInserter interface {
	InsertBatch(ctx context.Context, records []*domain.SwapRecord) error
}

// WriterConfig tunes batching and retries.
type WriterConfig struct {
	BatchMaxRows     int
	BatchMaxInterval time.Duration
	MaxRetries       int
	RetryBackoff     time.Duration
	Buffer           int
}

// DefaultWriterConfig returns the defaults used when a field is zero.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchMaxRows:     1000,
		BatchMaxInterval: 200 * time.Millisecond,
		MaxRetries:       3,
		RetryBackoff:     200 * time.Millisecond,
		Buffer:           8192,
	}
}

// Writer batches swaps into the archive in the background. Enqueue never
// blocks: when the buffer is full the record is dropped and counted.
type Writer struct {
	inserter BatchInserter
	cfg      WriterConfig
	logger   *zap.Logger

	mu     sync.RWMutex
	closed bool
	inCh   chan *domain.SwapRecord
	wg     sync.WaitGroup
}

// Compile-time interface check.
var _ storage.SwapArchive = (*Writer)(nil)

// NewWriter starts a writer flushing into inserter.
func NewWriter(inserter BatchInserter, cfg WriterConfig, logger *zap.Logger) *Writer {
	def := DefaultWriterConfig()
	if cfg.BatchMaxRows <= 0 {
		cfg.BatchMaxRows = def.BatchMaxRows
	}
	if cfg.BatchMaxInterval <= 0 {
		cfg.BatchMaxInterval = def.BatchMaxInterval
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = def.Buffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Writer{
		inserter: inserter,
		cfg:      cfg,
		logger:   logger.Named("swap_archive"),
		inCh:     make(chan *domain.SwapRecord, cfg.Buffer),
	}

	w.wg.Add(1)
	go w.loop()

	return w
}

// Enqueue hands r to the background batcher.
func (w *Writer) Enqueue(r *domain.SwapRecord) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return ErrWriterClosed
	}

	select {
	case w.inCh <- r:
		return nil
	default:
		observability.RecordArchiveRows("dropped", 1)
		return ErrWriterFull
	}
}

// Close flushes buffered rows and stops the writer. It returns ctx.Err() if
// the final flush outlives ctx.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.inCh)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) loop() {
	defer w.wg.Done()

	batch := make([]*domain.SwapRecord, 0, w.cfg.BatchMaxRows)
	ticker := time.NewTicker(w.cfg.BatchMaxInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		if err := w.insertWithRetry(batch); err != nil {
			observability.RecordArchiveRows("failed", len(batch))
			w.logger.Error("archive batch insert failed",
				zap.Int("rows", len(batch)),
				zap.Error(err),
			)
		} else {
			observability.RecordArchiveRows("written", len(batch))
		}
		batch = make([]*domain.SwapRecord, 0, w.cfg.BatchMaxRows)
	}

	for {
		select {
		case r, ok := <-w.inCh:
			if !ok {
				flush()
				return
			}

			batch = append(batch, r)
			if len(batch) >= w.cfg.BatchMaxRows {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (w *Writer) insertWithRetry(rows []*domain.SwapRecord) error {
	backoff := w.cfg.RetryBackoff

	var lastErr error
	for attempt := 0; attempt <= w.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		lastErr = w.inserter.InsertBatch(context.Background(), rows)
		if lastErr == nil {
			return nil
		}
		w.logger.Warn("archive batch insert attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}
	return lastErr
}
