package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sui-amm-indexer/internal/observability"
	"sui-amm-indexer/internal/storage"
)

// documentStore persists JSONB documents in a table shaped
// (coin_type TEXT PRIMARY KEY, document JSONB, updated_at TIMESTAMPTZ).
type documentStore[T any] struct {
	pool  *Pool
	table string
	key   func(*T) string
}

func newDocumentStore[T any](pool *Pool, table string, key func(*T) string) *documentStore[T] {
	return &documentStore[T]{pool: pool, table: table, key: key}
}

func (s *documentStore[T]) create(ctx context.Context, doc *T) (err error) {
	if doc == nil || s.key(doc) == "" {
		return storage.ErrInvalidInput
	}
	defer s.observe("create", time.Now(), &err)

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", s.table, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (coin_type, document, updated_at)
		VALUES ($1, $2, now())
	`, s.table)

	_, err = s.pool.Exec(ctx, query, s.key(doc), string(data))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert %s: %w", s.table, err)
	}
	return nil
}

func (s *documentStore[T]) get(ctx context.Context, coinType string) (_ *T, err error) {
	defer s.observe("get", time.Now(), &err)

	query := fmt.Sprintf(`SELECT document FROM %s WHERE coin_type = $1`, s.table)

	var data []byte
	if err := s.pool.QueryRow(ctx, query, coinType).Scan(&data); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", s.table, err)
	}

	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", s.table, err)
	}
	return &doc, nil
}

func (s *documentStore[T]) update(ctx context.Context, doc *T) (err error) {
	if doc == nil || s.key(doc) == "" {
		return storage.ErrInvalidInput
	}
	defer s.observe("update", time.Now(), &err)

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", s.table, err)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET document = $2, updated_at = now()
		WHERE coin_type = $1
	`, s.table)

	tag, err := s.pool.Exec(ctx, query, s.key(doc), string(data))
	if err != nil {
		return fmt.Errorf("update %s: %w", s.table, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// observe records query latency. Sentinel outcomes are not counted as errors.
func (s *documentStore[T]) observe(op string, start time.Time, err *error) {
	var recorded error
	if *err != nil && !errors.Is(*err, storage.ErrNotFound) && !errors.Is(*err, storage.ErrDuplicateKey) {
		recorded = *err
	}
	observability.RecordDBQuery("postgres", s.table+"_"+op, time.Since(start).Seconds(), recorded)
}
