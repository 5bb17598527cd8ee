package memory

import (
	"encoding/json"
	"fmt"
	"sync"

	"sui-amm-indexer/internal/storage"
)

// documentStore keeps JSON-encoded documents keyed by coin type.
// Encoding on every write gives callers their own copy on every read.
type documentStore[T any] struct {
	mu   sync.RWMutex
	docs map[string][]byte
	key  func(*T) string
}

func newDocumentStore[T any](key func(*T) string) *documentStore[T] {
	return &documentStore[T]{
		docs: make(map[string][]byte),
		key:  key,
	}
}

func (s *documentStore[T]) create(doc *T) error {
	if doc == nil || s.key(doc) == "" {
		return storage.ErrInvalidInput
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.key(doc)
	if _, exists := s.docs[k]; exists {
		return storage.ErrDuplicateKey
	}
	s.docs[k] = data
	return nil
}

func (s *documentStore[T]) get(coinType string) (*T, error) {
	s.mu.RLock()
	data, exists := s.docs[coinType]
	s.mu.RUnlock()

	if !exists {
		return nil, storage.ErrNotFound
	}

	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

func (s *documentStore[T]) update(doc *T) error {
	if doc == nil || s.key(doc) == "" {
		return storage.ErrInvalidInput
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.key(doc)
	if _, exists := s.docs[k]; !exists {
		return storage.ErrNotFound
	}
	s.docs[k] = data
	return nil
}

func (s *documentStore[T]) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
