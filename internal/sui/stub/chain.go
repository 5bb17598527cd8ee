package stub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/sui"
)

// ErrNotFound is returned for supply and balance lookups with no entry.
var ErrNotFound = errors.New("not found")

// ChainState implements sui.ChainState for testing.
type ChainState struct {
	mu        sync.RWMutex
	Objects   map[string]string // object id -> type
	Metadata  map[string]*domain.CoinMetadata
	Supplies  map[string]uint64
	Balances  map[string]uint64 // owner|coinType -> balance
	callCount map[string]int
}

// Compile-time interface check.
var _ sui.ChainState = (*ChainState)(nil)

// NewChainState creates an empty stub.
func NewChainState() *ChainState {
	return &ChainState{
		Objects:   make(map[string]string),
		Metadata:  make(map[string]*domain.CoinMetadata),
		Supplies:  make(map[string]uint64),
		Balances:  make(map[string]uint64),
		callCount: make(map[string]int),
	}
}

// AddPool registers a Pool<coinType> object under poolID.
func (c *ChainState) AddPool(poolID, coinType string) {
	c.AddObject(poolID, "0xamm::amm_swap::Pool<"+coinType+">")
}

// AddObject registers an object with an arbitrary type string.
func (c *ChainState) AddObject(id, objectType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Objects[id] = objectType
}

// AddCoin registers metadata and supply for a coin type.
func (c *ChainState) AddCoin(coinType string, meta *domain.CoinMetadata, supply uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Metadata[coinType] = meta
	c.Supplies[coinType] = supply
}

// SetBalance sets the balance of coinType owned by owner.
func (c *ChainState) SetBalance(owner, coinType string, balance uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Balances[owner+"|"+coinType] = balance
}

// Calls returns how many times method was invoked.
func (c *ChainState) Calls(method string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.callCount[method]
}

func (c *ChainState) record(method string) {
	c.callCount[method]++
}

// GetObjectType returns the registered type or sui.ErrObjectNotFound.
func (c *ChainState) GetObjectType(_ context.Context, objectID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("GetObjectType")

	t, ok := c.Objects[objectID]
	if !ok {
		return "", fmt.Errorf("%w: %s", sui.ErrObjectNotFound, objectID)
	}
	return t, nil
}

// GetCoinMetadata returns the registered metadata or sui.ErrMetadataNotFound.
func (c *ChainState) GetCoinMetadata(_ context.Context, coinType string) (*domain.CoinMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("GetCoinMetadata")

	m, ok := c.Metadata[coinType]
	if !ok || m == nil {
		return nil, fmt.Errorf("%w: %s", sui.ErrMetadataNotFound, coinType)
	}
	cp := *m
	return &cp, nil
}

// GetTotalSupply returns the registered supply or ErrNotFound.
func (c *ChainState) GetTotalSupply(_ context.Context, coinType string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("GetTotalSupply")

	v, ok := c.Supplies[coinType]
	if !ok {
		return 0, ErrNotFound
	}
	return v, nil
}

// GetBalance returns the registered balance, or 0 if none was set.
func (c *ChainState) GetBalance(_ context.Context, owner, coinType string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("GetBalance")

	return c.Balances[owner+"|"+coinType], nil
}
