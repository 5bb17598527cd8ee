// Package cointype maps pool object ids to the coin type they trade.
package cointype

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"sui-amm-indexer/internal/sui"
)

// DefaultCacheSize bounds the pool id cache.
const DefaultCacheSize = 10000

// ErrTypeFormat is returned when an object type is not a Pool<T>.
var ErrTypeFormat = errors.New("object type is not a pool")

var poolTypePattern = regexp.MustCompile(`::Pool<([^>]+)>`)

// Options configures a Resolver.
type Options struct {
	CacheSize int
	Logger    *zap.Logger
}

// Resolver resolves pool ids to coin types through sui_getObject.
// A pool's type cannot change on chain, so results are cached.
type Resolver struct {
	chain     sui.ChainState
	logger    *zap.Logger
	cacheSize int

	mu    sync.RWMutex
	cache map[string]string
}

// New creates a Resolver backed by chain.
func New(chain sui.ChainState, opts Options) *Resolver {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Resolver{
		chain:     chain,
		logger:    opts.Logger.Named("cointype"),
		cacheSize: opts.CacheSize,
		cache:     make(map[string]string),
	}
}

// Resolve returns the coin type traded by poolID.
func (r *Resolver) Resolve(ctx context.Context, poolID string) (string, error) {
	r.mu.RLock()
	coinType, ok := r.cache[poolID]
	r.mu.RUnlock()
	if ok {
		return coinType, nil
	}

	objectType, err := r.chain.GetObjectType(ctx, poolID)
	if err != nil {
		return "", fmt.Errorf("get object %s: %w", poolID, err)
	}

	coinType, err = Extract(objectType)
	if err != nil {
		return "", err
	}

	r.store(poolID, coinType)
	r.logger.Debug("resolved pool",
		zap.String("pool_id", poolID),
		zap.String("coin_type", coinType),
	)
	return coinType, nil
}

// Cached returns the number of cached pool ids.
func (r *Resolver) Cached() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func (r *Resolver) store(poolID, coinType string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.cache) >= r.cacheSize {
		// map iteration order is random, which is all the eviction we need
		for k := range r.cache {
			delete(r.cache, k)
			break
		}
	}
	r.cache[poolID] = coinType
}

// Extract pulls T out of a "...::Pool<T>" type string.
func Extract(objectType string) (string, error) {
	m := poolTypePattern.FindStringSubmatch(objectType)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrTypeFormat, objectType)
	}
	return m[1], nil
}
