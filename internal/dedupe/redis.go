package dedupe

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces dedupe keys.
const DefaultRedisPrefix = "sui-amm-indexer:dedupe:"

// RedisDeduper is a cluster-wide TTL set built on SETNX.
type RedisDeduper struct {
	rdb    goredis.UniversalClient
	ttl    time.Duration
	prefix string
}

var _ Deduper = (*RedisDeduper)(nil)

// NewRedisDeduper creates a deduper over rdb. An empty prefix uses DefaultRedisPrefix.
func NewRedisDeduper(rdb goredis.UniversalClient, ttl time.Duration, prefix string) (*RedisDeduper, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisDeduper{rdb: rdb, ttl: ttl, prefix: prefix}, nil
}

// Seen sets the key if absent. A failed SETNX means the key already existed.
func (d *RedisDeduper) Seen(ctx context.Context, id string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, d.prefix+id, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return !ok, nil
}
