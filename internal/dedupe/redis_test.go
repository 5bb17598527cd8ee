package dedupe

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestNewRedisDeduper_RequiresClient(t *testing.T) {
	_, err := NewRedisDeduper(nil, time.Hour, "")
	assert.Error(t, err)
}

func TestRedisDeduper_FirstSeenThenDuplicate(t *testing.T) {
	mr, client := setupRedis(t)

	d, err := NewRedisDeduper(client, time.Hour, "test:")
	require.NoError(t, err)

	ctx := context.Background()
	seen, err := d.Seen(ctx, "evt1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = d.Seen(ctx, "evt1")
	require.NoError(t, err)
	assert.True(t, seen)

	assert.True(t, mr.Exists("test:evt1"))
	assert.Equal(t, time.Hour, mr.TTL("test:evt1"))
}

func TestRedisDeduper_Expiration(t *testing.T) {
	mr, client := setupRedis(t)

	d, err := NewRedisDeduper(client, time.Minute, "")
	require.NoError(t, err)

	ctx := context.Background()
	seen, err := d.Seen(ctx, "evt1")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.True(t, mr.Exists(DefaultRedisPrefix+"evt1"))

	mr.FastForward(2 * time.Minute)

	seen, err = d.Seen(ctx, "evt1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisDeduper_ConnectionError(t *testing.T) {
	mr, client := setupRedis(t)

	d, err := NewRedisDeduper(client, time.Minute, "")
	require.NoError(t, err)

	mr.Close()

	_, err = d.Seen(context.Background(), "evt1")
	assert.Error(t, err)
}
