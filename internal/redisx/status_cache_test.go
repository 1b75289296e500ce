package redisx

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/orders"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "order_status:42", OrderStatusKey(42))
	assert.Equal(t, "dedup:seller-notifier:abc", DedupKey("seller-notifier", "abc"))
}

func TestStatusCache_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	rdb := New(addr)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())

	id := time.Now().UnixNano()
	c := NewStatusCache(rdb, nil)
	t.Cleanup(func() { c.Invalidate(ctx, id) })

	_, ok := c.Get(ctx, id)
	assert.False(t, ok)

	want := orders.StatusSnapshot{OrderID: id, BuyerID: 5, Status: orders.StatusProcessing, UpdatedAt: time.Now().UTC().Truncate(time.Second)}
	c.Set(ctx, want)
	got, ok := c.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, want, got)

	ttl, err := rdb.TTL(ctx, OrderStatusKey(id)).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, TTLStatusCache)

	c.Invalidate(ctx, id)
	_, ok = c.Get(ctx, id)
	assert.False(t, ok)

	key := DedupKey("test", time.Now().String())
	t.Cleanup(func() { _ = Release(ctx, rdb, key) })
	first, err := Claim(ctx, rdb, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, first)
	second, err := Claim(ctx, rdb, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, second)
	seen, err := Exists(ctx, rdb, key)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestStatusCache_UnreachableRedisIsAMiss(t *testing.T) {
	rdb := New("127.0.0.1:1")
	t.Cleanup(func() { _ = rdb.Close() })
	c := NewStatusCache(rdb, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c.Set(ctx, orders.StatusSnapshot{OrderID: 1, Status: orders.StatusPending})
	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	c.Invalidate(ctx, 1)
}
