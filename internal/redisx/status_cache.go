package redisx

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/orders"
)

// StatusCache keeps order status snapshots in redis. Redis failures are
// logged and treated as misses; the database stays authoritative.
type StatusCache struct {
	rdb redis.Cmdable
	log *zap.Logger
}

func NewStatusCache(rdb redis.Cmdable, log *zap.Logger) *StatusCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatusCache{rdb: rdb, log: log}
}

func (c *StatusCache) Get(ctx context.Context, orderID int64) (orders.StatusSnapshot, bool) {
	b, err := c.rdb.Get(ctx, OrderStatusKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return orders.StatusSnapshot{}, false
	}
	if err != nil {
		c.log.Warn("status cache get failed", zap.Int64("order_id", orderID), zap.Error(err))
		return orders.StatusSnapshot{}, false
	}
	var s orders.StatusSnapshot
	if err := json.Unmarshal(b, &s); err != nil {
		c.log.Warn("status cache entry corrupt", zap.Int64("order_id", orderID), zap.Error(err))
		return orders.StatusSnapshot{}, false
	}
	return s, true
}

func (c *StatusCache) Set(ctx context.Context, s orders.StatusSnapshot) {
	b, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, OrderStatusKey(s.OrderID), b, TTLStatusCache).Err(); err != nil {
		c.log.Warn("status cache set failed", zap.Int64("order_id", s.OrderID), zap.Error(err))
	}
}

func (c *StatusCache) Invalidate(ctx context.Context, orderID int64) {
	if err := c.rdb.Del(ctx, OrderStatusKey(orderID)).Err(); err != nil {
		c.log.Warn("status cache invalidate failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
}
