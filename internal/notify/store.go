package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/postgres"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/redisx"
)

type PgStore struct{ DB postgres.DBTX }

func (s *PgStore) Insert(ctx context.Context, n Notification) (bool, error) {
	ct, err := s.DB.Exec(ctx, `
		INSERT INTO seller_notifications(event_id, seller_id, order_id, kind, title, message, link)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO NOTHING`,
		n.EventID, n.SellerID, n.OrderID, n.Kind, n.Title, n.Message, n.Link)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// RedisDedup keys claims as dedup:{service}:{event_id}.
type RedisDedup struct {
	RDB     redis.Cmdable
	Service string
	TTL     time.Duration
}

func (d *RedisDedup) Claim(ctx context.Context, eventID string) (bool, error) {
	ttl := d.TTL
	if ttl <= 0 {
		ttl = redisx.TTLDedup
	}
	return redisx.Claim(ctx, d.RDB, redisx.DedupKey(d.Service, eventID), ttl)
}

func (d *RedisDedup) Release(ctx context.Context, eventID string) error {
	return redisx.Release(ctx, d.RDB, redisx.DedupKey(d.Service, eventID))
}
