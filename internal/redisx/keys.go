package redisx

import (
	"fmt"
	"time"
)

const (
	// Cache status order: order_status:{order_id} -> {"order_id":..,"buyer_id":..,"status":"..","updated_at":".."}
	KeyOrderStatus = "order_status:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)

func OrderStatusKey(orderID int64) string { return fmt.Sprintf(KeyOrderStatus, orderID) }

func DedupKey(service, eventID string) string { return fmt.Sprintf(KeyDedup, service, eventID) }
