package notify

import (
	"context"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/kafka"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/orders"
)

// Topics the notifier subscribes to.
var Topics = []string{orders.TopicOrderCancelled, orders.TopicStatusChanged}

type Deduper interface {
	// Claim reports false when the event was already taken.
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type Store interface {
	// Insert reports false when a row for the event already exists.
	Insert(ctx context.Context, n Notification) (bool, error)
}

// SellerLookup finds the seller of an order when the event did not carry one.
type SellerLookup func(ctx context.Context, orderID int64) (*int64, error)

// Service turns order events into seller notifications.
type Service struct {
	Store   Store
	Dedup   Deduper
	Sellers SellerLookup
	Log     *zap.Logger
}

// HandleOrderEvent is installed as the consumer handler.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		s.logger().Warn("dropping undecodable message", zap.String("topic", m.Topic), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventOrderCancelled && env.EventType != orders.EventOrderStatusChanged {
		return nil
	}
	log := s.logger().With(zap.String("event_id", env.EventID), zap.String("event_type", env.EventType))

	// 2) build the notification from the payload
	n, ok, err := s.build(ctx, env)
	if err != nil {
		return err
	}
	if !ok {
		log.Debug("no seller to notify")
		return nil
	}

	// 3) dedup via redis on the event id, released again if the insert fails
	if s.Dedup != nil {
		first, err := s.Dedup.Claim(ctx, env.EventID)
		if err != nil {
			log.Warn("dedup unavailable, relying on event_id constraint", zap.Error(err))
		} else if !first {
			log.Debug("duplicate event")
			return nil
		}
	}

	// 4) persist
	inserted, err := s.Store.Insert(ctx, n)
	if err != nil {
		if s.Dedup != nil {
			_ = s.Dedup.Release(ctx, env.EventID)
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	log.Info("seller notified",
		zap.Int64("seller_id", n.SellerID),
		zap.Int64("order_id", n.OrderID),
		zap.String("kind", n.Kind),
		zap.Bool("inserted", inserted))
	return nil
}

func (s *Service) build(ctx context.Context, env orders.Envelope) (Notification, bool, error) {
	n := Notification{EventID: env.EventID}
	var sellerID *int64

	switch env.EventType {
	case orders.EventOrderCancelled:
		p, err := kafkax.UnwrapPayload[orders.OrderCancelledPayload](env.Payload)
		if err != nil {
			return Notification{}, false, nil
		}
		n.OrderID, n.Kind, sellerID = p.OrderID, KindCancelled, p.SellerID
		n.Title, n.Message = cancelled(p)
	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.StatusChangedPayload](env.Payload)
		if err != nil {
			return Notification{}, false, nil
		}
		n.OrderID, n.Kind, sellerID = p.OrderID, KindStatusChange, p.SellerID
		n.Title, n.Message = statusChanged(p)
	}

	if sellerID == nil && s.Sellers != nil {
		var err error
		if sellerID, err = s.Sellers(ctx, n.OrderID); err != nil {
			return Notification{}, false, fmt.Errorf("resolve seller for order %d: %w", n.OrderID, err)
		}
	}
	if sellerID == nil {
		return Notification{}, false, nil
	}
	n.SellerID = *sellerID
	n.Link = orderLink(n.OrderID)
	return n, true, nil
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// OrderSellers resolves sellers with the same precedence a cancellation uses.
func OrderSellers(st orders.Store) SellerLookup {
	return func(ctx context.Context, orderID int64) (*int64, error) {
		r := st.Read()
		o, err := r.Orders().Find(ctx, orderID)
		if err != nil {
			if errors.Is(err, orders.ErrOrderNotFound) {
				return nil, nil
			}
			return nil, err
		}
		items, err := r.Orders().Items(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return orders.ResolveSellerID(ctx, o, items, r.Products().Find)
	}
}
